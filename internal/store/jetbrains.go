package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

var storeLog = logging.ForComponent(logging.CompStore)

// managerSuffix matches RecentProjectsManager and RiderRecentProjectsManager
const managerSuffix = "RecentProjectsManager"

// Timestamp options of RecentProjectMetaInfo, in epoch milliseconds
var timestampOptions = []string{"projectOpenTimestamp", "activationTimestamp"}

// jetbrainsReader reads recentProjects.xml and recentSolutions.xml
type jetbrainsReader struct {
	variant string
	path    string
	format  types.StoreFormat
}

func (r *jetbrainsReader) Variant() string { return r.variant }

func (r *jetbrainsReader) Path() string { return r.path }

// Read parses the store according to its declared format
func (r *jetbrainsReader) Read(ctx context.Context) ([]types.ProjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := statStore(r.path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", r.path, err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home directory required: %w", err)
	}

	entries, err := parseJetBrains(data, r.format, info.ModTime())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrParse, r.path, err)
	}

	records := make([]types.ProjectRecord, 0, len(entries))
	for _, e := range entries {
		path, err := normalizePath(e.path, home)
		if err != nil {
			storeLog.Debug("store_entry_skipped",
				slog.String("store", r.path),
				slog.String("entry", e.path),
				slog.String("error", err.Error()))
			continue
		}
		records = append(records, types.NewProjectRecord(r.variant, jetbrainsProjectName(path), path, e.opened))
	}
	return dedupe(records), nil
}

// rawEntry is a store entry before path normalization
type rawEntry struct {
	path   string
	opened time.Time
}

// parseJetBrains extracts entries from a recent projects document.
//
// The declared format decides which layout is read first. A manager holding
// only the other layout is read in that layout, since the format is derived
// from the directory name and may be wrong. A document without a recent
// projects manager, or a manager without any list, has no entries.
func parseJetBrains(data []byte, format types.StoreFormat, modTime time.Time) ([]rawEntry, error) {
	if format != types.FormatJetBrainsV1 && format != types.FormatJetBrainsV2 {
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	var entries []rawEntry
	for _, comp := range doc.FindElements("//component") {
		if !strings.HasSuffix(comp.SelectAttrValue("name", ""), managerSuffix) {
			continue
		}
		v2 := comp.FindElement(additionalInfoPath) != nil
		v1 := comp.FindElement(recentPathsPath) != nil
		switch {
		case v2 && (format == types.FormatJetBrainsV2 || !v1):
			if format != types.FormatJetBrainsV2 {
				storeLog.Debug("store_format_mismatch", slog.String("declared", string(format)))
			}
			entries = append(entries, additionalInfoEntries(comp)...)
		case v1:
			if format != types.FormatJetBrainsV1 {
				storeLog.Debug("store_format_mismatch", slog.String("declared", string(format)))
			}
			entries = append(entries, recentPathsEntries(comp, modTime)...)
		}
	}
	return entries, nil
}

const (
	additionalInfoPath = "./option[@name='additionalInfo']/map"
	recentPathsPath    = "./option[@name='recentPaths']/list"
)

// additionalInfoEntries reads the map used since 2020.3
func additionalInfoEntries(comp *etree.Element) []rawEntry {
	var entries []rawEntry
	for _, entry := range comp.FindElements(additionalInfoPath + "/entry") {
		key := entry.SelectAttrValue("key", "")
		if key == "" {
			continue
		}
		entries = append(entries, rawEntry{path: key, opened: lastOpened(entry)})
	}
	return entries
}

// lastOpened returns the newest timestamp of an additionalInfo entry
func lastOpened(entry *etree.Element) time.Time {
	var newest int64
	for _, opt := range entry.FindElements("./value/RecentProjectMetaInfo/option") {
		name := opt.SelectAttrValue("name", "")
		if !isTimestampOption(name) {
			continue
		}
		ms, err := strconv.ParseInt(opt.SelectAttrValue("value", ""), 10, 64)
		if err != nil {
			continue
		}
		if ms > newest {
			newest = ms
		}
	}
	if newest == 0 {
		return time.Time{}
	}
	return time.UnixMilli(newest)
}

func isTimestampOption(name string) bool {
	for _, candidate := range timestampOptions {
		if name == candidate {
			return true
		}
	}
	return false
}

// recentPathsEntries reads the legacy list, which is ordered most recent first
func recentPathsEntries(comp *etree.Element, modTime time.Time) []rawEntry {
	var entries []rawEntry
	for i, opt := range comp.FindElements(recentPathsPath + "/option") {
		value := opt.SelectAttrValue("value", "")
		if value == "" {
			continue
		}
		entries = append(entries, rawEntry{path: value, opened: listPosition(modTime, i)})
	}
	return entries
}

// listPosition derives a timestamp from a position in a recency-ordered list
func listPosition(modTime time.Time, i int) time.Time {
	return modTime.Add(-time.Duration(i) * time.Second)
}
