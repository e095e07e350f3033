package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// Reader reads the recent projects of one IDE installation
type Reader interface {
	// Variant returns the desktop ID of the IDE installation owning the records
	Variant() string

	// Path returns the store file this reader reads, or "" if none is known yet
	Path() string

	// Read parses the store. It fails with types.ErrNotFound if the store
	// does not exist and with types.ErrParse if it cannot be understood.
	Read(ctx context.Context) ([]types.ProjectRecord, error)
}

// New returns the reader for a store of the declared format
func New(variant, path string, format types.StoreFormat) (Reader, error) {
	switch format {
	case types.FormatJetBrainsV1, types.FormatJetBrainsV2:
		return &jetbrainsReader{variant: variant, path: path, format: format}, nil
	case types.FormatVSCodeStateDB:
		return &vscodeReader{variant: variant, path: path}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", types.ErrParse, format)
	}
}

// statStore returns the store's file info, mapping absence to ErrNotFound
func statStore(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat store %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", types.ErrParse, path)
	}
	return info, nil
}

// normalizePath expands home references and returns a clean absolute path
func normalizePath(raw, home string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	p = strings.ReplaceAll(p, "$USER_HOME$", home)
	if p == "~" {
		p = home
	} else if strings.HasPrefix(p, "~/") {
		p = filepath.Join(home, p[2:])
	}
	return filepath.Abs(filepath.Clean(p))
}

// dedupe keeps one record per path, the most recently opened one, in first-seen order
func dedupe(records []types.ProjectRecord) []types.ProjectRecord {
	pos := make(map[string]int, len(records))
	out := make([]types.ProjectRecord, 0, len(records))
	for _, r := range records {
		if i, ok := pos[r.Path]; ok {
			if r.NewerThan(out[i]) {
				out[i] = r
			}
			continue
		}
		pos[r.Path] = len(out)
		out = append(out, r)
	}
	return out
}
