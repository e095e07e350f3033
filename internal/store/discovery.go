package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// Location describes where an IDE keeps its recent projects.
//
// A JetBrains location sets VendorDir, ConfigGlob and ProjectsFilename; a
// VS Code location sets ConfigDir. All paths are relative to the user's
// configuration directory.
type Location struct {
	VendorDir        string // e.g. JetBrains or Google
	ConfigGlob       string // e.g. IntelliJIdea*
	ProjectsFilename string // recentProjects.xml or recentSolutions.xml

	ConfigDir string // e.g. Code or VSCodium
}

// IsVSCode reports whether l points to a VS Code family configuration
func (l Location) IsVSCode() bool {
	return l.ConfigDir != ""
}

// Version is the product version parsed from a configuration directory name
type Version struct {
	Major int
	Minor int
}

// Less orders versions by major, then minor
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// additionalInfoSince is the first version writing the additionalInfo map
var additionalInfoSince = Version{Major: 2020, Minor: 3}

var versionPattern = regexp.MustCompile(`(\d{1,4}).(\d{1,2})`)

// ParseVersion extracts the version from a configuration directory name
func ParseVersion(name string) (Version, bool) {
	m := versionPattern.FindStringSubmatch(name)
	if m == nil {
		return Version{}, false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, false
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, false
	}
	return Version{Major: major, Minor: minor}, true
}

// FormatFor returns the store format written by a JetBrains version
func FormatFor(v Version) types.StoreFormat {
	if v.Less(additionalInfoSince) {
		return types.FormatJetBrainsV1
	}
	return types.FormatJetBrainsV2
}

// Discovered is a store found by Discover
type Discovered struct {
	Path   string
	Format types.StoreFormat
}

// Discover locates the store of loc below configHome.
//
// For JetBrains products it picks the configuration directory with the
// greatest version. It fails with types.ErrNotFound if there is no store.
func Discover(configHome string, loc Location) (Discovered, error) {
	if loc.IsVSCode() {
		path := filepath.Join(configHome, loc.ConfigDir, "User", "globalStorage", "state.vscdb")
		if _, err := statStore(path); err != nil {
			return Discovered{}, err
		}
		return Discovered{Path: path, Format: types.FormatVSCodeStateDB}, nil
	}

	dir, version, err := newestConfigDir(configHome, loc)
	if err != nil {
		return Discovered{}, err
	}

	path := filepath.Join(dir, "options", loc.ProjectsFilename)
	if _, err := statStore(path); err != nil {
		return Discovered{}, err
	}
	return Discovered{Path: path, Format: FormatFor(version)}, nil
}

// newestConfigDir returns the configuration directory of loc with the
// greatest version
func newestConfigDir(configHome string, loc Location) (string, Version, error) {
	pattern := filepath.Join(configHome, loc.VendorDir, loc.ConfigGlob)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", Version{}, fmt.Errorf("invalid config glob %q: %w", loc.ConfigGlob, err)
	}

	var (
		best    string
		bestVer Version
	)
	for _, dir := range matches {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		v, ok := ParseVersion(filepath.Base(dir))
		if !ok {
			continue
		}
		if best == "" || bestVer.Less(v) {
			best, bestVer = dir, v
		}
	}
	if best == "" {
		return "", Version{}, fmt.Errorf("%w: no configuration directory matches %s", types.ErrNotFound, pattern)
	}
	return best, bestVer, nil
}

// Locate returns a reader that discovers its store on every read, so that
// stores created or upgraded after startup are picked up.
func Locate(variant, configHome string, loc Location) Reader {
	return &discoveringReader{variant: variant, configHome: configHome, loc: loc}
}

type discoveringReader struct {
	variant    string
	configHome string
	loc        Location
}

func (r *discoveringReader) Variant() string { return r.variant }

// Path returns the currently discovered store, or "" if there is none
func (r *discoveringReader) Path() string {
	d, err := Discover(r.configHome, r.loc)
	if err != nil {
		return ""
	}
	return d.Path
}

func (r *discoveringReader) Read(ctx context.Context) ([]types.ProjectRecord, error) {
	d, err := Discover(r.configHome, r.loc)
	if err != nil {
		return nil, err
	}
	inner, err := New(r.variant, d.Path, d.Format)
	if err != nil {
		return nil, err
	}
	return inner.Read(ctx)
}

// WatchTarget is a directory whose changes may affect a store
type WatchTarget struct {
	Dir   string
	Names []string // File names of interest; empty means any change
}

// Matches reports whether a change to path concerns the target
func (t WatchTarget) Matches(path string) bool {
	if filepath.Dir(path) != filepath.Clean(t.Dir) {
		return false
	}
	if len(t.Names) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, n := range t.Names {
		if base == n {
			return true
		}
	}
	return false
}

// WatchTargetsFor returns what to watch for the store of loc, whether or
// not the store exists yet. For JetBrains products the vendor directory is
// always watched, so that new versions are noticed, and the options directory
// of the newest version once it exists.
func WatchTargetsFor(configHome string, loc Location) []WatchTarget {
	if loc.IsVSCode() {
		return []WatchTarget{{
			Dir:   filepath.Join(configHome, loc.ConfigDir, "User", "globalStorage"),
			Names: []string{"state.vscdb", "state.vscdb-wal"},
		}}
	}

	targets := []WatchTarget{{Dir: filepath.Join(configHome, loc.VendorDir)}}
	if dir, _, err := newestConfigDir(configHome, loc); err == nil {
		options := filepath.Join(dir, "options")
		if info, err := os.Stat(options); err == nil && info.IsDir() {
			targets = append(targets, WatchTarget{Dir: options, Names: []string{loc.ProjectsFilename}})
		} else {
			// Until options/ exists, its creation is the change to wait for
			targets = append(targets, WatchTarget{Dir: dir, Names: []string{"options"}})
		}
	}
	return targets
}
