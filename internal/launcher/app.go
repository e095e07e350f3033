package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrAppNotFound is returned when no visible desktop entry exists for an ID
var ErrAppNotFound = errors.New("application not found")

const desktopEntrySection = "Desktop Entry"

// App is an installed desktop application
type App struct {
	DesktopID string // e.g. jetbrains-idea.desktop
	Name      string
	Icon      string // Icon name or absolute path, as in the desktop entry
	File      string // Path of the desktop entry
}

// DataDirs returns the XDG data directories in lookup order
func DataDirs() []string {
	var dirs []string

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		dirs = append(dirs, dataHome)
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range filepath.SplitList(dataDirs) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// FindApp looks up the desktop entry for desktopID in the XDG data
// directories. The first entry found wins; a hidden entry masks the
// application.
func FindApp(desktopID string) (App, error) {
	return FindAppIn(DataDirs(), desktopID)
}

// FindAppIn looks up desktopID below the applications directory of each of dirs
func FindAppIn(dirs []string, desktopID string) (App, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, "applications", desktopID)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		app, hidden, err := loadDesktopEntry(path)
		if err != nil {
			return App{}, fmt.Errorf("failed to read desktop entry %s: %w", path, err)
		}
		if hidden {
			return App{}, fmt.Errorf("%w: %s is hidden", ErrAppNotFound, desktopID)
		}
		app.DesktopID = desktopID
		return app, nil
	}
	return App{}, fmt.Errorf("%w: %s", ErrAppNotFound, desktopID)
}

func loadDesktopEntry(path string) (App, bool, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return App{}, false, err
	}
	sec, err := cfg.GetSection(desktopEntrySection)
	if err != nil {
		return App{}, false, err
	}

	app := App{
		Name: strings.TrimSpace(sec.Key("Name").String()),
		Icon: strings.TrimSpace(sec.Key("Icon").String()),
		File: path,
	}
	return app, sec.Key("Hidden").MustBool(false), nil
}
