package types

import (
	"os"
	"path/filepath"
	"strings"
)

// ResultMeta is the display information for one result ID
type ResultMeta struct {
	ID          string
	Name        string
	Description string // Project path, home abbreviated as ~
	Icon        string // Serialized GIcon of the owning app
}

// MetaFor builds the result metadata for a record
func MetaFor(r ProjectRecord, icon string) ResultMeta {
	return ResultMeta{
		ID:          r.ID,
		Name:        r.DisplayName,
		Description: AbbreviateHome(r.Path),
		Icon:        icon,
	}
}

// AbbreviateHome replaces a leading home directory in path with ~
func AbbreviateHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	home = filepath.Clean(home)
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}
