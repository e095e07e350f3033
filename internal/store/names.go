package store

import (
	"os"
	"path/filepath"
	"strings"
)

// solutionExt is stripped from Rider solution names
const solutionExt = ".sln"

// jetbrainsProjectName returns the name of the project at path.
//
// The name comes from .idea/.name if present, otherwise from the base name of
// path. Solution files lose their extension.
func jetbrainsProjectName(path string) string {
	data, err := os.ReadFile(filepath.Join(path, ".idea", ".name"))
	if err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}
	return baseName(path)
}

func baseName(path string) string {
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(name), solutionExt) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
