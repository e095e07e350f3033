package types

import (
	"errors"
	"path/filepath"
	"time"
)

// StoreFormat declares the on-disk layout of a recent-projects store
type StoreFormat string

const (
	// FormatJetBrainsV1 is the legacy recentPaths list used before 2020.3
	FormatJetBrainsV1 StoreFormat = "jetbrains-recent-projects-v1"
	// FormatJetBrainsV2 is the additionalInfo map used since 2020.3
	FormatJetBrainsV2 StoreFormat = "jetbrains-recent-projects-v2"
	// FormatVSCodeStateDB is the SQLite state database of the VS Code family
	FormatVSCodeStateDB StoreFormat = "vscode-state-db"
)

// ProjectRecord is one recent project discovered in an IDE store
type ProjectRecord struct {
	// Identification
	ID      string
	Variant string // Desktop ID of the owning IDE installation

	// Display
	DisplayName string
	Path        string // Absolute, cleaned; may no longer exist

	// Ordering only, never filtering
	LastOpened time.Time
}

// ProjectID derives the record ID for path within variant.
// The same variant and path always give the same ID.
func ProjectID(variant, path string) string {
	return variant + ":" + path
}

// NewProjectRecord builds a record with its ID derived from variant and path
func NewProjectRecord(variant, name, path string, lastOpened time.Time) ProjectRecord {
	return ProjectRecord{
		ID:          ProjectID(variant, path),
		Variant:     variant,
		DisplayName: name,
		Path:        path,
		LastOpened:  lastOpened,
	}
}

// Validate checks if the record is usable
func (r *ProjectRecord) Validate() error {
	if r.Variant == "" {
		return ErrMissingVariant
	}
	if r.Path == "" || !filepath.IsAbs(r.Path) {
		return ErrInvalidPath
	}
	if r.ID != ProjectID(r.Variant, r.Path) {
		return errors.New("record ID does not match variant and path")
	}
	return nil
}

// NewerThan reports whether r was opened after other
func (r *ProjectRecord) NewerThan(other ProjectRecord) bool {
	return r.LastOpened.After(other.LastOpened)
}
