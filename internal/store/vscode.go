package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// recentlyOpenedKey is the ItemTable key holding the recently opened list
const recentlyOpenedKey = "history.recentlyOpenedPathsList"

// vscodeReader reads the recently opened folders of a VS Code state database
type vscodeReader struct {
	variant string
	path    string
}

func (r *vscodeReader) Variant() string { return r.variant }

func (r *vscodeReader) Path() string { return r.path }

// recentlyOpened is the JSON value stored under recentlyOpenedKey
type recentlyOpened struct {
	Entries []struct {
		FolderURI string `json:"folderUri"`
		FileURI   string `json:"fileUri"`
		Label     string `json:"label"`
	} `json:"entries"`
}

// Read queries the state database, opened read-only
func (r *vscodeReader) Read(ctx context.Context) ([]types.ProjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := statStore(r.path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverName, "file:"+r.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database %s: %w", r.path, err)
	}
	defer func() { _ = db.Close() }()

	var raw []byte
	err = db.QueryRowContext(ctx, "SELECT value FROM ItemTable WHERE key = ?", recentlyOpenedKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", types.ErrParse, r.path, err)
	}

	var list recentlyOpened
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrParse, r.path, err)
	}

	records := make([]types.ProjectRecord, 0, len(list.Entries))
	for i, e := range list.Entries {
		if e.FolderURI == "" {
			continue
		}
		u, err := url.Parse(e.FolderURI)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			storeLog.Debug("store_entry_skipped",
				slog.String("store", r.path),
				slog.String("entry", e.FolderURI))
			continue
		}
		path, err := normalizePath(u.Path, "")
		if err != nil {
			continue
		}
		records = append(records, types.NewProjectRecord(r.variant, baseName(path), path, listPosition(info.ModTime(), i)))
	}
	return dedupe(records), nil
}
