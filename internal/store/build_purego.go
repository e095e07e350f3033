//go:build !sqlite_cgo

package store

// This file is compiled by default. It uses a pure Go SQLite
// implementation, so no C compiler is required.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver used for VS Code state databases
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
