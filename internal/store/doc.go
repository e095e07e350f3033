// Package store reads the recent projects of IDE installations.
//
// JetBrains IDEs keep them in recentProjects.xml (recentSolutions.xml for
// Rider) below a versioned configuration directory such as
// ~/.config/JetBrains/IntelliJIdea2024.1/options. Since 2020.3 the file holds
// an additionalInfo map with open timestamps; older versions write a plain
// recentPaths list. The VS Code family keeps its history in the SQLite
// database User/globalStorage/state.vscdb.
//
// Locate returns a Reader that finds the newest store on every read. All
// readers report a missing store as types.ErrNotFound and an unreadable one
// as types.ErrParse.
//
// The SQLite driver is modernc.org/sqlite by default; build with
// -tags sqlite_cgo to use github.com/mattn/go-sqlite3 instead.
package store
