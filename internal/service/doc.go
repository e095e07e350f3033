// Package service wires the search providers together.
//
// For every enabled IDE whose desktop entry is installed, New builds a
// store reader, an indexer and a session manager. Run serves them either on
// the session bus, where GNOME Shell finds them through the files in
// providers/, or as MCP tools on stdio.
package service
