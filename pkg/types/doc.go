// Package types provides shared type definitions for the search providers.
//
// This package defines the domain types passed between the store readers,
// the index refresher, the matcher and the session manager.
//
// # Core Types
//
// ProjectRecord represents one recent project of one IDE installation:
//
//	record := types.NewProjectRecord(
//	    "jetbrains-idea.desktop",
//	    "mdcat",
//	    "/home/user/Code/mdcat",
//	    openedAt,
//	)
//
// Record IDs are derived from the variant and the path, so the same project
// keeps its ID across index rebuilds for the lifetime of the process.
//
// ProjectIndex is an immutable snapshot of records plus a generation counter:
//
//	snapshot := types.NewProjectIndex(previous.Generation+1, time.Now(), records)
//	record, ok := snapshot.Get(id)
//
// Snapshots are replaced, never mutated, so readers need no locking.
//
// # Errors
//
// Store readers fail with ErrNotFound or ErrParse; both are isolated to the
// failing store. ErrStaleResult marks a superseded query and never reaches
// the caller of the search protocol. ErrActivationFailed is logged only.
package types
