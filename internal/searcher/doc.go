// Package searcher matches search terms against a project index snapshot.
//
// A project matches when every term is a case-insensitive substring of its
// display name or its path. Results are ordered by recency:
//
//	ids := searcher.Match(snapshot, []string{"gnome", "search"})
//
// Narrowing a previous result list, as the shell does while the user keeps
// typing, yields the same IDs in the same order as a fresh Match filtered to
// the previous list:
//
//	ids = searcher.MatchSubset(snapshot, ids, []string{"gnome", "search", "prov"})
//
// Both functions are pure and safe for concurrent use.
package searcher
