// Package session implements the query state machine of a search provider.
//
// Each query of the shell becomes a session moving from Running to either
// Completed or Cancelled. A new query supersedes the running one:
//
//	ids, err := m.GetInitialResultSet(ctx, terms)
//	if errors.Is(err, types.ErrStaleResult) {
//	    // a newer query took over; answer with an empty list
//	}
//
// The manager retains the snapshots that produced recent results, so result
// metadata and activation keep working after the index was rebuilt.
package session
