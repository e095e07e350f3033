// Package indexer keeps the in-memory project index of one search provider
// up to date.
//
// The indexer reads every configured store, merges the records and publishes
// an immutable snapshot with a new generation number.
//
// # Basic Usage
//
//	idx := indexer.New(readers, indexer.DefaultConfig())
//
//	snapshot, err := idx.EnsureFresh(ctx)
//	if err != nil {
//	    return err // only cancellation
//	}
//	fmt.Printf("generation %d: %d projects\n", snapshot.Generation, snapshot.Len())
//
// # Freshness
//
// EnsureFresh is debounced: a snapshot completed less than Config.Debounce
// ago is reused without touching the disk, unless Invalidate was called
// since. Refresh always rebuilds.
//
//	idx.Invalidate()          // a store changed
//	idx.Prefetch(ctx)         // rebuild in the background
//	snap, _ := idx.EnsureFresh(ctx)
//
// # Concurrency
//
// Snapshots are published through an atomic pointer and never mutated, so
// Snapshot never blocks. Concurrent refreshes share one rebuild
// (golang.org/x/sync/singleflight). Stores are read concurrently with an
// errgroup limited to Config.ReadConcurrency.
//
// # Error Handling
//
// Store failures are isolated: a missing or malformed store contributes zero
// projects and the rebuild continues. Warnings are throttled per store.
//
// # Watching
//
// Watch observes the directories containing the stores with fsnotify and
// invalidates the index when a store file changes:
//
//	go idx.Watch(ctx, targets, indexer.DefaultWatchDelay)
package indexer
