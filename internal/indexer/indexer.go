package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/store"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

var indexLog = logging.ForComponent(logging.CompIndex)

const (
	// DefaultDebounce is the quiet window after a refresh
	DefaultDebounce = 5 * time.Second

	// DefaultReadConcurrency bounds concurrent store reads
	DefaultReadConcurrency = 4

	// warnInterval throttles warnings for a failing store
	warnInterval = time.Minute

	refreshKey = "refresh"
)

// Indexer rebuilds the project index from a set of store readers.
//
// The current snapshot is published through an atomic pointer, so readers
// never block on a rebuild. Concurrent refreshes are coalesced into one.
type Indexer struct {
	readers []store.Reader
	warn    []*rate.Sometimes // per reader
	config  Config

	current atomic.Pointer[types.ProjectIndex]

	// inputSeq counts invalidations; a rebuild records the value it started with
	inputSeq atomic.Uint64

	publishMu   sync.Mutex
	builtSeq    uint64    // input sequence of the published snapshot
	completedAt time.Time // zero until the first refresh

	flight   singleflight.Group
	prefetch IndexLock

	now func() time.Time
}

// Config contains configuration for the indexer
type Config struct {
	Debounce        time.Duration // Quiet window after a refresh; 0 disables debouncing
	ReadConcurrency int           // Concurrent store reads (default: DefaultReadConcurrency)
}

// DefaultConfig returns the default indexer configuration
func DefaultConfig() Config {
	return Config{
		Debounce:        DefaultDebounce,
		ReadConcurrency: DefaultReadConcurrency,
	}
}

// Statistics describes one rebuild
type Statistics struct {
	Stores       int
	StoresFailed int
	Projects     int
	Generation   uint64
	Duration     time.Duration
}

// refreshResult is shared by all callers of one coalesced rebuild
type refreshResult struct {
	index *types.ProjectIndex
	seq   uint64
}

// New creates a new Indexer over readers, starting with an empty snapshot
func New(readers []store.Reader, config Config) *Indexer {
	if config.ReadConcurrency <= 0 {
		config.ReadConcurrency = DefaultReadConcurrency
	}
	if config.Debounce < 0 {
		config.Debounce = 0
	}

	idx := &Indexer{
		readers: readers,
		warn:    make([]*rate.Sometimes, len(readers)),
		config:  config,
		now:     time.Now,
	}
	for i := range idx.warn {
		idx.warn[i] = &rate.Sometimes{Interval: warnInterval}
	}
	idx.current.Store(types.EmptyIndex())
	return idx
}

// Snapshot returns the latest published snapshot without refreshing
func (idx *Indexer) Snapshot() *types.ProjectIndex {
	return idx.current.Load()
}

// Invalidate marks the current snapshot stale, so the next EnsureFresh reads
// the stores even within the debounce window.
func (idx *Indexer) Invalidate() {
	idx.inputSeq.Add(1)
}

// EnsureFresh returns the current snapshot if it was built within the quiet
// window and nothing invalidated it since; otherwise it refreshes.
func (idx *Indexer) EnsureFresh(ctx context.Context) (*types.ProjectIndex, error) {
	if idx.fresh() {
		indexLog.Debug("refresh_debounced", slog.Uint64("generation", idx.Snapshot().Generation))
		return idx.Snapshot(), nil
	}
	return idx.Refresh(ctx)
}

func (idx *Indexer) fresh() bool {
	if idx.config.Debounce == 0 {
		return false
	}
	idx.publishMu.Lock()
	defer idx.publishMu.Unlock()
	if idx.completedAt.IsZero() || idx.builtSeq != idx.inputSeq.Load() {
		return false
	}
	return idx.now().Sub(idx.completedAt) < idx.config.Debounce
}

// Refresh rebuilds the index from all stores and returns the published
// snapshot.
//
// Callers arriving while a rebuild runs share its result, unless they saw
// an invalidation the running rebuild did not; those wait for the next one.
// The rebuild itself is detached from ctx, so an abandoned refresh still
// publishes for later callers.
func (idx *Indexer) Refresh(ctx context.Context) (*types.ProjectIndex, error) {
	want := idx.inputSeq.Load()
	for {
		ch := idx.flight.DoChan(refreshKey, func() (interface{}, error) {
			return idx.rebuild(context.WithoutCancel(ctx))
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			r := res.Val.(refreshResult)
			if r.seq >= want {
				return r.index, nil
			}
		}
	}
}

// Prefetch starts a background refresh unless one is already pending.
// It reports whether a refresh was started.
func (idx *Indexer) Prefetch(ctx context.Context) bool {
	if !idx.prefetch.TryAcquire() {
		return false
	}
	go func() {
		defer idx.prefetch.Release()
		if _, err := idx.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			indexLog.Warn("prefetch_failed", slog.String("error", err.Error()))
		}
	}()
	return true
}

// rebuild reads all stores and publishes a new snapshot
func (idx *Indexer) rebuild(ctx context.Context) (refreshResult, error) {
	start := idx.now()
	seq := idx.inputSeq.Load()

	records, failed, err := idx.readAll(ctx)
	if err != nil {
		return refreshResult{}, fmt.Errorf("failed to read stores: %w", err)
	}
	merged := merge(records)

	idx.publishMu.Lock()
	defer idx.publishMu.Unlock()

	prev := idx.current.Load()
	if seq < idx.builtSeq {
		// Built from older input than the published snapshot
		indexLog.Debug("refresh_discarded",
			slog.Uint64("input_seq", seq),
			slog.Uint64("published_seq", idx.builtSeq))
		return refreshResult{index: prev, seq: idx.builtSeq}, nil
	}

	now := idx.now()
	next := types.NewProjectIndex(prev.Generation+1, now, merged)
	idx.current.Store(next)
	idx.builtSeq = seq
	idx.completedAt = now

	stats := Statistics{
		Stores:       len(idx.readers),
		StoresFailed: failed,
		Projects:     next.Len(),
		Generation:   next.Generation,
		Duration:     now.Sub(start),
	}
	indexLog.Debug("index_published",
		slog.Uint64("generation", stats.Generation),
		slog.Int("projects", stats.Projects),
		slog.Int("stores_failed", stats.StoresFailed),
		slog.Duration("duration", stats.Duration))

	return refreshResult{index: next, seq: seq}, nil
}

// readAll reads every store concurrently. A failing store contributes no
// records; only cancellation fails the whole read.
func (idx *Indexer) readAll(ctx context.Context) ([]types.ProjectRecord, int, error) {
	results := make([][]types.ProjectRecord, len(idx.readers))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.config.ReadConcurrency)

	for i, r := range idx.readers {
		g.Go(func() error {
			records, err := r.Read(gctx)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				idx.reportStoreError(i, r, err)
				return nil
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var all []types.ProjectRecord
	for _, records := range results {
		all = append(all, records...)
	}
	return all, int(failed.Load()), nil
}

// reportStoreError logs a store failure. Missing stores are expected for
// IDEs that were never started; other failures warn at most once per minute.
func (idx *Indexer) reportStoreError(i int, r store.Reader, err error) {
	attrs := []any{
		slog.String("variant", r.Variant()),
		slog.String("store", r.Path()),
		slog.String("error", err.Error()),
	}
	if errors.Is(err, types.ErrNotFound) {
		indexLog.Debug("store_missing", attrs...)
		return
	}
	logged := false
	idx.warn[i].Do(func() {
		logged = true
		indexLog.Warn("store_read_failed", attrs...)
	})
	if !logged {
		indexLog.Debug("store_read_failed", attrs...)
	}
}

// merge deduplicates records by variant and path, keeping the most recently
// opened one at the position of its first occurrence.
func merge(records []types.ProjectRecord) []types.ProjectRecord {
	type key struct{ variant, path string }

	pos := make(map[key]int, len(records))
	out := make([]types.ProjectRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			indexLog.Debug("record_skipped",
				slog.String("id", r.ID),
				slog.String("error", err.Error()))
			continue
		}
		k := key{r.Variant, r.Path}
		if i, ok := pos[k]; ok {
			if r.NewerThan(out[i]) {
				out[i] = r
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}
