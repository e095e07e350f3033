package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/store"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// mockReader implements store.Reader for testing
type mockReader struct {
	variant string
	path    string

	mu      sync.Mutex
	records []types.ProjectRecord
	err     error
	reads   atomic.Int32
	block   chan struct{} // if set, Read waits for it to close
}

func newMockReader(variant string, records ...types.ProjectRecord) *mockReader {
	return &mockReader{variant: variant, path: "/tmp/" + variant + ".xml", records: records}
}

func (m *mockReader) Variant() string { return m.variant }

func (m *mockReader) Path() string { return m.path }

func (m *mockReader) Read(ctx context.Context) ([]types.ProjectRecord, error) {
	m.reads.Add(1)
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]types.ProjectRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *mockReader) set(records ...types.ProjectRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

func record(variant, path string, opened int64) types.ProjectRecord {
	return types.NewProjectRecord(variant, path[1:], path, time.Unix(opened, 0))
}

func TestNew(t *testing.T) {
	idx := New(nil, Config{})

	require.NotNil(t, idx)
	assert.Equal(t, DefaultReadConcurrency, idx.config.ReadConcurrency)
	assert.Equal(t, time.Duration(0), idx.config.Debounce)
	assert.Equal(t, uint64(0), idx.Snapshot().Generation)
	assert.Equal(t, 0, idx.Snapshot().Len())
}

func TestRefresh_IncrementsGeneration(t *testing.T) {
	r := newMockReader("idea", record("idea", "/a", 1))
	idx := New(readersOf(r), DefaultConfig())

	first, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, 1, first.Len())

	second, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Generation)
	assert.Same(t, second, idx.Snapshot())

	// The earlier snapshot is untouched
	assert.Equal(t, uint64(1), first.Generation)
	assert.True(t, first.Contains(types.ProjectID("idea", "/a")))
}

func TestRefresh_MergesDuplicates(t *testing.T) {
	a := newMockReader("idea",
		record("idea", "/a", 1),
		record("idea", "/b", 5),
		record("idea", "/a", 9),
	)
	b := newMockReader("goland", record("goland", "/a", 3))
	idx := New(readersOf(a, b), DefaultConfig())

	snap, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, snap.Len(), "same path in different variants stays distinct")

	rec, ok := snap.Get(types.ProjectID("idea", "/a"))
	require.True(t, ok)
	assert.Equal(t, time.Unix(9, 0), rec.LastOpened)
}

func TestRefresh_SkipsInvalidRecords(t *testing.T) {
	r := newMockReader("idea",
		record("idea", "/a", 1),
		types.ProjectRecord{ID: "bogus", Variant: "idea", Path: "relative"},
	)
	idx := New(readersOf(r), DefaultConfig())

	snap, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
}

func TestRefresh_IsolatesFailingStores(t *testing.T) {
	good := newMockReader("idea", record("idea", "/a", 1))
	missing := newMockReader("clion")
	missing.err = fmt.Errorf("%w: gone", types.ErrNotFound)
	broken := newMockReader("goland")
	broken.err = fmt.Errorf("%w: bad xml", types.ErrParse)

	idx := New(readersOf(missing, good, broken), DefaultConfig())

	snap, err := idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())

	// Repeated failures are still isolated while warnings are throttled
	snap, err = idx.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
}

func TestEnsureFresh_Debounced(t *testing.T) {
	r := newMockReader("idea", record("idea", "/a", 1))
	idx := New(readersOf(r), Config{Debounce: time.Minute})

	now := time.Unix(1000, 0)
	idx.now = func() time.Time { return now }

	first, err := idx.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), r.reads.Load())

	now = now.Add(30 * time.Second)
	second, err := idx.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second, "within the quiet window")
	assert.Equal(t, int32(1), r.reads.Load())

	now = now.Add(time.Minute)
	third, err := idx.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), third.Generation)
	assert.Equal(t, int32(2), r.reads.Load())
}

func TestEnsureFresh_InvalidateForcesRead(t *testing.T) {
	r := newMockReader("idea", record("idea", "/a", 1))
	idx := New(readersOf(r), Config{Debounce: time.Hour})

	_, err := idx.EnsureFresh(context.Background())
	require.NoError(t, err)

	r.set(record("idea", "/a", 1), record("idea", "/b", 2))
	idx.Invalidate()

	snap, err := idx.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, int32(2), r.reads.Load())
}

func TestEnsureFresh_ZeroDebounceAlwaysReads(t *testing.T) {
	r := newMockReader("idea")
	idx := New(readersOf(r), Config{Debounce: 0})

	for i := 0; i < 3; i++ {
		_, err := idx.EnsureFresh(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), r.reads.Load())
}

func TestRefresh_ConcurrentCallsCoalesce(t *testing.T) {
	r := newMockReader("idea", record("idea", "/a", 1))
	r.block = make(chan struct{})
	idx := New(readersOf(r), DefaultConfig())

	const callers = 8
	results := make([]*types.ProjectIndex, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := idx.Refresh(context.Background())
			assert.NoError(t, err)
			results[i] = snap
		}()
	}

	require.Eventually(t, func() bool { return r.reads.Load() == 1 }, time.Second, time.Millisecond)
	// Give the other callers time to join the running rebuild
	time.Sleep(20 * time.Millisecond)
	close(r.block)
	wg.Wait()

	assert.Equal(t, int32(1), r.reads.Load())
	for _, snap := range results {
		assert.Same(t, results[0], snap)
	}
	assert.Equal(t, uint64(1), idx.Snapshot().Generation)
}

func TestRefresh_InvalidationDuringRebuild(t *testing.T) {
	r := newMockReader("idea", record("idea", "/a", 1))
	r.block = make(chan struct{})
	idx := New(readersOf(r), DefaultConfig())

	done := make(chan *types.ProjectIndex)
	go func() {
		snap, _ := idx.Refresh(context.Background())
		done <- snap
	}()
	require.Eventually(t, func() bool { return r.reads.Load() == 1 }, time.Second, time.Millisecond)

	idx.Invalidate()
	late := make(chan *types.ProjectIndex)
	go func() {
		snap, _ := idx.Refresh(context.Background())
		late <- snap
	}()

	close(r.block)
	first := <-done
	second := <-late

	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, uint64(2), second.Generation, "an invalidated caller waits for a newer rebuild")
	assert.Equal(t, int32(2), r.reads.Load())
}

func TestRefresh_CallerCancellation(t *testing.T) {
	r := newMockReader("idea", record("idea", "/a", 1))
	r.block = make(chan struct{})
	idx := New(readersOf(r), DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() {
		_, err := idx.Refresh(ctx)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return r.reads.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// The detached rebuild still publishes
	close(r.block)
	require.Eventually(t, func() bool { return idx.Snapshot().Generation == 1 }, time.Second, time.Millisecond)
}

func TestPrefetch(t *testing.T) {
	r := newMockReader("idea", record("idea", "/a", 1))
	r.block = make(chan struct{})
	idx := New(readersOf(r), DefaultConfig())

	assert.True(t, idx.Prefetch(context.Background()))
	assert.False(t, idx.Prefetch(context.Background()), "already running")

	close(r.block)
	require.Eventually(t, func() bool {
		return idx.Snapshot().Generation == 1 && !idx.prefetch.Held()
	}, time.Second, time.Millisecond)

	assert.True(t, idx.Prefetch(context.Background()))
}

func TestIndexLock(t *testing.T) {
	var l IndexLock

	assert.True(t, l.TryAcquire())
	assert.True(t, l.Held())
	assert.False(t, l.TryAcquire())

	l.Release()
	assert.False(t, l.Held())
	assert.True(t, l.TryAcquire())
}

func TestMerge_KeepsFirstPosition(t *testing.T) {
	merged := merge([]types.ProjectRecord{
		record("idea", "/a", 1),
		record("idea", "/b", 2),
		record("idea", "/a", 3),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "/a", merged[0].Path)
	assert.Equal(t, time.Unix(3, 0), merged[0].LastOpened)
	assert.Equal(t, "/b", merged[1].Path)
}

func readersOf(readers ...*mockReader) []store.Reader {
	out := make([]store.Reader, len(readers))
	for i, r := range readers {
		out[i] = r
	}
	return out
}
