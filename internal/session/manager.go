package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/launcher"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/searcher"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

var sessionLog = logging.ForComponent(logging.CompSession)

// DefaultRetainedSnapshots is the number of result-producing snapshots kept
// for resolving IDs after the index moved on
const DefaultRetainedSnapshots = 8

// Refresher provides project index snapshots
type Refresher interface {
	EnsureFresh(ctx context.Context) (*types.ProjectIndex, error)
	Snapshot() *types.ProjectIndex
}

// Config contains configuration for the manager
type Config struct {
	RetainedSnapshots int // default: DefaultRetainedSnapshots
}

// Manager runs the search sessions of one provider.
//
// At most one session is current. Starting a session cancels a running
// predecessor, whose results are then never delivered.
type Manager struct {
	app       launcher.App
	refresher Refresher
	launcher  launcher.Launcher

	mu      sync.Mutex
	current *session

	retained *lru.Cache[uint64, *types.ProjectIndex]
}

// New creates a manager answering queries for app
func New(app launcher.App, refresher Refresher, l launcher.Launcher, config Config) *Manager {
	size := config.RetainedSnapshots
	if size <= 0 {
		size = DefaultRetainedSnapshots
	}
	retained, err := lru.New[uint64, *types.ProjectIndex](size)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Manager{
		app:       app,
		refresher: refresher,
		launcher:  l,
		retained:  retained,
	}
}

// App returns the application this manager searches for
func (m *Manager) App() launcher.App {
	return m.app
}

// State returns the state of the current session, Idle if there is none
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Idle
	}
	return m.current.state
}

// GetInitialResultSet starts a new search for terms.
//
// It returns types.ErrStaleResult if the search was superseded by a newer
// one or aborted through ctx before it completed.
func (m *Manager) GetInitialResultSet(ctx context.Context, terms []string) ([]string, error) {
	s := m.begin(ctx, terms)
	return m.run(s, func(snap *types.ProjectIndex) []string {
		return searcher.Match(snap, terms)
	})
}

// GetSubsetResultSet narrows previous results to those matching terms.
//
// A subsearch belongs to the current session. If that session completed, its
// snapshot is searched again without refreshing; if it is still running,
// the subsearch waits for its snapshot. Only without a live session does a
// fresh search restricted to previous run.
func (m *Manager) GetSubsetResultSet(ctx context.Context, previous, terms []string) ([]string, error) {
	m.mu.Lock()
	cur := m.current
	var state State
	if cur != nil {
		state = cur.state
	}
	m.mu.Unlock()

	switch {
	case cur != nil && state == Running:
		select {
		case <-cur.done:
		case <-ctx.Done():
			return nil, types.ErrStaleResult
		}
		return m.narrow(cur, previous, terms)
	case cur != nil && state == Completed:
		return m.narrow(cur, previous, terms)
	}

	s := m.begin(ctx, terms)
	return m.run(s, func(snap *types.ProjectIndex) []string {
		return searcher.MatchSubset(snap, previous, terms)
	})
}

// narrow searches the snapshot of the completed session s again. s stays
// current and its results are replaced.
func (m *Manager) narrow(s *session, previous, terms []string) ([]string, error) {
	m.mu.Lock()
	if m.current != s || s.state != Completed {
		m.mu.Unlock()
		return nil, types.ErrStaleResult
	}
	snap := s.snapshot
	m.mu.Unlock()

	ids := searcher.MatchSubset(snap, previous, terms)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != s {
		return nil, types.ErrStaleResult
	}
	sessionLog.Debug("session_narrowed",
		slog.String("session", s.id),
		slog.Int("from", len(s.results)),
		slog.Int("to", len(ids)))
	s.results = ids
	return ids, nil
}

// Cancel aborts the current session if it is still running
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.state == Running {
		m.current.finish(Cancelled)
		sessionLog.Debug("session_cancelled", slog.String("session", m.current.id))
	}
}

// begin makes a new running session current, cancelling a running predecessor
func (m *Manager) begin(ctx context.Context, terms []string) *session {
	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		id:      uuid.NewString(),
		started: time.Now(),
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   Running,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.current; prev != nil && prev.state == Running {
		prev.finish(Cancelled)
		sessionLog.Debug("session_superseded",
			slog.String("session", prev.id),
			slog.String("by", s.id))
	}
	m.current = s

	sessionLog.Debug("session_started",
		slog.String("session", s.id),
		slog.Int("terms", len(terms)))
	return s
}

type refreshed struct {
	snapshot *types.ProjectIndex
	err      error
}

// run refreshes the index, matches and completes s. The refresh is detached
// from the session, so a cancelled session's refresh still finishes for the
// benefit of later queries.
func (m *Manager) run(s *session, match func(*types.ProjectIndex) []string) ([]string, error) {
	ch := make(chan refreshed, 1)
	go func() {
		snap, err := m.refresher.EnsureFresh(context.WithoutCancel(s.ctx))
		ch <- refreshed{snapshot: snap, err: err}
	}()

	var r refreshed
	select {
	case <-s.ctx.Done():
		return nil, m.abandon(s)
	case r = <-ch:
	}
	if r.err != nil {
		if s.ctx.Err() != nil {
			return nil, m.abandon(s)
		}
		m.abandon(s)
		return nil, fmt.Errorf("failed to refresh index: %w", r.err)
	}
	if s.ctx.Err() != nil {
		return nil, m.abandon(s)
	}

	ids := match(r.snapshot)
	if s.ctx.Err() != nil {
		return nil, m.abandon(s)
	}
	return m.complete(s, r.snapshot, ids)
}

// complete publishes the results of s unless it was cancelled meanwhile
func (m *Manager) complete(s *session, snap *types.ProjectIndex, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != s || s.state != Running || s.ctx.Err() != nil {
		s.finish(Cancelled)
		return nil, types.ErrStaleResult
	}

	s.snapshot = snap
	s.results = ids
	s.finish(Completed)
	m.retained.Add(snap.Generation, snap)

	sessionLog.Debug("session_completed",
		slog.String("session", s.id),
		slog.Uint64("generation", snap.Generation),
		slog.Int("results", len(ids)),
		slog.Duration("duration", time.Since(s.started)))
	return ids, nil
}

// abandon marks s cancelled and returns ErrStaleResult
func (m *Manager) abandon(s *session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.finish(Cancelled)
	s.cancel()
	return types.ErrStaleResult
}

// resolve finds the record for id in the current session's snapshot, then in
// retained snapshots newest first, then in the latest snapshot.
func (m *Manager) resolve(id string) (types.ProjectRecord, bool) {
	m.mu.Lock()
	var current *types.ProjectIndex
	if m.current != nil && m.current.state == Completed {
		current = m.current.snapshot
	}
	m.mu.Unlock()

	if r, ok := current.Get(id); ok {
		return r, true
	}

	keys := m.retained.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		snap, ok := m.retained.Peek(keys[i])
		if !ok {
			continue
		}
		if r, ok := snap.Get(id); ok {
			return r, true
		}
	}

	return m.refresher.Snapshot().Get(id)
}

// GetResultMetas returns display information for ids, omitting unknown ones
func (m *Manager) GetResultMetas(ids []string) []types.ResultMeta {
	metas := make([]types.ResultMeta, 0, len(ids))
	for _, id := range ids {
		r, ok := m.resolve(id)
		if !ok {
			sessionLog.Debug("result_unknown", slog.String("id", id))
			continue
		}
		metas = append(metas, types.MetaFor(r, m.app.Icon))
	}
	return metas
}

// ActivateResult opens the project behind id with the provider's app.
// Failures are logged and returned wrapping types.ErrActivationFailed.
func (m *Manager) ActivateResult(ctx context.Context, id string, terms []string, timestamp uint32) error {
	r, ok := m.resolve(id)
	if !ok {
		err := fmt.Errorf("%w: unknown result %s", types.ErrActivationFailed, id)
		sessionLog.Warn("activation_failed", slog.String("id", id), slog.String("error", err.Error()))
		return err
	}

	sessionLog.Info("activate_result",
		slog.String("id", id),
		slog.String("path", r.Path),
		slog.Uint64("timestamp", uint64(timestamp)))

	if err := m.launcher.Launch(ctx, m.app, launcher.FileURI(r.Path)); err != nil {
		sessionLog.Warn("activation_failed",
			slog.String("id", id),
			slog.String("app", m.app.DesktopID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", types.ErrActivationFailed, err)
	}
	return nil
}

// LaunchSearch starts the provider's app without opening a project
func (m *Manager) LaunchSearch(ctx context.Context, terms []string, timestamp uint32) error {
	sessionLog.Info("launch_search",
		slog.String("app", m.app.DesktopID),
		slog.Int("terms", len(terms)),
		slog.Uint64("timestamp", uint64(timestamp)))

	if err := m.launcher.Launch(ctx, m.app); err != nil {
		sessionLog.Warn("launch_failed",
			slog.String("app", m.app.DesktopID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", types.ErrActivationFailed, err)
	}
	return nil
}
