package session

import (
	"context"
	"time"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// State is the lifecycle state of a search session
type State int

const (
	Idle State = iota
	Running
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// session is one query of the shell, narrowed by its subsearches. Fields
// below done are guarded by the manager's mutex.
type session struct {
	id      string
	started time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{} // closed when the session leaves Running

	state    State
	snapshot *types.ProjectIndex // set on completion
	results  []string
}

// finish moves a running session to state. The caller holds the manager's mutex.
func (s *session) finish(state State) {
	if s.state != Running {
		return
	}
	s.state = state
	close(s.done)
	s.cancel()
}
