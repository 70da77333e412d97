package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robbykap/github-dashboard/common/id"
	"github.com/robbykap/github-dashboard/internal/drafting"
)

// ErrNotFound is returned when a session ID is unknown or already expired.
var ErrNotFound = errors.New("session not found")

const sweepInterval = 5 * time.Minute

// Registry holds live drafting sessions in memory. Drafts exist only for
// the duration of one conversation: nothing is persisted, and idle sessions
// are swept away after the configured timeout.
type Registry struct {
	deps        drafting.Deps
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[int64]*drafting.Session

	stop chan struct{}
	done chan struct{}
}

func NewRegistry(deps drafting.Deps, idleTimeout time.Duration) *Registry {
	r := &Registry{
		deps:        deps,
		idleTimeout: idleTimeout,
		sessions:    make(map[int64]*drafting.Session),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// Create starts a new drafting session scoped to a repository.
func (r *Registry) Create(repo string) *drafting.Session {
	s := drafting.NewSession(id.New(), repo, r.deps)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s
}

// Get returns the live session for the given ID.
func (r *Registry) Get(sessionID int64) (*drafting.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove discards a session and its draft.
func (r *Registry) Remove(sessionID int64) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Close stops the sweeper. Live sessions are dropped with the process.
func (r *Registry) Close() {
	close(r.stop)
	<-r.done
}

func (r *Registry) sweepLoop() {
	defer close(r.done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.idleTimeout)

	r.mu.Lock()
	var expired []int64
	for sid, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, sid)
			delete(r.sessions, sid)
		}
	}
	r.mu.Unlock()

	if len(expired) > 0 {
		slog.InfoContext(context.Background(), "expired idle drafting sessions",
			"count", len(expired))
	}
}
