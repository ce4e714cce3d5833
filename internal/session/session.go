// Package session tracks live register sessions. Each session owns one
// cart and one checkout coordinator; the registry serializes access per
// session and evicts sessions idle past their TTL.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pos-sales/internal/backend"
	"pos-sales/internal/cart"
	"pos-sales/internal/checkout"
	"pos-sales/internal/model"
	"pos-sales/internal/suggest"
)

// DefaultTTL is how long an idle session survives before eviction.
const DefaultTTL = 30 * time.Minute

// sweepInterval is how often the registry scans for expired sessions.
const sweepInterval = time.Minute

// Session is one register's live sale. All cart access goes through With
// so the coordinator never sees concurrent calls. Each session carries its
// own suggestion debouncer: latest-wins is scoped to one register's input
// stream, so typing at one register never supersedes queries at another.
type Session struct {
	ID string

	suggester *suggest.Debouncer

	mu       sync.Mutex
	coord    *checkout.Coordinator
	lastSeen time.Time
}

// Registry issues, resolves, and expires sessions.
type Registry struct {
	svc          backend.Service
	logger       *slog.Logger
	ttl          time.Duration
	suggestDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	stop chan struct{}
	done chan struct{}
}

// NewRegistry creates a session registry backed by the given service.
// A zero ttl selects DefaultTTL; a zero suggestDelay selects
// suggest.DefaultDelay for each session's debouncer. The eviction sweeper
// starts immediately; call Stop on shutdown.
func NewRegistry(svc backend.Service, ttl, suggestDelay time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		svc:          svc,
		logger:       logger,
		ttl:          ttl,
		suggestDelay: suggestDelay,
		sessions:     make(map[string]*Session),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Open creates a new session with an empty cart and returns it.
func (r *Registry) Open() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		coord:     checkout.New(cart.New(), r.svc, r.logger),
		suggester: suggest.New(r.svc, r.suggestDelay, r.logger),
		lastSeen:  time.Now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("session opened", "session_id", s.ID)
	return s
}

// Get resolves a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, model.NewNotFoundError("session")
	}
	return s, nil
}

// Close removes a session regardless of cart state.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return model.NewNotFoundError("session")
	}
	r.logger.Info("session closed", "session_id", id)
	return nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stop halts the eviction sweeper and waits for it to exit.
func (r *Registry) Stop() {
	close(r.stop)
	<-r.done
}

// With runs fn holding the session lock and refreshes the idle timer.
// The coordinator is single-register state; the lock is what makes
// concurrent HTTP and MCP calls against one session safe.
func (s *Session) With(fn func(c *checkout.Coordinator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return fn(s.coord)
}

// Suggest runs this session's debounced product search and refreshes the
// idle timer. Unlike With, the session lock is not held across the lookup:
// a newer query from the same register must be able to overtake one still
// in flight.
func (s *Session) Suggest(ctx context.Context, query string) ([]model.Product, bool, error) {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
	return s.suggester.Query(ctx, query)
}

func (r *Registry) sweep() {
	defer close(r.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictExpired(time.Now())
		}
	}
}

// evictExpired drops sessions idle longer than the TTL.
func (r *Registry) evictExpired(now time.Time) {
	r.mu.Lock()
	var expired []string
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen)
		s.mu.Unlock()
		if idle > r.ttl {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.logger.Info("session expired", "session_id", id)
	}
}
