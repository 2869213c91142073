package viewer

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-hazard/internal/observability"
	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/service"
)

// Session is one open map page. Each page runs its own searches so a new
// search only cancels searches of the same page.
type Session struct {
	ID     string
	Search *search.Handler
}

// Sessions tracks the open map pages.
type Sessions struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	newSearch func(id string) *search.Handler
}

// NewSessions creates an empty registry.
func NewSessions(newSearch func(id string) *search.Handler) *Sessions {
	return &Sessions{
		sessions:  make(map[string]*Session),
		newSearch: newSearch,
	}
}

// Open returns the session with id, creating it if needed. An empty id
// gets a fresh random one. Only an event stream opens sessions.
func (s *Sessions) Open(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &Session{ID: id, Search: s.newSearch(id)}
	s.sessions[id] = sess
	return sess
}

// Lookup returns the session of an open page.
func (s *Sessions) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Remove forgets a session.
func (s *Sessions) Remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// busView moves a session's map view by publishing on the bus.
type busView struct {
	bus     *service.EventBus
	session string
}

func (v *busView) GoTo(ctx context.Context, target orb.Point, zoom float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.bus.Publish(service.Event{Kind: service.EventView, Session: v.session, Target: target, Zoom: zoom})
	return nil
}

// busPopups shows a session's popups by publishing on the bus.
type busPopups struct {
	bus     *service.EventBus
	session string
	metrics *observability.Metrics
}

func (p *busPopups) Open(ctx context.Context, popup search.Popup) {
	p.metrics.PopupsOpened.WithLabelValues(string(popup.Source)).Inc()
	p.bus.Publish(service.Event{Kind: service.EventPopup, Session: p.session, Popup: &popup})
}
