package app

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"storefront/internal/adapters/observability"
	"storefront/internal/domain"
)

// Session is one viewer's aggregator and the projector reading from it.
type Session struct {
	ID        string
	Core      *Aggregator
	Projector *Projector
}

// Sessions keeps sessions alive for ttl since their last use. The
// active-sessions gauge follows creation, deletion and expiry.
type Sessions struct {
	transport domain.ReviewTransport
	store     *gocache.Cache
	ttl       time.Duration
}

func NewSessions(t domain.ReviewTransport, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	store := gocache.New(ttl, ttl/2)
	store.OnEvicted(func(string, any) { observability.SetActiveSessions(store.ItemCount()) })
	return &Sessions{
		transport: t,
		store:     store,
		ttl:       ttl,
	}
}

func (s *Sessions) New() *Session {
	core := NewAggregator(s.transport)
	sess := &Session{
		ID:        uuid.NewString(),
		Core:      core,
		Projector: NewProjector(core),
	}
	s.store.Set(sess.ID, sess, s.ttl)
	observability.SetActiveSessions(s.store.ItemCount())
	return sess
}

// Get returns the session and slides its expiry.
func (s *Sessions) Get(id string) (*Session, bool) {
	v, ok := s.store.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.store.Set(id, sess, s.ttl)
	return sess, true
}

func (s *Sessions) Delete(id string) { s.store.Delete(id) }

func (s *Sessions) Len() int { return s.store.ItemCount() }
