package cart

import (
	"sync"
	"time"
)

const DefaultIdleTTL = 2 * time.Hour

// Store owns the carts, keyed by visitor session id. Nothing is persisted.
type Store struct {
	mu      sync.Mutex
	carts   map[string]*Cart
	pricing Pricing
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(p Pricing, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Store{carts: make(map[string]*Cart), pricing: p, ttl: ttl, now: time.Now}
}

func (s *Store) Pricing() Pricing { return s.pricing }

// Get returns the cart for session, creating an empty one if needed.
func (s *Store) Get(session string) *Cart {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[session]
	if !ok || now.Sub(c.idleSince()) > s.ttl {
		c = New(s.pricing)
		s.carts[session] = c
	}
	c.touch(now)
	return c
}

// Peek returns the cart without creating or touching it.
func (s *Store) Peek(session string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[session]
	return c, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// Sweep drops carts idle longer than the TTL and returns how many went.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, c := range s.carts {
		if now.Sub(c.idleSince()) > s.ttl {
			delete(s.carts, id)
			n++
		}
	}
	return n
}
