package draft

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps drafts in process memory. Used when Redis is not
// configured; drafts then survive a page reload but not a server restart.
type MemoryStore struct {
	cache *cache.Cache
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	// Drafts expire after 24 hours, purge sweep every 10 minutes
	return &MemoryStore{
		cache: cache.New(24*time.Hour, 10*time.Minute),
	}
}

func (s *MemoryStore) Save(ctx context.Context, d *Draft) error {
	cp := *d
	s.cache.Set(d.SessionId.String(), &cp, cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID uuid.UUID) (*Draft, error) {
	if x, found := s.cache.Get(sessionID.String()); found {
		return x.(*Draft), nil
	}
	return nil, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	s.cache.Delete(sessionID.String())
	return nil
}
