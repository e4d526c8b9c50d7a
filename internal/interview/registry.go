package interview

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Registry tracks the live orchestrator per session id. Idle sessions are
// evicted after a TTL and disposed so their timers and capture
// subscriptions do not leak.
type Registry struct {
	cache *cache.Cache
}

func NewRegistry() *Registry {
	c := cache.New(2*time.Hour, 15*time.Minute)
	c.OnEvicted(func(key string, value interface{}) {
		if o, ok := value.(*Orchestrator); ok {
			o.Dispose()
		}
	})
	return &Registry{cache: c}
}

func (r *Registry) Get(sessionID uuid.UUID) (*Orchestrator, bool) {
	if x, found := r.cache.Get(sessionID.String()); found {
		return x.(*Orchestrator), true
	}
	return nil, false
}

func (r *Registry) Put(sessionID uuid.UUID, o *Orchestrator) {
	r.cache.Set(sessionID.String(), o, cache.DefaultExpiration)
}

// Touch extends the TTL of an active session.
func (r *Registry) Touch(sessionID uuid.UUID) {
	if x, found := r.cache.Get(sessionID.String()); found {
		r.cache.Set(sessionID.String(), x, cache.DefaultExpiration)
	}
}

func (r *Registry) Remove(sessionID uuid.UUID) {
	if o, found := r.Get(sessionID); found {
		o.Dispose()
	}
	r.cache.Delete(sessionID.String())
}
