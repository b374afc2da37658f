package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"school-sos-go/internal/domain/access"
)

type InMemoryActorCache struct {
	mu    sync.RWMutex
	items map[string]actorItem
	now   func() time.Time
}

type actorItem struct {
	value     access.Actor
	expiresAt time.Time
}

func NewInMemoryActorCache() *InMemoryActorCache {
	return &InMemoryActorCache{
		items: make(map[string]actorItem),
		now:   time.Now,
	}
}

func (c *InMemoryActorCache) Get(_ context.Context, id string) (access.Actor, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[id]
	c.mu.RUnlock()
	if !ok {
		return access.Actor{}, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[id]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, id)
		}
		c.mu.Unlock()
		return access.Actor{}, false
	}

	return cloneActor(item.value), true
}

func (c *InMemoryActorCache) Set(ctx context.Context, id string, actor access.Actor, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(ctx, id)
		return
	}

	c.mu.Lock()
	c.items[id] = actorItem{
		value:     cloneActor(actor),
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *InMemoryActorCache) Delete(_ context.Context, id string) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
}

func (c *InMemoryActorCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]actorItem)
	c.mu.Unlock()
}

func cloneActor(actor access.Actor) access.Actor {
	actor.ClassIDs = slices.Clone(actor.ClassIDs)
	return actor
}
