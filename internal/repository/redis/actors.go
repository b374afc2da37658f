package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"school-sos-go/internal/domain/access"
	"school-sos-go/pkg/logger"
)

// ActorCache shares resolved actors between instances. Redis failures
// degrade to cache misses; the staff directory stays the source of truth.
type ActorCache struct {
	client *goredis.Client
	prefix string
	log    logger.Logger
}

type cachedActor struct {
	ID       string   `json:"id"`
	Role     string   `json:"role"`
	TenantID string   `json:"tenant_id,omitempty"`
	ClassIDs []string `json:"class_ids,omitempty"`
}

func NewActorCache(client *goredis.Client, log logger.Logger) *ActorCache {
	if log == nil {
		log = logger.Nop()
	}
	return &ActorCache{client: client, prefix: "school-sos:actor:", log: log}
}

func (c *ActorCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}

func (c *ActorCache) Get(ctx context.Context, id string) (access.Actor, bool) {
	value, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return access.Actor{}, false
	}
	if err != nil {
		c.log.Warn("actor cache get failed", "staff_id", id, "err", err)
		return access.Actor{}, false
	}

	var cached cachedActor
	if err := json.Unmarshal(value, &cached); err != nil {
		c.log.Warn("actor cache entry unreadable", "staff_id", id, "err", err)
		return access.Actor{}, false
	}
	role, ok := access.ParseRole(cached.Role)
	if !ok {
		return access.Actor{}, false
	}
	return access.Actor{ID: cached.ID, Role: role, TenantID: cached.TenantID, ClassIDs: cached.ClassIDs}, true
}

func (c *ActorCache) Set(ctx context.Context, id string, actor access.Actor, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(ctx, id)
		return
	}
	data, err := json.Marshal(cachedActor{
		ID:       actor.ID,
		Role:     string(actor.Role),
		TenantID: actor.TenantID,
		ClassIDs: actor.ClassIDs,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(id), data, ttl).Err(); err != nil {
		c.log.Warn("actor cache set failed", "staff_id", id, "err", err)
	}
}

func (c *ActorCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.Warn("actor cache delete failed", "staff_id", id, "err", err)
	}
}
