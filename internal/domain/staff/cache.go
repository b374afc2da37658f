package staff

import (
	"context"
	"time"

	"school-sos-go/internal/domain/access"
)

// ActorCache holds resolved actors for a short TTL. Entries are dropped on
// every staff or roster mutation; the TTL bounds staleness across instances.
type ActorCache interface {
	Get(ctx context.Context, id string) (access.Actor, bool)
	Set(ctx context.Context, id string, actor access.Actor, ttl time.Duration)
	Delete(ctx context.Context, id string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (access.Actor, bool) {
	return access.Actor{}, false
}

func (noopCache) Set(context.Context, string, access.Actor, time.Duration) {}

func (noopCache) Delete(context.Context, string) {}
