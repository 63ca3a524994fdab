package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix  = "webhook_event:"
	defaultTTL = 24 * time.Hour
)

// Dedup is the fast path of webhook idempotency: a SETNX per gateway
// event id. The durable ledger in Postgres is authoritative; this layer
// just absorbs the burst of immediate re-deliveries without a database
// round trip. Keys expire after a day, well past the gateway's retry
// window.
type Dedup struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewDedup(client *redis.Client) *Dedup {
	return &Dedup{Client: client, TTL: defaultTTL}
}

// MarkSeen records the event id and reports whether this is the first
// sighting. A Redis outage degrades to "first sighting" so processing
// falls through to the durable ledger instead of dropping events.
func (d *Dedup) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.Client.SetNX(ctx, keyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), d.TTL).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}

// Forget drops the marker, letting a failed event be retried before the
// TTL lapses.
func (d *Dedup) Forget(ctx context.Context, eventID string) error {
	err := d.Client.Del(ctx, keyPrefix+eventID).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
