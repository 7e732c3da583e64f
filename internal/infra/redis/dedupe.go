package redis

import (
	"context"
	"time"
)

// EventDeduper marks webhook deliveries as seen. Keys expire after the
// retention TTL; the SQL status guard backstops anything that outlives it.
type EventDeduper struct {
	cli *Client
	ttl time.Duration
}

func NewEventDeduper(c *Client, ttl time.Duration) *EventDeduper {
	return &EventDeduper{cli: c, ttl: ttl}
}

// Seen reports whether the key was recorded within the TTL window. It never
// consumes the key, so a delivery that fails downstream stays retriable.
func (d *EventDeduper) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.cli.Exists(ctx, key)
	return n > 0, err
}

// MarkSeen records the key once the delivery has been applied.
func (d *EventDeduper) MarkSeen(ctx context.Context, key string) error {
	return d.cli.Set(ctx, key, 1, d.ttl)
}
