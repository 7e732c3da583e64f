package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.NotificationDispatcher = (*AsyncDispatcher)(nil)

// AsyncDispatcher delivers notifications on a background goroutine so a slow
// or failing delivery channel can never hold up, or roll back, a settlement
// state transition.
type AsyncDispatcher struct {
	sink adapter.NotificationDispatcher
	log  *zerolog.Logger
}

func NewAsyncDispatcher(sink adapter.NotificationDispatcher, logger *zerolog.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{sink: sink, log: logger}
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, n adapter.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.sink.Dispatch(ctx, n)
	}()
}

var _ adapter.NotificationDispatcher = (*LogDispatcher)(nil)

// LogDispatcher is the default sink: it records the notification and nothing
// else. Real channels (email, push) slot in behind the same port.
type LogDispatcher struct {
	log *zerolog.Logger
}

func NewLogDispatcher(logger *zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, n adapter.Notification) {
	d.log.Info().Str("kind", string(n.Kind)).Str("entity_id", n.EntityID).
		Str("user_id", n.UserID).Str("event", n.Event).Msg("notification dispatched")
}
