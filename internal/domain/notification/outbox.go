package notification

import (
	"context"
	"time"

	"github.com/meshit/meshit/internal/effects"
	"github.com/meshit/meshit/internal/events"
)

// Notifier stores a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Outbox hands notifications and realtime events to background effects.
// Neither Send nor Publish blocks, and their failures never reach the caller.
type Outbox struct {
	notifier  Notifier
	publisher events.Publisher
	launcher  effects.Launcher
}

// NewOutbox creates an Outbox. A nil notifier or publisher disables that half.
func NewOutbox(notifier Notifier, publisher events.Publisher, launcher effects.Launcher) *Outbox {
	return &Outbox{notifier: notifier, publisher: publisher, launcher: launcher}
}

// Send schedules delivery of n.
func (o *Outbox) Send(n Notification) {
	if o == nil || o.notifier == nil || o.launcher == nil {
		return
	}
	o.launcher.Go(effects.Effect{
		Name: "notification." + string(n.Type),
		Run: func(ctx context.Context) error {
			return o.notifier.Notify(ctx, n)
		},
	})
}

// Publish schedules fan-out of e to realtime subscribers.
func (o *Outbox) Publish(e events.Event) {
	if o == nil || o.publisher == nil || o.launcher == nil {
		return
	}
	o.launcher.Go(effects.Effect{
		Name:  "event." + e.Type,
		Retry: effects.RetryPolicy{Retries: 1, Backoff: 200 * time.Millisecond},
		Run: func(ctx context.Context) error {
			return o.publisher.Publish(ctx, e)
		},
	})
}
