package feed

import (
	"context"

	"github.com/mcoot/playerregistry/internal/model"
)

// Notifier receives registry change events.
// Implementations must not block the caller for long; the registry calls
// Notify after every successful mutation.
type Notifier interface {
	Notify(ctx context.Context, event model.ChangeEvent)
}

// Nop discards all events
type Nop struct{}

func (Nop) Notify(context.Context, model.ChangeEvent) {}

// Multi fans events out to several notifiers in order
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event model.ChangeEvent) {
	for _, n := range m {
		n.Notify(ctx, event)
	}
}

// NotifierFunc adapts a function to a Notifier
type NotifierFunc func(ctx context.Context, event model.ChangeEvent)

func (f NotifierFunc) Notify(ctx context.Context, event model.ChangeEvent) {
	f(ctx, event)
}
