package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pennypet/server/internal/realtime"
)

// watch streams snapshots produced by load: one right away, then one after each
// burst of notifications on topic. The channel closes when ctx is done or a
// reload fails; listeners resubscribe to recover.
func watch[T any](ctx context.Context, broker realtime.Broker, topic string, load func(context.Context) (T, error)) (<-chan T, error) {
	ctx, cancel := context.WithCancel(ctx)

	// Subscribe before the first load so no change between the two is lost
	events, err := broker.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	initial, err := load(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	out <- initial

	go func() {
		defer cancel()
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				for len(events) > 0 {
					<-events
				}

				snapshot, err := load(ctx)
				if err != nil {
					if ctx.Err() == nil {
						slog.Warn("failed to reload snapshot", "error", err, "topic", topic)
					}
					return
				}

				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func publish(ctx context.Context, broker realtime.Broker, topic, event string) {
	if broker == nil {
		return
	}

	err := broker.Publish(ctx, topic, event)
	if err != nil {
		slog.Warn("failed to publish change", "error", err, "topic", topic, "event", event)
	}
}
