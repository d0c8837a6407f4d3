package eventbus

import (
	"context"

	"github.com/annel0/parkour-course/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в debug-лог.
// Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus, name string) (Subscription, error) {
	log := logging.GetBusLogger().With("bus", name)
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		log.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	log.Info("🪵 LoggingListener: subscribed to all events")
	return sub, nil
}
