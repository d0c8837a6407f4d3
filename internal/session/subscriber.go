package session

import (
	"context"

	"github.com/annel0/parkour-course/internal/eventbus"
	"github.com/annel0/parkour-course/internal/world/block"
)

// signalTypes события хоста, которые обрабатывает менеджер
var signalTypes = []string{
	eventbus.TypePlayerJoined,
	eventbus.TypePlayerLeft,
	eventbus.TypePlayerReset,
	eventbus.TypeBlockCollision,
	eventbus.TypePositionUpdate,
}

// Subscribe подключает менеджер к шине входящих сигналов.
// Шина доставляет события по порядку, поэтому вход игрока (с загрузкой
// прогресса) завершается раньше, чем обрабатываются его касания.
func (m *Manager) Subscribe(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	return bus.Subscribe(ctx, eventbus.Filter{Types: signalTypes}, m.HandleEnvelope)
}

// HandleEnvelope разбирает конверт и передаёт сигнал в менеджер
func (m *Manager) HandleEnvelope(ctx context.Context, ev *eventbus.Envelope) {
	switch ev.EventType {
	case eventbus.TypePlayerJoined:
		p, err := eventbus.Decode[eventbus.PlayerJoined](ev)
		if err != nil {
			m.dropped(ev, err)
			return
		}
		if err := m.Join(ctx, p.PlayerID); err != nil {
			m.log.Error("❌ Join of %q failed: %v", p.PlayerID, err)
		}

	case eventbus.TypePlayerLeft:
		p, err := eventbus.Decode[eventbus.PlayerLeft](ev)
		if err != nil {
			m.dropped(ev, err)
			return
		}
		m.Leave(p.PlayerID)

	case eventbus.TypePlayerReset:
		p, err := eventbus.Decode[eventbus.PlayerReset](ev)
		if err != nil {
			m.dropped(ev, err)
			return
		}
		m.HandleReset(ctx, p.PlayerID, p.Reason)

	case eventbus.TypeBlockCollision:
		p, err := eventbus.Decode[eventbus.BlockCollision](ev)
		if err != nil {
			m.dropped(ev, err)
			return
		}
		if p.BlockID < 0 || p.BlockID > 0xFFFF {
			return
		}
		m.HandleContact(ctx, p.PlayerID, block.BlockID(p.BlockID), p.Started, p.Position)

	case eventbus.TypePositionUpdate:
		p, err := eventbus.Decode[eventbus.PositionUpdate](ev)
		if err != nil {
			m.dropped(ev, err)
			return
		}
		m.HandlePosition(ctx, p.PlayerID, p.Position, p.Velocity)
	}
}

func (m *Manager) dropped(ev *eventbus.Envelope, err error) {
	m.log.Warn("⚠️ Dropping %s event %s: %v", ev.EventType, ev.ID, err)
}
