// Package host описывает внешнюю игровую среду: управление сущностью игрока
// и уведомления. BusHost отправляет команды в шину исходящих событий.
package host

import (
	"context"

	"github.com/annel0/parkour-course/internal/eventbus"
	"github.com/annel0/parkour-course/internal/vec"
)

// EntityControl управление сущностью игрока
type EntityControl interface {
	// Teleport переносит игрока, обнуляет скорость и, если rotation != nil, поворачивает.
	Teleport(ctx context.Context, playerID string, position vec.Vec3Float, rotation *vec.Quat) error
	// ApplyImpulse мгновенный импульс.
	ApplyImpulse(ctx context.Context, playerID string, impulse vec.Vec3Float) error
}

// Notifier сообщения и UI игроку
type Notifier interface {
	SendMessage(ctx context.Context, playerID, kind, text, color string) error
	SendUI(ctx context.Context, playerID string, data interface{}) error
}

// Host всё, что сессии нужно от игровой среды
type Host interface {
	EntityControl
	Notifier
}

// BusHost публикует команды в шину
type BusHost struct {
	bus    eventbus.EventBus
	source string
}

// NewBusHost создаёт хост поверх шины исходящих команд
func NewBusHost(bus eventbus.EventBus, source string) *BusHost {
	if source == "" {
		source = "parkour-course"
	}
	return &BusHost{bus: bus, source: source}
}

func (h *BusHost) publish(ctx context.Context, eventType string, payload interface{}) error {
	ev, err := eventbus.NewEnvelope(h.source, eventType, payload)
	if err != nil {
		return err
	}
	return h.bus.Publish(ctx, ev)
}

func (h *BusHost) Teleport(ctx context.Context, playerID string, position vec.Vec3Float, rotation *vec.Quat) error {
	return h.publish(ctx, eventbus.TypeTeleport, eventbus.Teleport{
		PlayerID:     playerID,
		Position:     position,
		Rotation:     rotation,
		ZeroVelocity: true,
	})
}

func (h *BusHost) ApplyImpulse(ctx context.Context, playerID string, impulse vec.Vec3Float) error {
	return h.publish(ctx, eventbus.TypeImpulse, eventbus.Impulse{PlayerID: playerID, Impulse: impulse})
}

func (h *BusHost) SendMessage(ctx context.Context, playerID, kind, text, color string) error {
	return h.publish(ctx, eventbus.TypePlayerMessage, eventbus.PlayerMessage{
		PlayerID: playerID,
		Kind:     kind,
		Text:     text,
		Color:    color,
	})
}

func (h *BusHost) SendUI(ctx context.Context, playerID string, data interface{}) error {
	return h.publish(ctx, eventbus.TypePlayerUI, eventbus.PlayerUI{PlayerID: playerID, Data: data})
}
