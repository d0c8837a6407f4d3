package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) handle(_ context.Context, ev *Envelope) {
	r.mu.Lock()
	r.events = append(r.events, ev.ID)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestMemoryBus_OrderedDelivery(t *testing.T) {
	bus := NewMemoryBus(256)
	rec := &recorder{}
	_, err := bus.Subscribe(context.Background(), Filter{}, rec.handle)
	require.NoError(t, err)

	want := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ev := &Envelope{ID: fmt.Sprintf("ev-%d", i), Priority: PriorityGameplay}
		want = append(want, ev.ID)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}

	// Close доставляет всё принятое
	require.NoError(t, bus.Close())
	assert.Equal(t, want, rec.snapshot(), "порядок доставки совпадает с порядком публикации")

	stats := bus.Metrics()
	assert.Equal(t, uint64(100), stats.Published)
	assert.Equal(t, uint64(100), stats.Consumed)
}

func TestMemoryBus_Filter(t *testing.T) {
	bus := NewMemoryBus(16)
	joined := &recorder{}
	fromHost := &recorder{}
	_, _ = bus.Subscribe(context.Background(), Filter{Types: []string{TypePlayerJoined}}, joined.handle)
	_, _ = bus.Subscribe(context.Background(), Filter{Sources: []string{"host"}}, fromHost.handle)

	_ = bus.Publish(context.Background(), &Envelope{ID: "1", EventType: TypePlayerJoined, Source: "host"})
	_ = bus.Publish(context.Background(), &Envelope{ID: "2", EventType: TypePlayerLeft, Source: "host"})
	_ = bus.Publish(context.Background(), &Envelope{ID: "3", EventType: TypePlayerJoined, Source: "admin"})
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{"1", "3"}, joined.snapshot())
	assert.Equal(t, []string{"1", "2"}, fromHost.snapshot())
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)
	rec := &recorder{}
	sub, _ := bus.Subscribe(context.Background(), Filter{}, rec.handle)
	sub.Unsubscribe()

	_ = bus.Publish(context.Background(), &Envelope{ID: "1"})
	require.NoError(t, bus.Close())
	assert.Empty(t, rec.snapshot())
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	_, _ = bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
	})

	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "busy", Priority: 9}))
	<-started // диспетчер занят первым событием
	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "queued", Priority: 9}))

	// Буфер полон: низкий приоритет отбрасывается без ошибки
	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "low", Priority: 1}))
	assert.Equal(t, uint64(1), bus.Metrics().Dropped)

	// Высокий приоритет ждёт, пока не отменён контекст
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, &Envelope{ID: "high", Priority: 9})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(context.Background(), &Envelope{ID: "late"}), ErrBusClosed)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	ev, err := NewEnvelope("host", TypeBlockCollision, BlockCollision{
		PlayerID: "alice",
		BlockID:  15,
		Started:  true,
		Position: vec.Vec3Float{X: 0, Y: 11, Z: 8},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, PayloadVersion, ev.Version)
	assert.Equal(t, PriorityGameplay, ev.Priority)

	got, err := Decode[BlockCollision](ev)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.PlayerID)
	assert.True(t, got.Started)
	assert.Equal(t, 11.0, got.Position.Y)

	other, err := NewEnvelope("host", TypeBlockCollision, BlockCollision{})
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, other.ID)

	_, err = Decode[BlockCollision](&Envelope{EventType: TypeBlockCollision, Payload: []byte("{")})
	assert.Error(t, err)
}

func TestMetricsExporter_Collect(t *testing.T) {
	bus := NewMemoryBus(16)
	reg := prometheus.NewRegistry()
	me, err := NewMetricsExporter(bus, "in", reg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_ = bus.Publish(context.Background(), &Envelope{})
	}
	require.NoError(t, bus.Close())

	prev := me.collect(Stats{})
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published))
	me.collect(prev)
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published), "повторный сбор без новых событий не меняет счётчик")

	_, err = NewMetricsExporter(bus, "in", reg)
	assert.Error(t, err, "повторная регистрация той же шины")

	_, err = NewMetricsExporter(bus, "out", reg)
	assert.NoError(t, err, "другая шина регистрируется с другой меткой")
}

func TestSubjectPrefix(t *testing.T) {
	assert.Equal(t, "parkour.in", SubjectPrefix("PARKOUR_IN"))
}
