package app

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/parkour-course/internal/config"
	"github.com/annel0/parkour-course/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Type = "memory"
	cfg.EventBus.Type = "memory"
	cfg.Admin.Enabled = false
	cfg.Server.MetricsPort = 0
	cfg.Course.GeneratorCount = 4
	return cfg
}

func TestBuildRules(t *testing.T) {
	cfg := testConfig().Course
	rules, err := BuildRules(cfg)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rules.FallThreshold)
	assert.Equal(t, 0.3, rules.Conveyor.PushImpulse)

	cfg.Conveyors = map[int]string{20: "up"}
	_, err = BuildRules(cfg)
	assert.Error(t, err)
}

func TestLoadMap_Generated(t *testing.T) {
	cfg := testConfig().Course
	m, err := LoadMap(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Blocks)

	cfg.MapPath = t.TempDir() + "/missing.json"
	_, err = LoadMap(cfg)
	assert.Error(t, err)
}

func TestNew_UnknownStorage(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Type = "tape"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestApp_JoinOverBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, testConfig())
	require.NoError(t, err)
	defer a.Close(context.Background())
	require.Equal(t, 4, a.Course.Len())

	teleports := make(chan eventbus.Teleport, 4)
	_, err = a.Outbound.Subscribe(ctx, eventbus.Filter{Types: []string{eventbus.TypeTeleport}}, func(_ context.Context, ev *eventbus.Envelope) {
		tp, err := eventbus.Decode[eventbus.Teleport](ev)
		if err == nil {
			teleports <- tp
		}
	})
	require.NoError(t, err)

	_, err = a.Start(ctx)
	require.NoError(t, err)

	ev, err := eventbus.NewEnvelope("test", eventbus.TypePlayerJoined, eventbus.PlayerJoined{PlayerID: "p1"})
	require.NoError(t, err)
	require.NoError(t, a.Inbound.Publish(ctx, ev))

	select {
	case tp := <-teleports:
		assert.Equal(t, "p1", tp.PlayerID)
		assert.Equal(t, a.Course.SpawnFor(0), tp.Position)
		assert.True(t, tp.ZeroVelocity)
	case <-time.After(2 * time.Second):
		t.Fatal("no teleport after join")
	}

	p, ok := a.Sessions.Progress("p1")
	require.True(t, ok)
	assert.Equal(t, 0, p.Index)
}

func TestApp_CloseDeliversAcceptedSignals(t *testing.T) {
	startCtx, cancel := context.WithCancel(context.Background())

	a, err := New(startCtx, testConfig())
	require.NoError(t, err)
	_, err = a.Start(startCtx)
	require.NoError(t, err)

	inbound := a.Inbound
	players := []string{"a1", "a2", "a3"}
	for _, id := range players {
		ev, err := eventbus.NewEnvelope("test", eventbus.TypePlayerJoined, eventbus.PlayerJoined{PlayerID: id})
		require.NoError(t, err)
		require.NoError(t, inbound.Publish(context.Background(), ev))
	}

	// Остановка по сигналу: контекст старта отменён раньше Close
	cancel()
	a.Close(context.Background())

	for _, id := range players {
		p, ok := a.Sessions.Progress(id)
		require.True(t, ok, "вход %s потерян при остановке", id)
		assert.Equal(t, 0, p.Index)
	}

	ev, err := eventbus.NewEnvelope("test", eventbus.TypePlayerJoined, eventbus.PlayerJoined{PlayerID: "late"})
	require.NoError(t, err)
	assert.ErrorIs(t, inbound.Publish(context.Background(), ev), eventbus.ErrBusClosed)
}
