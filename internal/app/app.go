// Package app собирает процесс сервера трассы из конфигурации:
// карта и индекс трассы, хранилище, шины событий, менеджер сессий,
// админский API и метрики.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/parkour-course/internal/api"
	"github.com/annel0/parkour-course/internal/auth"
	"github.com/annel0/parkour-course/internal/config"
	"github.com/annel0/parkour-course/internal/course"
	"github.com/annel0/parkour-course/internal/eventbus"
	"github.com/annel0/parkour-course/internal/host"
	"github.com/annel0/parkour-course/internal/logging"
	"github.com/annel0/parkour-course/internal/progression"
	"github.com/annel0/parkour-course/internal/session"
	"github.com/annel0/parkour-course/internal/storage"
	"github.com/annel0/parkour-course/internal/world"
	"github.com/annel0/parkour-course/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source имя сервиса в исходящих событиях
const Source = "parkour-course"

const busCapacity = 1024

// App запущенный экземпляр сервера трассы
type App struct {
	cfg      *config.Config
	log      *logging.Logger
	registry *prometheus.Registry

	Course   *course.Course
	Inbound  eventbus.EventBus // сигналы хоста: вход, контакты, позиции
	Outbound eventbus.EventBus // команды хосту: телепорт, импульс, сообщения
	Sessions *session.Manager

	repo       storage.CheckpointRepo
	writer     *storage.AsyncWriter
	exporters  []*eventbus.MetricsExporter
	exporting  bool
	subs       []eventbus.Subscription
	admin      *api.RestServer
	metricsSrv *http.Server
}

// New собирает все компоненты. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	a = &App{
		cfg:      cfg,
		log:      logging.GetComponentLogger("app"),
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// === ТРАССА ===
	rules, err := BuildRules(cfg.Course)
	if err != nil {
		return nil, err
	}
	m, err := LoadMap(cfg.Course)
	if err != nil {
		return nil, err
	}
	a.Course = course.Build(m.Blocks, rules.Markers)
	if a.Course.Empty() {
		a.log.Warn("⚠️ Map has no checkpoints, players will spawn at %v", course.FallbackSpawn)
	}
	a.log.Info("🏁 Course ready: %d checkpoints, %d conveyors", a.Course.Len(), len(a.Course.Conveyors()))

	// === ХРАНИЛИЩЕ ===
	a.repo, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	metrics := session.NewMetrics(a.registry)
	a.writer = storage.NewAsyncWriter(a.repo, storage.AsyncOptions{
		Timeout:  time.Duration(cfg.Storage.WriteTimeout) * time.Millisecond,
		OnResult: metrics.ObservePersist,
	})

	// === ШИНЫ СОБЫТИЙ ===
	if a.Inbound, err = openBus(cfg.EventBus, "IN"); err != nil {
		return nil, err
	}
	if a.Outbound, err = openBus(cfg.EventBus, "OUT"); err != nil {
		return nil, err
	}
	for name, bus := range map[string]eventbus.EventBus{"inbound": a.Inbound, "outbound": a.Outbound} {
		exp, err := eventbus.NewMetricsExporter(bus, name, a.registry)
		if err != nil {
			return nil, err
		}
		a.exporters = append(a.exporters, exp)
	}

	// === СЕССИИ ===
	machine := progression.New(a.Course, rules)
	a.Sessions = session.NewManager(machine, host.NewBusHost(a.Outbound, Source), a.writer, session.Options{
		RestoreThreshold: cfg.Course.RestoreThreshold,
		Metrics:          metrics,
	})

	// === АДМИНКА ===
	if cfg.Admin.Enabled {
		authenticator, err := newAuthenticator(cfg.Admin, a.log)
		if err != nil {
			return nil, err
		}
		a.admin, err = api.NewRestServer(api.Config{
			Addr:     ":" + strconv.Itoa(cfg.Server.AdminPort),
			Sessions: a.Sessions,
			Auth:     authenticator,
			Registry: a.registry,
			Gatherer: a.registry,
		})
		if err != nil {
			return nil, err
		}
	} else if cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		a.metricsSrv = &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Server.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return a, nil
}

// Registry реестр метрик процесса
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Start подписывает менеджер на входящие сигналы и запускает HTTP-серверы.
// Ошибки HTTP-серверов после старта приходят в возвращаемый канал.
func (a *App) Start(ctx context.Context) (<-chan error, error) {
	for _, exp := range a.exporters {
		exp.Start()
	}
	a.exporting = true

	// Подписки живут до Close, а не до отмены ctx: при остановке шина
	// дорабатывает уже принятые сигналы.
	subCtx := context.WithoutCancel(ctx)
	for name, bus := range map[string]eventbus.EventBus{"inbound": a.Inbound, "outbound": a.Outbound} {
		sub, err := eventbus.StartLoggingListener(subCtx, bus, name)
		if err != nil {
			return nil, err
		}
		a.subs = append(a.subs, sub)
	}

	sub, err := a.Sessions.Subscribe(subCtx, a.Inbound)
	if err != nil {
		return nil, err
	}
	a.subs = append(a.subs, sub)

	errCh := make(chan error, 2)
	if a.admin != nil {
		go func() {
			if err := a.admin.Start(); err != nil {
				errCh <- fmt.Errorf("admin api: %w", err)
			}
		}()
	}
	if a.metricsSrv != nil {
		go func() {
			a.log.Info("📊 Metrics listening on %s", a.metricsSrv.Addr)
			if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics: %w", err)
			}
		}()
	}

	a.log.Info("✅ Course server started (storage=%s, eventbus=%s)", a.cfg.Storage.Type, a.cfg.EventBus.Type)
	return errCh, nil
}

// Close останавливает компоненты в обратном порядке. Входящая шина
// закрывается до отписки менеджера, поэтому принятые сигналы обрабатываются.
// Очередь записи дописывается до закрытия хранилища.
func (a *App) Close(ctx context.Context) {
	if a.admin != nil {
		if err := a.admin.Stop(ctx); err != nil {
			a.log.Error("❌ Admin API shutdown: %v", err)
		}
	}
	if a.metricsSrv != nil {
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			a.log.Error("❌ Metrics server shutdown: %v", err)
		}
	}

	// Входящая шина первой: её обработчики ещё пишут в исходящую
	for _, bus := range []eventbus.EventBus{a.Inbound, a.Outbound} {
		if bus == nil {
			continue
		}
		if err := bus.Close(); err != nil {
			a.log.Warn("⚠️ Event bus close: %v", err)
		}
	}
	for _, sub := range a.subs {
		sub.Unsubscribe()
	}
	a.subs = nil
	if a.exporting {
		for _, exp := range a.exporters {
			exp.Stop()
		}
		a.exporting = false
	}
	a.Inbound, a.Outbound = nil, nil

	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.log.Error("❌ Checkpoint writer close: %v", err)
		}
		a.writer = nil
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Error("❌ Checkpoint storage close: %v", err)
		}
		a.repo = nil
	}
}

// BuildRules собирает маркеры и параметры автомата из конфигурации
func BuildRules(cfg config.CourseConfig) (progression.Rules, error) {
	markers, err := block.NewMarkers(cfg.CheckpointIDs, cfg.HazardIDs, cfg.Conveyors)
	if err != nil {
		return progression.Rules{}, err
	}
	return progression.Rules{
		Markers:       markers,
		FallThreshold: cfg.FallThreshold,
		Conveyor: course.ConveyorParams{
			PushImpulse:     cfg.ConveyorPush,
			OpposeThreshold: cfg.ConveyorOppose,
			Damping:         cfg.ConveyorDamping,
		},
	}, nil
}

// LoadMap читает карту из файла или генерирует её, если путь не задан
func LoadMap(cfg config.CourseConfig) (*world.Map, error) {
	log := logging.GetComponentLogger("app")
	if cfg.MapPath != "" {
		m, err := world.LoadMapFile(cfg.MapPath)
		if err != nil {
			return nil, fmt.Errorf("load map %s: %w", cfg.MapPath, err)
		}
		log.Info("🗺️ Map loaded from %s: %d blocks", cfg.MapPath, len(m.Blocks))
		return m, nil
	}

	m := world.NewCourseGenerator(cfg.GeneratorSeed, cfg.GeneratorCount).Generate()
	log.Info("🗺️ Map generated (seed=%d, checkpoints=%d): %d blocks", cfg.GeneratorSeed, cfg.GeneratorCount, len(m.Blocks))
	return m, nil
}

func openBus(cfg config.EventBusConfig, direction string) (eventbus.EventBus, error) {
	switch cfg.Type {
	case "", "memory":
		return eventbus.NewMemoryBus(busCapacity), nil
	case "nats":
		stream := cfg.Stream + "_" + direction
		bus, err := eventbus.NewJetStreamBus(cfg.URL, stream, eventbus.SubjectPrefix(stream), time.Duration(cfg.Retention)*time.Hour)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unknown eventbus type %q", cfg.Type)
	}
}

func newAuthenticator(cfg config.AdminConfig, log *logging.Logger) (*auth.Authenticator, error) {
	if cfg.JWTSecret != "" {
		return auth.NewAuthenticator(cfg.JWTSecret)
	}
	log.Warn("⚠️ Admin JWT secret is not set, using a random one: tokens will not survive restart")
	return auth.NewRandomAuthenticator()
}
