package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/parkour-course/internal/app"
	"github.com/annel0/parkour-course/internal/config"
	"github.com/annel0/parkour-course/internal/logging"
	"github.com/annel0/parkour-course/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $PARKOUR_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("server", logging.Options{
		Level: cfg.Logging.Level,
		Dir:   cfg.Logging.Dir,
		JSON:  cfg.Logging.JSON,
	}); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🎮 Запуск сервера паркур-трассы...")
	logging.Info("📡 Конфигурация: admin=%v port=%d storage=%s eventbus=%s",
		cfg.Admin.Enabled, cfg.Server.AdminPort, cfg.Storage.Type, cfg.EventBus.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	server, err := app.New(ctx, cfg)
	if err != nil {
		logging.Error("❌ Ошибка инициализации сервера: %v", err)
		os.Exit(1)
	}

	errCh, err := server.Start(ctx)
	if err != nil {
		logging.Error("❌ Ошибка запуска сервера: %v", err)
		server.Close(context.Background())
		os.Exit(1)
	}

	if cfg.Admin.Enabled {
		logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.AdminPort)
		logging.Info("   📊 Метрики: http://localhost:%d/metrics", cfg.Server.AdminPort)
	}

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, остановка...")
	case err := <-errCh:
		logging.Error("❌ %v", err)
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server.Close(shutdownCtx)
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("⚠️ Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
