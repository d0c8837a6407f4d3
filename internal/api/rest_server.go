package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/parkour-course/internal/auth"
	"github.com/annel0/parkour-course/internal/course"
	"github.com/annel0/parkour-course/internal/logging"
	"github.com/annel0/parkour-course/internal/middleware"
	"github.com/annel0/parkour-course/internal/session"
	"github.com/annel0/parkour-course/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Version версия, отдаваемая в /api/server
const Version = "v0.3.0"

// ProgressService то, что админке нужно от менеджера сессий
type ProgressService interface {
	Course() *course.Course
	Players() []session.Progress
	Progress(playerID string) (session.Progress, bool)
	SavedCheckpoint(ctx context.Context, playerID string) (storage.Record, bool, error)
	ClearSavedCheckpoint(ctx context.Context, playerID string) error
}

// RestServer представляет админский REST API сервер
type RestServer struct {
	router   *gin.Engine
	server   *http.Server
	sessions ProgressService
	auth     *auth.Authenticator
	metrics  *ServerMetrics
	log      *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr     string                // адрес для запуска сервера
	Sessions ProgressService       // менеджер сессий
	Auth     *auth.Authenticator   // проверка bearer-токенов
	Registry prometheus.Registerer // куда регистрировать HTTP-метрики
	Gatherer prometheus.Gatherer   // откуда отдавать /metrics
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Sessions == nil {
		return nil, errors.New("api: sessions are required")
	}
	if config.Auth == nil {
		return nil, errors.New("api: authenticator is required")
	}
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("admin_api"))

	log := logging.GetAPILogger()
	router.Use(middleware.NewRequestLogger(log).Handler())

	promMw := middleware.NewPrometheusMiddleware("admin_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:   router,
		sessions: config.Sessions,
		auth:     config.Auth,
		metrics:  NewServerMetrics(),
		log:      log,
	}
	rs.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()

	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	rs.router.GET("/health", rs.handleHealth)

	// Все эндпоинты /api только для администраторов
	api := rs.router.Group("/api")
	api.Use(rs.jwtMiddleware(), rs.adminMiddleware())
	{
		api.GET("/server", rs.handleServerInfo)
		api.GET("/course", rs.handleCourse)
		api.GET("/players", rs.handlePlayers)
		api.GET("/players/:id", rs.handlePlayer)
		api.GET("/players/:id/checkpoint", rs.handleGetCheckpoint)
		api.DELETE("/players/:id/checkpoint", rs.handleDeleteCheckpoint)
	}
}

// Handler возвращает http.Handler (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CourseInfo описание трассы
type CourseInfo struct {
	Checkpoints []course.Checkpoint `json:"checkpoints"`
	Conveyors   []course.Conveyor   `json:"conveyors"`
}

// PlayerInfo состояние игрока: онлайн-прогресс и сохранённый чекпоинт
type PlayerInfo struct {
	PlayerID string            `json:"player_id"`
	Online   *session.Progress `json:"online,omitempty"`
	Saved    *storage.Record   `json:"saved,omitempty"`
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().Unix(),
		"players": len(rs.sessions.Players()),
	})
}

// handleServerInfo возвращает информацию о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	cpuPercent, err := rs.metrics.GetCPUUsage()
	if err != nil {
		rs.log.Debug("CPU usage unavailable: %v", err)
	}

	info := map[string]interface{}{
		"version":     Version,
		"name":        "Parkour Course Server",
		"status":      "running",
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.1f", rs.metrics.GetMemoryUsage()),
		"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
		"runtime":     rs.metrics.GetDetailedMemoryStats(),
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleCourse возвращает упорядоченные чекпоинты и конвейеры
func (rs *RestServer) handleCourse(c *gin.Context) {
	crs := rs.sessions.Course()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Чекпоинтов: %d", crs.Len()),
		Data: CourseInfo{
			Checkpoints: crs.Checkpoints(),
			Conveyors:   crs.Conveyors(),
		},
	})
}

// handlePlayers возвращает прогресс подключённых игроков
func (rs *RestServer) handlePlayers(c *gin.Context) {
	players := rs.sessions.Players()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Игроков онлайн: %d", len(players)),
		Data:    players,
	})
}

// handlePlayer возвращает онлайн-прогресс и сохранённый чекпоинт игрока
func (rs *RestServer) handlePlayer(c *gin.Context) {
	playerID, ok := rs.playerParam(c)
	if !ok {
		return
	}

	info := PlayerInfo{PlayerID: playerID}
	if p, online := rs.sessions.Progress(playerID); online {
		info.Online = &p
	}
	rec, found, err := rs.sessions.SavedCheckpoint(c.Request.Context(), playerID)
	if err != nil {
		rs.storageError(c, playerID, err)
		return
	}
	if found {
		info.Saved = &rec
	}

	if info.Online == nil && info.Saved == nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Игрок не найден",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние игрока",
		Data:    info,
	})
}

// handleGetCheckpoint возвращает сохранённый чекпоинт игрока
func (rs *RestServer) handleGetCheckpoint(c *gin.Context) {
	playerID, ok := rs.playerParam(c)
	if !ok {
		return
	}

	rec, found, err := rs.sessions.SavedCheckpoint(c.Request.Context(), playerID)
	if err != nil {
		rs.storageError(c, playerID, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Сохранённый чекпоинт не найден",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сохранённый чекпоинт",
		Data:    rec,
	})
}

// handleDeleteCheckpoint удаляет сохранённый прогресс; действует со следующего входа
func (rs *RestServer) handleDeleteCheckpoint(c *gin.Context) {
	playerID, ok := rs.playerParam(c)
	if !ok {
		return
	}

	if err := rs.sessions.ClearSavedCheckpoint(c.Request.Context(), playerID); err != nil {
		rs.storageError(c, playerID, err)
		return
	}

	rs.log.Info("🧹 Checkpoint of %s cleared by %s", playerID, c.GetString(ctxOperator))
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сохранённый чекпоинт удалён",
	})
}

func (rs *RestServer) playerParam(c *gin.Context) (string, bool) {
	playerID := c.Param("id")
	if err := storage.ValidatePlayerID(playerID); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный идентификатор игрока",
		})
		return "", false
	}
	return playerID, true
}

func (rs *RestServer) storageError(c *gin.Context, playerID string, err error) {
	rs.log.Error("❌ Storage error for %s: %v", playerID, err)
	c.JSON(http.StatusInternalServerError, GenericResponse{
		Success: false,
		Message: "Ошибка хранилища",
	})
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 Admin API listening on %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь завершения активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
