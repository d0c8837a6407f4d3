// Package session связывает автомат прогресса с игровой средой: хранит
// состояние каждого подключённого игрока, восстанавливает прогресс при входе
// и исполняет действия переходов (телепорт, сообщения, запись в хранилище).
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/annel0/parkour-course/internal/course"
	"github.com/annel0/parkour-course/internal/host"
	"github.com/annel0/parkour-course/internal/logging"
	"github.com/annel0/parkour-course/internal/progression"
	"github.com/annel0/parkour-course/internal/storage"
	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/parkour-course/internal/session"

// Store хранилище прогресса, как его видит сессия: чтение ждём, запись нет
type Store interface {
	Load(ctx context.Context, playerID string) (storage.Record, bool, error)
	Enqueue(playerID string, rec storage.Record)
	Delete(ctx context.Context, playerID string) error
}

// Options параметры менеджера
type Options struct {
	RestoreThreshold float64
	Metrics          *Metrics
	Tracer           trace.Tracer
}

// Session запись одного подключённого игрока
type Session struct {
	PlayerID string
	JoinedAt time.Time

	mu    sync.Mutex
	state progression.State
}

// State возвращает текущее состояние прогресса
func (s *Session) State() progression.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress снимок прогресса игрока для API
type Progress struct {
	PlayerID   string        `json:"player_id"`
	Index      int           `json:"index"`
	Position   vec.Vec3Float `json:"position"`
	Percentage float64       `json:"percentage"`
	JoinedAt   time.Time     `json:"joined_at"`
}

// ProgressPayload UI-пакет прогресса
type ProgressPayload struct {
	Type       string  `json:"type"`
	Stage      int     `json:"stage"`
	Percentage float64 `json:"percentage"`
}

// Manager владеет сессиями игроков, ключ - идентификатор игрока
type Manager struct {
	machine *progression.Machine
	host    host.Host
	store   Store
	opts    Options
	log     *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager создаёт менеджер сессий
func NewManager(machine *progression.Machine, h host.Host, store Store, opts Options) *Manager {
	if opts.RestoreThreshold <= 0 {
		opts.RestoreThreshold = course.DefaultRestoreThreshold
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	return &Manager{
		machine:  machine,
		host:     h,
		store:    store,
		opts:     opts,
		log:      logging.GetSessionLogger(),
		sessions: make(map[string]*Session),
	}
}

// Course индекс трассы
func (m *Manager) Course() *course.Course {
	return m.machine.Course()
}

// Join загружает сохранённый прогресс (с ожиданием), создаёт сессию и
// переносит игрока на чекпоинт. Ошибки хранилища не мешают входу.
func (m *Manager) Join(ctx context.Context, playerID string) error {
	if err := storage.ValidatePlayerID(playerID); err != nil {
		return err
	}

	ctx, span := m.opts.Tracer.Start(ctx, "session.join", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	index, restored := m.restore(ctx, span, playerID)
	state := m.machine.InitialState(index)

	sess := &Session{PlayerID: playerID, JoinedAt: time.Now().UTC(), state: state}

	m.mu.Lock()
	_, rejoin := m.sessions[playerID]
	m.sessions[playerID] = sess
	active := len(m.sessions)
	m.mu.Unlock()

	if rejoin {
		m.log.Warn("⚠️ Player %s joined twice, previous session replaced", playerID)
	}
	m.opts.Metrics.ActivePlayers.Set(float64(active))

	span.SetAttributes(
		attribute.Int("checkpoint.index", state.Index),
		attribute.Bool("checkpoint.restored", restored),
	)

	sess.mu.Lock()
	tr := m.machine.Spawn(sess.state, restored)
	sess.state = tr.State
	sess.mu.Unlock()

	m.execute(ctx, playerID, tr.Actions)
	m.log.Info("👤 Player %s joined at checkpoint %d/%d (restored=%v)",
		playerID, state.Index+1, m.machine.Course().Len(), restored)
	return nil
}

// restore сопоставляет сохранённую запись с трассой; 0 и false при любой проблеме
func (m *Manager) restore(ctx context.Context, span trace.Span, playerID string) (int, bool) {
	rec, found, err := m.store.Load(ctx, playerID)
	switch {
	case errors.Is(err, storage.ErrCorruptRecord):
		m.log.Warn("⚠️ Corrupt checkpoint record for %s, starting from the first checkpoint: %v", playerID, err)
		m.opts.Metrics.JoinRestores.WithLabelValues(restoreCorrupt).Inc()
		return 0, false
	case err != nil:
		m.log.Error("❌ Failed to load checkpoint for %s: %v", playerID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkpoint load failed")
		m.opts.Metrics.JoinRestores.WithLabelValues(restoreError).Inc()
		return 0, false
	case !found:
		m.opts.Metrics.JoinRestores.WithLabelValues(restoreNew).Inc()
		return 0, false
	}

	index, ok := m.machine.Course().ResolveSaved(rec.CheckpointPosition, m.opts.RestoreThreshold)
	if !ok {
		m.log.Warn("⚠️ Saved position %v of %s is far from the course, starting over",
			rec.CheckpointPosition, playerID)
		m.opts.Metrics.JoinRestores.WithLabelValues(restoreFallback).Inc()
		return 0, false
	}

	m.opts.Metrics.JoinRestores.WithLabelValues(restoreExact).Inc()
	return index, true
}

// Leave удаляет сессию игрока
func (m *Manager) Leave(playerID string) bool {
	m.mu.Lock()
	_, ok := m.sessions[playerID]
	delete(m.sessions, playerID)
	active := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.opts.Metrics.ActivePlayers.Set(float64(active))
		m.log.Info("👋 Player %s left", playerID)
	}
	return ok
}

// HandleContact начало или конец контакта с блоком
func (m *Manager) HandleContact(ctx context.Context, playerID string, blockID block.BlockID, started bool, at vec.Vec3Float) {
	m.step(ctx, playerID, progression.BlockContact{Block: blockID, Started: started, Position: at})
}

// HandlePosition позиция игрока на тике
func (m *Manager) HandlePosition(ctx context.Context, playerID string, position, velocity vec.Vec3Float) {
	m.step(ctx, playerID, progression.PositionUpdate{Position: position, Velocity: velocity})
}

// HandleReset явный запрос возврата на чекпоинт
func (m *Manager) HandleReset(ctx context.Context, playerID, reason string) {
	m.step(ctx, playerID, progression.ResetRequest{Reason: reason})
}

func (m *Manager) step(ctx context.Context, playerID string, sig progression.Signal) {
	sess, ok := m.session(playerID)
	if !ok {
		// Сигнал до входа или после выхода
		m.log.Debug("signal %T for unknown player %s ignored", sig, playerID)
		return
	}

	sess.mu.Lock()
	tr := m.machine.Step(sess.state, sig)
	sess.state = tr.State
	sess.mu.Unlock()

	m.opts.Metrics.observe(tr.Outcome)
	if tr.Outcome != progression.OutcomeNone && tr.Outcome != progression.OutcomeConveyor {
		m.log.Debug("player %s: %s -> checkpoint %d", playerID, tr.Outcome, tr.State.Index)
	}
	m.execute(ctx, playerID, tr.Actions)
}

// execute выполняет действия перехода. Ошибка одного действия не прерывает остальные.
func (m *Manager) execute(ctx context.Context, playerID string, actions []progression.Action) {
	for _, action := range actions {
		var err error
		switch a := action.(type) {
		case progression.Teleport:
			var rot *vec.Quat
			if a.HasYaw {
				q := vec.YawQuat(a.Yaw)
				rot = &q
			}
			err = m.host.Teleport(ctx, playerID, a.Position, rot)
		case progression.ApplyImpulse:
			err = m.host.ApplyImpulse(ctx, playerID, a.Impulse)
		case progression.Persist:
			m.store.Enqueue(playerID, storage.Record{CheckpointPosition: a.Position})
		case progression.Notify:
			err = m.host.SendMessage(ctx, playerID, string(a.Kind), a.Text, a.Color)
		case progression.ProgressUpdate:
			err = m.host.SendUI(ctx, playerID, ProgressPayload{
				Type:       "progress-update",
				Stage:      a.Stage,
				Percentage: a.Percentage,
			})
		}
		if err != nil {
			m.log.Error("❌ Action %T for %s failed: %v", action, playerID, err)
		}
	}
}

func (m *Manager) session(playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[playerID]
	return s, ok
}

// Progress снимок прогресса подключённого игрока
func (m *Manager) Progress(playerID string) (Progress, bool) {
	sess, ok := m.session(playerID)
	if !ok {
		return Progress{}, false
	}
	return m.snapshot(sess), true
}

// Players снимки всех подключённых игроков, по идентификатору
func (m *Manager) Players() []Progress {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Progress, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, m.snapshot(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

func (m *Manager) snapshot(s *Session) Progress {
	st := s.State()
	return Progress{
		PlayerID:   s.PlayerID,
		Index:      st.Index,
		Position:   st.Position,
		Percentage: m.machine.Course().Percentage(st.Index),
		JoinedAt:   s.JoinedAt,
	}
}

// SavedCheckpoint сохранённая позиция игрока (в т.ч. не подключённого)
func (m *Manager) SavedCheckpoint(ctx context.Context, playerID string) (storage.Record, bool, error) {
	return m.store.Load(ctx, playerID)
}

// ClearSavedCheckpoint удаляет сохранённый прогресс. Текущая сессия не меняется,
// сброс вступает в силу при следующем входе.
func (m *Manager) ClearSavedCheckpoint(ctx context.Context, playerID string) error {
	if err := m.store.Delete(ctx, playerID); err != nil {
		return err
	}
	m.log.Info("🧹 Saved checkpoint of %s cleared", playerID)
	return nil
}
