package session

import (
	"github.com/annel0/parkour-course/internal/progression"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics Prometheus-метрики прогресса игроков
type Metrics struct {
	Touches        *prometheus.CounterVec
	Recoveries     *prometheus.CounterVec
	ConveyorPushes prometheus.Counter
	PersistWrites  *prometheus.CounterVec
	JoinRestores   *prometheus.CounterVec
	ActivePlayers  prometheus.Gauge
}

// NewMetrics регистрирует метрики в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Touches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkour",
			Name:      "checkpoint_touches_total",
			Help:      "Касания чекпоинтов по результату.",
		}, []string{"result"}),
		Recoveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkour",
			Name:      "recoveries_total",
			Help:      "Возвраты на чекпоинт по причине.",
		}, []string{"cause"}),
		ConveyorPushes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "parkour",
			Name:      "conveyor_pushes_total",
			Help:      "Импульсы конвейеров.",
		}),
		PersistWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkour",
			Name:      "persist_writes_total",
			Help:      "Записи прогресса в хранилище по результату.",
		}, []string{"result"}),
		JoinRestores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkour",
			Name:      "join_restores_total",
			Help:      "Восстановление прогресса при входе.",
		}, []string{"result"}),
		ActivePlayers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "parkour",
			Name:      "active_players",
			Help:      "Игроки на трассе.",
		}),
	}
}

// Результаты восстановления при входе
const (
	restoreNew      = "new"
	restoreExact    = "restored"
	restoreFallback = "fallback"
	restoreCorrupt  = "corrupt"
	restoreError    = "error"
)

// observe учитывает итог перехода
func (m *Metrics) observe(outcome progression.Outcome) {
	switch outcome {
	case progression.OutcomeAdvance, progression.OutcomeRefresh,
		progression.OutcomeRejectedBehind, progression.OutcomeRejectedSkip:
		m.Touches.WithLabelValues(string(outcome)).Inc()
	case progression.OutcomeRecoverHazard:
		m.Recoveries.WithLabelValues("hazard").Inc()
	case progression.OutcomeRecoverFall:
		m.Recoveries.WithLabelValues("fall").Inc()
	case progression.OutcomeRecoverReset:
		m.Recoveries.WithLabelValues("reset").Inc()
	case progression.OutcomeConveyor:
		m.ConveyorPushes.Inc()
	}
}

// ObservePersist учитывает результат фоновой записи (для AsyncOptions.OnResult)
func (m *Metrics) ObservePersist(_ string, err error) {
	if err != nil {
		m.PersistWrites.WithLabelValues("error").Inc()
		return
	}
	m.PersistWrites.WithLabelValues("ok").Inc()
}
