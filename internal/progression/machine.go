// Package progression реализует конечный автомат прогресса игрока по трассе:
// монотонное продвижение по чекпоинтам и возврат на чекпоинт после опасности.
// Пакет не делает I/O: переход это чистая функция (состояние, сигнал) -> (состояние', действия).
package progression

import (
	"fmt"

	"github.com/annel0/parkour-course/internal/course"
	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world/block"
)

// DefaultFallThreshold на сколько блоков ниже чекпоинта считается падением с трассы
const DefaultFallThreshold = 50.0

// State состояние прогресса одного игрока: Idle-at-checkpoint(Index)
type State struct {
	Index    int           `json:"index"`
	Position vec.Vec3Float `json:"position"`
}

// Outcome итог перехода (для метрик и логов)
type Outcome string

const (
	OutcomeNone           Outcome = "none"
	OutcomeSpawn          Outcome = "spawn"
	OutcomeRefresh        Outcome = "refresh"
	OutcomeAdvance        Outcome = "advance"
	OutcomeRejectedBehind Outcome = "rejected_behind"
	OutcomeRejectedSkip   Outcome = "rejected_skip"
	OutcomeRecoverHazard  Outcome = "recover_hazard"
	OutcomeRecoverFall    Outcome = "recover_fall"
	OutcomeRecoverReset   Outcome = "recover_reset"
	OutcomeConveyor       Outcome = "conveyor"
)

// Transition результат одного шага автомата
type Transition struct {
	State   State
	Actions []Action
	Outcome Outcome
}

// Rules параметры автомата
type Rules struct {
	Markers       block.Markers
	FallThreshold float64
	Conveyor      course.ConveyorParams
}

// DefaultRules правила по умолчанию
func DefaultRules() Rules {
	return Rules{
		Markers:       block.DefaultMarkers(),
		FallThreshold: DefaultFallThreshold,
		Conveyor:      course.DefaultConveyorParams(),
	}
}

// Machine автомат поверх неизменяемого индекса трассы.
// Сам не хранит состояние игроков и безопасен для общего использования.
type Machine struct {
	course *course.Course
	rules  Rules
}

// New создаёт автомат
func New(c *course.Course, rules Rules) *Machine {
	return &Machine{course: c, rules: rules}
}

// Course возвращает индекс трассы
func (m *Machine) Course() *course.Course {
	return m.course
}

// InitialState состояние на чекпоинте index (или на запасной точке для пустой трассы)
func (m *Machine) InitialState(index int) State {
	if _, ok := m.course.Checkpoint(index); !ok {
		index = 0
	}
	return State{Index: index, Position: m.course.SpawnFor(index)}
}

// Spawn действия при входе игрока: перенос на чекпоинт, приветствие и прогресс.
// restored: прогресс восстановлен из хранилища.
func (m *Machine) Spawn(s State, restored bool) Transition {
	actions := []Action{
		m.teleport(s),
		Notify{Kind: NoticeWelcome, Text: welcomeText, Color: ColorInfo},
	}
	if restored {
		actions = append(actions, Notify{
			Kind:  NoticeRestored,
			Text:  fmt.Sprintf("Progress restored: checkpoint %d/%d.", s.Index+1, m.course.Len()),
			Color: ColorSuccess,
		})
	}
	actions = append(actions, m.progress(s))
	return Transition{State: s, Actions: actions, Outcome: OutcomeSpawn}
}

// Step один переход автомата
func (m *Machine) Step(s State, sig Signal) Transition {
	switch sig := sig.(type) {
	case BlockContact:
		return m.onContact(s, sig)
	case PositionUpdate:
		return m.onPosition(s, sig)
	case ResetRequest:
		return m.recover(s, OutcomeRecoverReset)
	default:
		return Transition{State: s, Outcome: OutcomeNone}
	}
}

func (m *Machine) onContact(s State, sig BlockContact) Transition {
	if !sig.Started {
		return Transition{State: s, Outcome: OutcomeNone}
	}

	switch {
	case m.rules.Markers.IsHazard(sig.Block):
		return m.recover(s, OutcomeRecoverHazard)
	case m.rules.Markers.IsCheckpoint(sig.Block):
		return m.touch(s, sig.Position)
	default:
		return Transition{State: s, Outcome: OutcomeNone}
	}
}

// touch касание маркера чекпоинта: обновление, шаг вперёд или отказ
func (m *Machine) touch(s State, at vec.Vec3Float) Transition {
	j, ok := m.course.AtPosition(at)
	if !ok {
		// Коллизия без опоры на чекпоинт считается шумом
		return Transition{State: s, Outcome: OutcomeNone}
	}

	switch {
	case j == s.Index || j == s.Index+1:
		outcome := OutcomeRefresh
		if j != s.Index {
			outcome = OutcomeAdvance
		}
		cp, _ := m.course.Checkpoint(j)
		next := State{Index: j, Position: cp.Spawn}
		return Transition{
			State: next,
			Actions: []Action{
				Persist{Position: next.Position},
				Notify{
					Kind:  NoticeSaved,
					Text:  fmt.Sprintf("Checkpoint %d/%d saved!", j+1, m.course.Len()),
					Color: ColorSuccess,
				},
				m.progress(next),
			},
			Outcome: outcome,
		}

	case j < s.Index:
		return Transition{
			State: s,
			Actions: []Action{Notify{
				Kind:  NoticeCannotGoBack,
				Text:  "You cannot go back to a previous checkpoint!",
				Color: ColorWarning,
			}},
			Outcome: OutcomeRejectedBehind,
		}

	default:
		return Transition{
			State: s,
			Actions: []Action{Notify{
				Kind:  NoticeOutOfOrder,
				Text:  fmt.Sprintf("You must reach checkpoints in order! Next is checkpoint %d.", s.Index+2),
				Color: ColorWarning,
			}},
			Outcome: OutcomeRejectedSkip,
		}
	}
}

// onPosition проверяет падение на каждом тике, иначе применяет конвейер
func (m *Machine) onPosition(s State, sig PositionUpdate) Transition {
	if sig.Position.Y < s.Position.Y-m.rules.FallThreshold {
		return m.recover(s, OutcomeRecoverFall)
	}

	if conv, ok := m.course.ConveyorAt(sig.Position); ok {
		return Transition{
			State:   s,
			Actions: []Action{ApplyImpulse{Impulse: conv.Impulse(sig.Velocity, m.rules.Conveyor)}},
			Outcome: OutcomeConveyor,
		}
	}
	return Transition{State: s, Outcome: OutcomeNone}
}

// recover возвращает игрока на текущий чекпоинт без изменения индекса.
// Телепорт выводит игрока из зоны падения за один шаг.
func (m *Machine) recover(s State, outcome Outcome) Transition {
	var notice Notify
	where := m.respawnLabel(s)
	switch outcome {
	case OutcomeRecoverHazard:
		notice = Notify{Kind: NoticeHazard, Text: "You touched lava! Respawning at " + where + ".", Color: ColorRespawn}
	case OutcomeRecoverFall:
		notice = Notify{Kind: NoticeFall, Text: "You fell! Respawning at " + where + ".", Color: ColorRespawn}
	default:
		notice = Notify{Kind: NoticeReset, Text: "Respawning at " + where + ".", Color: ColorRespawn}
	}

	return Transition{
		State:   s,
		Actions: []Action{m.teleport(s), notice},
		Outcome: outcome,
	}
}

func (m *Machine) teleport(s State) Teleport {
	t := Teleport{Position: s.Position}
	if yaw, ok := m.course.SpawnYaw(s.Index, s.Position); ok {
		t.Yaw, t.HasYaw = yaw, true
	}
	return t
}

func (m *Machine) progress(s State) ProgressUpdate {
	return ProgressUpdate{Stage: s.Index, Percentage: m.course.Percentage(s.Index)}
}

func (m *Machine) respawnLabel(s State) string {
	if m.course.Empty() {
		return "spawn"
	}
	return fmt.Sprintf("checkpoint %d", s.Index+1)
}

const welcomeText = "Welcome to the parkour course! Reach every checkpoint in order. " +
	"Lava or a fall sends you back to your last checkpoint."
