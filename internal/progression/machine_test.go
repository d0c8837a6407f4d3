package progression

import (
	"testing"

	"github.com/annel0/parkour-course/internal/course"
	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world"
	"github.com/annel0/parkour-course/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeCheckpoints трасса из трёх чекпоинтов вдоль +Z и лавы между ними
func threeCheckpoints() *Machine {
	blocks := world.MapData{
		{X: 0, Y: 10, Z: 0}:  block.CheckpointBlockID,
		{X: 0, Y: 10, Z: 8}:  block.CheckpointBlockID,
		{X: 0, Y: 10, Z: 16}: block.CheckpointBlockID,
		{X: 0, Y: 10, Z: 4}:  block.LavaBlockID,
		{X: 0, Y: 10, Z: 12}: block.ConveyorForwardBlockID,
	}
	rules := DefaultRules()
	return New(course.Build(blocks, rules.Markers), rules)
}

func standOn(m *Machine, index int) vec.Vec3Float {
	cp, _ := m.Course().Checkpoint(index)
	return cp.Spawn
}

func touch(m *Machine, s State, index int) Transition {
	return m.Step(s, BlockContact{Block: block.CheckpointBlockID, Started: true, Position: standOn(m, index)})
}

func findAction[T Action](actions []Action) (T, bool) {
	for _, a := range actions {
		if v, ok := a.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestTouch_Advance(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(1)

	tr := touch(m, s, 2)

	assert.Equal(t, OutcomeAdvance, tr.Outcome)
	assert.Equal(t, 2, tr.State.Index)
	assert.Equal(t, standOn(m, 2), tr.State.Position)

	persist, ok := findAction[Persist](tr.Actions)
	require.True(t, ok, "продвижение записывается в хранилище")
	assert.Equal(t, standOn(m, 2), persist.Position)

	notice, ok := findAction[Notify](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, NoticeSaved, notice.Kind)

	progress, ok := findAction[ProgressUpdate](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, 2, progress.Stage)
	assert.Equal(t, 100.0, progress.Percentage)
}

func TestTouch_Refresh(t *testing.T) {
	m := threeCheckpoints()
	s := State{Index: 1, Position: vec.Vec3Float{X: 0.3, Y: 11, Z: 8.2}}

	tr := touch(m, s, 1)

	assert.Equal(t, OutcomeRefresh, tr.Outcome)
	assert.Equal(t, 1, tr.State.Index)
	assert.Equal(t, standOn(m, 1), tr.State.Position, "позиция обновляется до точки появления")
	_, ok := findAction[Persist](tr.Actions)
	assert.True(t, ok)
}

func TestTouch_CannotGoBack(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(1)

	tr := touch(m, s, 0)

	assert.Equal(t, OutcomeRejectedBehind, tr.Outcome)
	assert.Equal(t, s, tr.State, "состояние не меняется")
	_, persisted := findAction[Persist](tr.Actions)
	assert.False(t, persisted, "отказ не пишет в хранилище")

	notice, ok := findAction[Notify](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, NoticeCannotGoBack, notice.Kind)
}

func TestTouch_MustBeInOrder(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(0)

	tr := touch(m, s, 2)

	assert.Equal(t, OutcomeRejectedSkip, tr.Outcome)
	assert.Equal(t, s, tr.State)
	notice, ok := findAction[Notify](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, NoticeOutOfOrder, notice.Kind)
	assert.NotEqual(t, NoticeCannotGoBack, notice.Kind, "сообщения для отказов различаются")
}

func TestTouch_Unresolvable(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(0)

	tr := m.Step(s, BlockContact{
		Block:    block.CheckpointBlockID,
		Started:  true,
		Position: vec.Vec3Float{X: 0.7, Y: 11, Z: 8},
	})

	assert.Equal(t, OutcomeNone, tr.Outcome)
	assert.Equal(t, s, tr.State)
	assert.Empty(t, tr.Actions, "без сообщений")
}

func TestContact_EndedOrOrdinaryBlock(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(0)

	ended := m.Step(s, BlockContact{Block: block.LavaBlockID, Started: false})
	assert.Equal(t, OutcomeNone, ended.Outcome)

	stone := m.Step(s, BlockContact{Block: block.StoneBlockID, Started: true})
	assert.Equal(t, OutcomeNone, stone.Outcome)
	assert.Empty(t, stone.Actions)
}

func TestHazard_RecoversFromAnyState(t *testing.T) {
	m := threeCheckpoints()

	for i := 0; i < m.Course().Len(); i++ {
		s := m.InitialState(i)
		tr := m.Step(s, BlockContact{Block: block.LavaBlockID, Started: true, Position: vec.Vec3Float{Z: 4}})

		assert.Equal(t, OutcomeRecoverHazard, tr.Outcome)
		assert.Equal(t, s, tr.State, "индекс не меняется")

		tp, ok := findAction[Teleport](tr.Actions)
		require.True(t, ok)
		assert.Equal(t, s.Position, tp.Position)
		assert.True(t, tp.HasYaw)

		notice, ok := findAction[Notify](tr.Actions)
		require.True(t, ok)
		assert.Equal(t, NoticeHazard, notice.Kind)
	}
}

func TestFall_Threshold(t *testing.T) {
	m := threeCheckpoints()
	s := State{Index: 0, Position: vec.Vec3Float{X: 0, Y: 10, Z: 0}}

	// Падение с y=50 до y=-10: восстановление только при y < 10-50 = -40
	for y := 50.0; y >= -40; y -= 5 {
		tr := m.Step(s, PositionUpdate{Position: vec.Vec3Float{X: 100, Y: y, Z: 100}})
		assert.NotEqual(t, OutcomeRecoverFall, tr.Outcome, "y=%v ещё не падение", y)
	}

	tr := m.Step(s, PositionUpdate{Position: vec.Vec3Float{X: 100, Y: -40.01, Z: 100}})
	assert.Equal(t, OutcomeRecoverFall, tr.Outcome)
	tp, ok := findAction[Teleport](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, s.Position, tp.Position)

	// После телепорта условие падения снято
	after := m.Step(tr.State, PositionUpdate{Position: tp.Position})
	assert.NotEqual(t, OutcomeRecoverFall, after.Outcome)
}

func TestFall_FiresEveryTickWhileBelow(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(1)

	for i := 0; i < 3; i++ {
		tr := m.Step(s, PositionUpdate{Position: vec.Vec3Float{Y: -100}})
		assert.Equal(t, OutcomeRecoverFall, tr.Outcome)
	}
}

func TestReset(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(2)

	tr := m.Step(s, ResetRequest{Reason: "command"})
	assert.Equal(t, OutcomeRecoverReset, tr.Outcome)
	assert.Equal(t, s, tr.State)

	tp, ok := findAction[Teleport](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, standOn(m, 2), tp.Position)
}

func TestConveyor(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(1)

	tr := m.Step(s, PositionUpdate{
		Position: vec.Vec3Float{X: 0, Y: 11, Z: 12},
		Velocity: vec.Vec3Float{Z: -1},
	})

	assert.Equal(t, OutcomeConveyor, tr.Outcome)
	assert.Equal(t, s, tr.State, "конвейер не меняет прогресс")
	imp, ok := findAction[ApplyImpulse](tr.Actions)
	require.True(t, ok)
	assert.Greater(t, imp.Impulse.Z, DefaultRules().Conveyor.PushImpulse, "встречная скорость гасится")

	// Каждый тик в зоне даёт новый импульс
	again := m.Step(tr.State, PositionUpdate{Position: vec.Vec3Float{X: 0, Y: 11, Z: 12}})
	assert.Equal(t, OutcomeConveyor, again.Outcome)
}

func TestMonotonicIndex(t *testing.T) {
	m := threeCheckpoints()
	s := m.InitialState(0)

	sequence := []int{1, 0, 2, 1, 2, 0, 2}
	prev := s.Index
	for _, target := range sequence {
		s = touch(m, s, target).State
		assert.GreaterOrEqual(t, s.Index, prev, "индекс не убывает")
		assert.LessOrEqual(t, s.Index-prev, 1, "шаг не больше одного")
		prev = s.Index
	}
	assert.Equal(t, 2, s.Index)
}

func TestSpawn(t *testing.T) {
	m := threeCheckpoints()

	tr := m.Spawn(m.InitialState(1), true)
	assert.Equal(t, OutcomeSpawn, tr.Outcome)

	tp, ok := findAction[Teleport](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, standOn(m, 1), tp.Position)
	assert.True(t, tp.HasYaw)

	kinds := make([]NoticeKind, 0)
	for _, a := range tr.Actions {
		if n, ok := a.(Notify); ok {
			kinds = append(kinds, n.Kind)
		}
	}
	assert.Equal(t, []NoticeKind{NoticeWelcome, NoticeRestored}, kinds)

	progress, ok := findAction[ProgressUpdate](tr.Actions)
	require.True(t, ok)
	assert.InDelta(t, 50.0, progress.Percentage, 1e-9)
}

func TestEmptyCourse_FallbackSpawn(t *testing.T) {
	rules := DefaultRules()
	m := New(course.Build(world.MapData{}, rules.Markers), rules)

	s := m.InitialState(3)
	assert.Equal(t, State{Index: 0, Position: course.FallbackSpawn}, s)

	tr := m.Step(s, BlockContact{Block: block.LavaBlockID, Started: true})
	tp, ok := findAction[Teleport](tr.Actions)
	require.True(t, ok)
	assert.Equal(t, course.FallbackSpawn, tp.Position)
	assert.False(t, tp.HasYaw, "без чекпоинтов поворот не задаётся")

	touchTr := m.Step(s, BlockContact{Block: block.CheckpointBlockID, Started: true, Position: course.FallbackSpawn})
	assert.Equal(t, OutcomeNone, touchTr.Outcome)
}
