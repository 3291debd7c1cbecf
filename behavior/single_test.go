package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleRobot_OverAssignment(t *testing.T) {
	s := NewSingleRobot("receiver")
	require.NoError(t, s.SetRobots(robots(4)))

	err := s.SetRobots(robots(4, 6))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverAssignment)
	assert.True(t, IsStructural(err))
	assert.Equal(t, 4, s.Robot().ID(), "previous assignment is kept")
}

func TestSingleRobot_ChildOfMultiRobotParent(t *testing.T) {
	p := New("parent")
	plain := New("plain")
	single := NewSingleRobot("single")
	require.NoError(t, p.AddSubBehavior("plain", plain))
	require.NoError(t, p.AddSubBehavior("single", single))

	err := p.SetRobots(robots(1, 2))
	assert.ErrorIs(t, err, ErrOverAssignment)
	assert.Contains(t, err.Error(), `"single"`)
	assert.Empty(t, p.Robots(), "parent keeps its previous assignment")
	assert.Empty(t, plain.Robots(), "siblings are rolled back too")
}

func TestSingleRobot_NoRobotTickIsNoop(t *testing.T) {
	s := NewSingleRobot("idle", Continuous())
	executed := 0
	require.NoError(t, s.AddTransition(StateStart, StateRunning, Always, "go"))
	require.NoError(t, s.OnExecute(StateRunning, func() error {
		if !s.HasRobot() {
			return nil
		}
		executed++
		s.Robot().Stop()
		return nil
	}))

	require.NoError(t, s.Tick())
	assert.Nil(t, s.Robot())
	assert.Zero(t, executed)

	require.NoError(t, s.SetRobots(robots(9)))
	require.NoError(t, s.Tick())
	assert.Equal(t, 1, executed)

	require.NoError(t, s.SetRobots(nil))
	assert.False(t, s.HasRobot())
}

func TestSingleRobot_IsNode(t *testing.T) {
	var n Node = NewSingleRobot("n")
	assert.Equal(t, "n", n.Name())
	assert.ErrorIs(t, n.SetRobots(robots(1, 2, 3)), ErrOverAssignment)
}
