package behavior

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stateA State = "A"
	stateB State = "B"
	stateC State = "C"
)

// chain declares A/B/C as running states.
func chain(t *testing.T, b *Behavior) {
	t.Helper()
	require.NoError(t, b.DeclareState(stateA, Running))
	require.NoError(t, b.DeclareState(stateB, Running))
	require.NoError(t, b.DeclareState(stateC, Running))
}

func TestNew_StartsInStart(t *testing.T) {
	b := New("fresh")
	assert.Equal(t, StateStart, b.State())
	assert.Equal(t, Start, b.Phase())
	assert.False(t, b.IsDone())
	assert.False(t, b.IsContinuous())
	assert.True(t, New("c", Continuous()).IsContinuous())
}

func TestDeclareState_Errors(t *testing.T) {
	b := New("decl")
	require.NoError(t, b.DeclareState(stateA, Running))

	err := b.DeclareState(stateA, Running)
	assert.ErrorIs(t, err, ErrInvalidDeclaration)

	err = b.DeclareState(StateStart, Start)
	assert.ErrorIs(t, err, ErrInvalidDeclaration, "pseudo-states are pre-declared")

	err = b.DeclareState(stateB, Phase(7))
	assert.ErrorIs(t, err, ErrInvalidDeclaration)

	err = b.DeclareState("", Running)
	assert.ErrorIs(t, err, ErrInvalidDeclaration)

	require.NoError(t, b.Tick())
	err = b.DeclareState(stateC, Running)
	assert.ErrorIs(t, err, ErrInvalidDeclaration, "no declarations after first tick")
	assert.True(t, IsStructural(err))
}

func TestAddTransition_Errors(t *testing.T) {
	b := New("trans")
	require.NoError(t, b.DeclareState(stateA, Running))

	assert.ErrorIs(t, b.AddTransition(StateStart, stateB, Always, "to B"), ErrInvalidDeclaration)
	assert.ErrorIs(t, b.AddTransition(stateB, stateA, Always, "from B"), ErrInvalidDeclaration)
	assert.ErrorIs(t, b.AddTransition(StateStart, stateA, nil, "no guard"), ErrInvalidDeclaration)
	assert.ErrorIs(t, b.AddTransition(StateCompleted, stateA, Always, "out of completed"), ErrInvalidDeclaration)

	assert.NoError(t, b.AddTransition(StateStart, stateA, Always, "ok"))
	assert.NoError(t, b.AddTransition(stateA, StateRunning, Always, "generic running"))
	assert.NoError(t, b.AddTransition(stateA, StateFailed, Never, "fail"))
}

func TestHooks_UndeclaredState(t *testing.T) {
	b := New("hooks")
	noop := func() error { return nil }
	assert.ErrorIs(t, b.OnEnter(stateA, noop), ErrInvalidDeclaration)
	assert.ErrorIs(t, b.OnExit(stateA, noop), ErrInvalidDeclaration)
	assert.ErrorIs(t, b.OnExecute(stateA, noop), ErrInvalidDeclaration)
	assert.NoError(t, b.OnExecute(StateRunning, noop))
}

func TestTick_FirstDeclaredTransitionWins(t *testing.T) {
	b := New("priority")
	chain(t, b)
	require.NoError(t, b.AddTransition(StateStart, stateA, Always, "first"))
	require.NoError(t, b.AddTransition(StateStart, stateB, Always, "second"))

	require.NoError(t, b.Tick())
	assert.Equal(t, stateA, b.State())
}

func TestTick_SkipsRulesFromOtherStates(t *testing.T) {
	b := New("scope")
	chain(t, b)
	evaluated := 0
	counting := func() (bool, error) { evaluated++; return true, nil }
	require.NoError(t, b.AddTransition(stateA, stateB, counting, "not from start"))
	require.NoError(t, b.AddTransition(StateStart, stateC, Never, "never"))

	require.NoError(t, b.Tick())
	assert.Equal(t, StateStart, b.State())
	assert.Zero(t, evaluated, "guards of rules leaving other states are not evaluated")
}

func TestTick_AtMostOneTransition(t *testing.T) {
	b := New("hop")
	chain(t, b)
	require.NoError(t, b.AddTransition(StateStart, stateA, Always, "s->a"))
	require.NoError(t, b.AddTransition(stateA, stateB, Always, "a->b"))
	require.NoError(t, b.AddTransition(stateB, stateC, Always, "b->c"))

	require.NoError(t, b.Tick())
	assert.Equal(t, stateA, b.State())
	require.NoError(t, b.Tick())
	assert.Equal(t, stateB, b.State())
	require.NoError(t, b.Tick())
	assert.Equal(t, stateC, b.State())
}

func TestTick_HookOrder(t *testing.T) {
	b := New("order")
	chain(t, b)
	var calls []string
	rec := func(s string) Hook {
		return func() error { calls = append(calls, s); return nil }
	}
	guard := func() (bool, error) { calls = append(calls, "guard"); return true, nil }

	require.NoError(t, b.AddTransition(StateStart, stateA, guard, "go"))
	require.NoError(t, b.OnExit(StateStart, rec("exit start")))
	require.NoError(t, b.OnEnter(stateA, rec("enter A")))
	require.NoError(t, b.OnExecute(stateA, rec("execute A")))
	require.NoError(t, b.OnExecute(StateStart, rec("execute start")))
	require.NoError(t, b.AddSubBehavior("child", hookChild(rec("child tick"))))

	require.NoError(t, b.Tick())
	assert.Equal(t, []string{"guard", "exit start", "enter A", "execute A", "child tick"}, calls)
}

func TestTick_SelfTransitionFiresNoHooks(t *testing.T) {
	b := New("self")
	chain(t, b)
	entered := 0
	require.NoError(t, b.AddTransition(StateStart, stateA, Always, "go"))
	require.NoError(t, b.AddTransition(stateA, stateA, Always, "stay"))
	require.NoError(t, b.OnEnter(stateA, func() error { entered++; return nil }))

	for _i := 0; _i < 5; _i++ {
		require.NoError(t, b.Tick())
	}
	assert.Equal(t, 1, entered)
	assert.Equal(t, 5, b.TicksInState())
}

func TestTick_GuardErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	b := New("faulty")
	chain(t, b)
	require.NoError(t, b.AddTransition(StateStart, stateA, func() (bool, error) { return false, boom }, "broken"))

	err := b.Tick()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.False(t, IsStructural(err))
	assert.Equal(t, StateStart, b.State())
}

func TestTick_ExecuteErrorPropagates(t *testing.T) {
	boom := errors.New("kick failed")
	b := New("exec")
	require.NoError(t, b.AddTransition(StateStart, StateRunning, Always, "go"))
	require.NoError(t, b.OnExecute(StateRunning, func() error { return boom }))

	err := b.Tick()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateRunning, b.State(), "the transition already happened")
}

func TestTick_ContinuousRestartsAfterCompletion(t *testing.T) {
	b := New("loop", Continuous())
	require.NoError(t, b.AddTransition(StateStart, StateRunning, Always, "go"))
	require.NoError(t, b.AddTransition(StateRunning, StateCompleted, Always, "done"))
	restarts := 0
	require.NoError(t, b.OnExit(StateCompleted, func() error { restarts++; return nil }))

	require.NoError(t, b.Tick()) // start -> running
	require.NoError(t, b.Tick()) // running -> completed
	assert.Equal(t, Completed, b.Phase())

	// reset to start, then start -> running in the same tick
	require.NoError(t, b.Tick())
	assert.Equal(t, StateRunning, b.State())
	assert.Equal(t, 1, restarts)
}

func TestTick_ContinuousWithoutStartRuleStaysInStart(t *testing.T) {
	b := New("loop", Continuous())
	var done bool
	require.NoError(t, b.AddTransition(StateStart, StateCompleted, When(func() bool { return done }), "done"))

	done = true
	require.NoError(t, b.Tick())
	assert.Equal(t, StateCompleted, b.State())

	done = false
	require.NoError(t, b.Tick())
	assert.Equal(t, StateStart, b.State())
}

func TestTick_NonContinuousStaysTerminal(t *testing.T) {
	b := New("once")
	require.NoError(t, b.AddTransition(StateStart, StateCompleted, Always, "done"))

	for _i := 0; _i < 100; _i++ {
		require.NoError(t, b.Tick())
		assert.Equal(t, StateCompleted, b.State())
	}
}

func TestTick_ContinuityLawOver100Ticks(t *testing.T) {
	b := New("loop", Continuous())
	require.NoError(t, b.AddTransition(StateStart, StateCompleted, Always, "done"))

	for i := 0; i < 100; i++ {
		require.NoError(t, b.Tick())
		// Each tick resets from completed and immediately completes again.
		assert.Equal(t, StateCompleted, b.State(), "tick %d", i)
	}

	b2 := New("loop2", Continuous())
	require.NoError(t, b2.AddTransition(StateStart, StateRunning, Always, "go"))
	require.NoError(t, b2.AddTransition(StateRunning, StateCompleted, Always, "done"))
	seen := map[State]int{}
	for _i := 0; _i < 100; _i++ {
		require.NoError(t, b2.Tick())
		seen[b2.State()]++
	}
	assert.Equal(t, 50, seen[StateRunning])
	assert.Equal(t, 50, seen[StateCompleted])
}

func TestTick_StateAlwaysDeclared(t *testing.T) {
	b := New("inv", Continuous())
	chain(t, b)
	n := 0
	odd := func() (bool, error) { n++; return n%2 == 1, nil }
	require.NoError(t, b.AddTransition(StateStart, stateA, Always, "go"))
	require.NoError(t, b.AddTransition(stateA, stateB, odd, "odd"))
	require.NoError(t, b.AddTransition(stateA, stateC, Always, "fallback"))
	require.NoError(t, b.AddTransition(stateB, StateFailed, odd, "fail"))
	require.NoError(t, b.AddTransition(stateC, StateCompleted, Always, "complete"))

	for _i := 0; _i < 200; _i++ {
		require.NoError(t, b.Tick())
		p, ok := b.PhaseOf(b.State())
		require.True(t, ok, "state %q must be declared", b.State())
		assert.Equal(t, p, b.Phase())
		assert.True(t, p.Valid())
	}
}

func TestRestart(t *testing.T) {
	b := New("once")
	require.NoError(t, b.AddTransition(StateStart, StateCompleted, Always, "done"))
	require.NoError(t, b.Tick())
	require.True(t, b.IsDone())

	entered := 0
	require.NoError(t, b.OnEnter(StateStart, func() error { entered++; return nil }))
	require.NoError(t, b.Restart())
	assert.Equal(t, StateStart, b.State())
	assert.Equal(t, 1, entered)

	require.NoError(t, b.Restart(), "restarting from start is a no-op")
	assert.Equal(t, 1, entered)
}

// The scenario from the design doc: A -> B -> C with flags.
func TestTick_EndToEndScenario(t *testing.T) {
	b := New("scenario")
	require.NoError(t, b.DeclareState(stateA, Start))
	require.NoError(t, b.DeclareState(stateB, Running))
	require.NoError(t, b.DeclareState(stateC, Completed))

	var ready, done bool
	bExecuted := 0
	require.NoError(t, b.AddTransition(StateStart, stateA, Always, "immediately"))
	require.NoError(t, b.AddTransition(stateA, stateB, When(func() bool { return ready }), "ready"))
	require.NoError(t, b.AddTransition(stateB, stateC, When(func() bool { return done }), "done"))
	require.NoError(t, b.OnExecute(stateB, func() error { bExecuted++; return nil }))

	require.NoError(t, b.Tick())
	assert.Equal(t, stateA, b.State())
	require.NoError(t, b.Tick())
	assert.Equal(t, stateA, b.State(), "ready=false keeps A")

	ready = true
	require.NoError(t, b.Tick())
	assert.Equal(t, stateB, b.State())
	assert.Equal(t, 1, bExecuted)

	done = true
	require.NoError(t, b.Tick())
	assert.Equal(t, stateC, b.State())
	assert.Equal(t, Completed, b.Phase())

	require.NoError(t, b.Tick())
	assert.Equal(t, stateC, b.State())
	assert.Equal(t, 1, bExecuted)
}

func TestPhase_StringAndParse(t *testing.T) {
	for _, p := range []Phase{Start, Running, Completed, Failed} {
		got, err := ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePhase("paused")
	assert.ErrorIs(t, err, ErrInvalidDeclaration)
	assert.Equal(t, "phase(9)", Phase(9).String())
}

// hookChild is a minimal child node whose tick runs h.
func hookChild(h Hook) Node {
	c := New("child")
	_ = c.OnExecute(StateStart, h)
	return c
}
