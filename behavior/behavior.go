package behavior

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/nstehr/striker/model"
)

// Guard decides whether a transition fires. Guards must not block or mutate
// shared state; an error is a bug in the behavior and is propagated.
type Guard func() (bool, error)

// Hook is an optional per-state callback (enter, exit or execute).
type Hook func() error

// Always is a guard that is always satisfied.
func Always() (bool, error) { return true, nil }

// Never is a guard that is never satisfied.
func Never() (bool, error) { return false, nil }

// When adapts a plain predicate into a Guard.
func When(pred func() bool) Guard {
	return func() (bool, error) { return pred(), nil }
}

// Node is anything the engine can tick and hand robots to: plain behaviors,
// single-robot behaviors and the structs that embed them.
type Node interface {
	Name() string
	Tick() error
	SetRobots(robots []*model.Robot) error
	Robots() []*model.Robot
	State() State
	Phase() Phase
	Restart() error
}

type transition struct {
	from  State
	to    State
	guard Guard
	label string
}

type stateHooks struct {
	enter   Hook
	exit    Hook
	execute Hook
}

// Behavior is a hierarchical state machine. Transitions are checked in the
// order they were added and the first satisfied one wins; at most one
// transition fires per tick.
type Behavior struct {
	name       string
	continuous bool
	log        *slog.Logger

	states       map[State]Phase
	current      State
	ticksInState int
	transitions  []transition
	hooks        map[State]*stateHooks
	started      bool

	children []Child
	robots   []*model.Robot
	policy   RobotPolicy
}

type Option func(*Behavior)

// Continuous makes the behavior restart from start on the tick after it
// completes or fails.
func Continuous() Option {
	return func(b *Behavior) { b.continuous = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Behavior) { b.log = l }
}

// New creates a behavior sitting in the start state with the four
// pseudo-states already declared.
func New(name string, opts ...Option) *Behavior {
	b := &Behavior{
		name: name,
		states: map[State]Phase{
			StateStart:     Start,
			StateRunning:   Running,
			StateCompleted: Completed,
			StateFailed:    Failed,
		},
		current: StateStart,
		hooks:   make(map[State]*stateHooks),
		policy:  PropagateAll,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Behavior) Name() string       { return b.name }
func (b *Behavior) State() State       { return b.current }
func (b *Behavior) Phase() Phase       { return b.states[b.current] }
func (b *Behavior) IsDone() bool       { return b.Phase().Terminal() }
func (b *Behavior) IsContinuous() bool { return b.continuous }

// TicksInState counts the ticks that have finished in the current state.
func (b *Behavior) TicksInState() int { return b.ticksInState }

// PhaseOf returns the phase a declared state maps to.
func (b *Behavior) PhaseOf(s State) (Phase, bool) {
	p, ok := b.states[s]
	return p, ok
}

// DeclareState registers a domain state. States can only be declared before
// the first tick.
func (b *Behavior) DeclareState(s State, p Phase) error {
	if b.started {
		return fmt.Errorf("%w: %s: state %q declared after first tick", ErrInvalidDeclaration, b.name, s)
	}
	if s == "" {
		return fmt.Errorf("%w: %s: empty state name", ErrInvalidDeclaration, b.name)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %s: state %q has invalid phase %v", ErrInvalidDeclaration, b.name, s, p)
	}
	if _, ok := b.states[s]; ok {
		return fmt.Errorf("%w: %s: state %q already declared", ErrInvalidDeclaration, b.name, s)
	}
	b.states[s] = p
	return nil
}

// AddTransition appends a guarded rule. Terminal states have no outgoing
// transitions: non-continuous behaviors stay there and continuous ones are
// reset by the engine.
func (b *Behavior) AddTransition(from, to State, guard Guard, label string) error {
	fromPhase, ok := b.states[from]
	if !ok {
		return fmt.Errorf("%w: %s: transition %q from undeclared state %q", ErrInvalidDeclaration, b.name, label, from)
	}
	if _, ok := b.states[to]; !ok {
		return fmt.Errorf("%w: %s: transition %q to undeclared state %q", ErrInvalidDeclaration, b.name, label, to)
	}
	if guard == nil {
		return fmt.Errorf("%w: %s: transition %q has no guard", ErrInvalidDeclaration, b.name, label)
	}
	if fromPhase.Terminal() {
		return fmt.Errorf("%w: %s: transition %q leaves terminal state %q", ErrInvalidDeclaration, b.name, label, from)
	}
	b.transitions = append(b.transitions, transition{from: from, to: to, guard: guard, label: label})
	return nil
}

func (b *Behavior) OnEnter(s State, h Hook) error {
	return b.setHook(s, func(sh *stateHooks) { sh.enter = h })
}

func (b *Behavior) OnExit(s State, h Hook) error {
	return b.setHook(s, func(sh *stateHooks) { sh.exit = h })
}

func (b *Behavior) OnExecute(s State, h Hook) error {
	return b.setHook(s, func(sh *stateHooks) { sh.execute = h })
}

func (b *Behavior) setHook(s State, set func(*stateHooks)) error {
	if _, ok := b.states[s]; !ok {
		return fmt.Errorf("%w: %s: hook for undeclared state %q", ErrInvalidDeclaration, b.name, s)
	}
	sh, ok := b.hooks[s]
	if !ok {
		sh = &stateHooks{}
		b.hooks[s] = sh
	}
	set(sh)
	return nil
}

// Tick advances the behavior by one control cycle:
//
//  1. a continuous behavior in a terminal state is reset to start
//  2. the first transition out of the current state whose guard holds is chosen
//  3. if it leads elsewhere, exit and enter hooks fire around the switch
//  4. the execute hook of the (possibly new) current state runs
//  5. every sub-behavior is ticked in insertion order
//
// Errors from guards, hooks and sub-behaviors are returned unchanged apart
// from added context.
func (b *Behavior) Tick() error {
	b.started = true

	if b.continuous && b.Phase().Terminal() {
		if err := b.switchTo(StateStart, "continuous restart"); err != nil {
			return err
		}
	}

	if !b.Phase().Terminal() {
		t, ok, err := b.pick()
		if err != nil {
			return err
		}
		if ok && t.to != b.current {
			if err := b.switchTo(t.to, t.label); err != nil {
				return err
			}
		}
	}

	if sh := b.hooks[b.current]; sh != nil && sh.execute != nil {
		if err := sh.execute(); err != nil {
			return fmt.Errorf("%s: execute %q: %w", b.name, b.current, err)
		}
	}
	b.ticksInState++

	for _, c := range slices.Clone(b.children) {
		if err := c.Node.Tick(); err != nil {
			return fmt.Errorf("%s/%s: %w", b.name, c.Name, err)
		}
	}
	return nil
}

// Restart puts the behavior back into the start state, firing the exit hook
// of the current state and the enter hook of start.
func (b *Behavior) Restart() error {
	if b.current == StateStart {
		return nil
	}
	return b.switchTo(StateStart, "restart")
}

func (b *Behavior) pick() (transition, bool, error) {
	for _, t := range b.transitions {
		if t.from != b.current {
			continue
		}
		ok, err := t.guard()
		if err != nil {
			return transition{}, false, fmt.Errorf("%s: guard %q (%s -> %s): %w", b.name, t.label, t.from, t.to, err)
		}
		if ok {
			return t, true, nil
		}
	}
	return transition{}, false, nil
}

func (b *Behavior) switchTo(to State, label string) error {
	from := b.current
	if sh := b.hooks[from]; sh != nil && sh.exit != nil {
		if err := sh.exit(); err != nil {
			return fmt.Errorf("%s: exit %q: %w", b.name, from, err)
		}
	}

	b.current = to
	b.ticksInState = 0
	b.logger().Debug("behavior transition", "behavior", b.name, "from", from, "to", to, "label", label)

	if sh := b.hooks[to]; sh != nil && sh.enter != nil {
		if err := sh.enter(); err != nil {
			return fmt.Errorf("%s: enter %q: %w", b.name, to, err)
		}
	}
	return nil
}

func (b *Behavior) logger() *slog.Logger {
	if b.log != nil {
		return b.log
	}
	return slog.Default()
}
