package play

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/nstehr/striker/behavior"
	"github.com/nstehr/striker/model"
)

// NoGoalie is the goalie ID meaning "no goalie assigned".
const NoGoalie = -1

// GoalieFactory builds the goalie behavior. It is called lazily and again
// after DropGoalieBehavior.
type GoalieFactory func(src model.WorldSource) (behavior.Node, error)

// RootPlay is the top of the behavior tree. Each tick it selects a play if
// none is installed, runs the installed play and then the goalie. Faults in
// play code evict the play; the next tick selects again.
//
// Selection is sticky: an installed play keeps running until it finishes,
// faults, or is dropped, even if another play now scores higher.
type RootPlay struct {
	*behavior.Behavior

	registry Source
	world    model.WorldSource
	observer Observer
	log      *slog.Logger

	active     Strategy
	activeName string
	activeID   string // instance id reported when the play was selected

	goalieID      int
	goalieFactory GoalieFactory
	goalie        behavior.Node
}

type Option func(*RootPlay)

func WithObserver(o Observer) Option {
	return func(r *RootPlay) { r.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *RootPlay) { r.log = l }
}

func WithGoalie(f GoalieFactory) Option {
	return func(r *RootPlay) { r.goalieFactory = f }
}

func NewRootPlay(registry Source, world model.WorldSource, opts ...Option) *RootPlay {
	r := &RootPlay{
		registry: registry,
		world:    world,
		log:      slog.Default(),
		goalieID: NoGoalie,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Behavior = behavior.New("root", behavior.Continuous(), behavior.WithLogger(r.log))
	if err := r.AddTransition(behavior.StateStart, behavior.StateRunning, behavior.Always, "immediately"); err != nil {
		panic(err)
	}
	if err := r.OnExecute(behavior.StateRunning, r.execute); err != nil {
		panic(err)
	}
	return r
}

// CurrentPlay returns the installed play, or nil.
func (r *RootPlay) CurrentPlay() Strategy { return r.active }

// CurrentPlayName returns the installed play's name, or NoPlay.
func (r *RootPlay) CurrentPlayName() string {
	if r.active == nil {
		return NoPlay
	}
	return r.activeName
}

// DropCurrentPlay discards the installed play. The next tick selects again.
func (r *RootPlay) DropCurrentPlay() {
	if r.active == nil {
		return
	}
	r.log.Info("dropping current play", "play", r.activeName)
	r.evict(ReasonDropped)
}

// SetRobots sets the team roster. The installed play receives it at once,
// minus the goalie when a goalie behavior is configured. Wiring errors in
// the play are returned after it is evicted.
func (r *RootPlay) SetRobots(robots []*model.Robot) error {
	if err := r.Behavior.SetRobots(robots); err != nil {
		return err
	}
	return r.assignActive()
}

func (r *RootPlay) execute() error {
	world := r.world.World()

	if r.active == nil {
		if err := r.selectPlay(world); err != nil {
			return err
		}
	}
	if r.active != nil {
		if err := r.runActive(); err != nil {
			return err
		}
	}
	return r.runGoalie()
}

func (r *RootPlay) selectPlay(world model.World) error {
	candidates := r.registry.ListEnabled()
	if len(candidates) == 0 {
		return nil
	}

	best, score, err := pickBest(candidates, world)
	if err != nil {
		return r.contained("play selection failed", err)
	}
	if best == nil {
		r.log.Debug("no applicable play", "candidates", len(candidates), "tick", world.Tick())
		return nil
	}

	var s Strategy
	err = contain(best.Name(), "construct", func() error {
		var err error
		s, err = best.New(r.world)
		if err == nil && s == nil {
			err = fmt.Errorf("constructor returned no play")
		}
		return err
	})
	if err != nil {
		return r.contained("play construction failed", err)
	}

	err = contain(best.Name(), "assign", func() error { return s.SetRobots(r.strategyRobots()) })
	if err != nil {
		return r.contained("play robot assignment failed", err)
	}

	prev := r.CurrentPlayName()
	r.active, r.activeName, r.activeID = s, best.Name(), uuid.NewString()
	r.log.Info("chose new play", "play", r.activeName, "score", score, "tick", world.Tick())
	r.notify(PlayChange{
		Previous:   prev,
		Current:    r.activeName,
		InstanceID: r.activeID,
		Tick:       world.Tick(),
		Reason:     ReasonSelected,
	})
	return nil
}

// pickBest returns the applicable descriptor with the highest score. Any
// scoring failure aborts the whole selection.
func pickBest(candidates []Descriptor, world model.World) (Descriptor, float64, error) {
	var best Descriptor
	bestScore := math.Inf(-1)
	for _, d := range candidates {
		var score float64
		err := contain(d.Name(), "score", func() error {
			var err error
			score, err = d.Score(world)
			return err
		})
		if err != nil {
			return nil, 0, err
		}
		if !Applicable(score) {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore = d, score
		}
	}
	return best, bestScore, nil
}

func (r *RootPlay) runActive() error {
	if err := contain(r.activeName, "tick", r.active.Tick); err != nil {
		r.log.Error("play encountered error, aborting and reselecting", "play", r.activeName, "error", err)
		r.evict(ReasonFault)
		if behavior.IsStructural(err) {
			return err
		}
		return nil
	}

	if r.active.Phase().Terminal() && !isContinuous(r.active) {
		r.log.Info("play finished", "play", r.activeName, "phase", r.active.Phase())
		r.evict(ReasonFinished)
	}
	return nil
}

func (r *RootPlay) assignActive() error {
	if r.active == nil {
		return nil
	}
	err := contain(r.activeName, "assign", func() error { return r.active.SetRobots(r.strategyRobots()) })
	if err == nil {
		return nil
	}
	r.log.Error("play rejected robots, aborting and reselecting", "play", r.activeName, "error", err)
	r.evict(ReasonFault)
	if behavior.IsStructural(err) {
		return err
	}
	return nil
}

// contained logs err and swallows it unless it is a wiring error.
func (r *RootPlay) contained(msg string, err error) error {
	r.log.Error(msg, "error", err)
	if behavior.IsStructural(err) {
		return err
	}
	return nil
}

func (r *RootPlay) evict(reason Reason) {
	prev, id := r.activeName, r.activeID
	r.active, r.activeName, r.activeID = nil, "", ""
	r.notify(PlayChange{
		Previous:   prev,
		Current:    NoPlay,
		InstanceID: id,
		Tick:       r.world.World().Tick(),
		Reason:     reason,
	})
}

// notify delivers a change to the observer. Observer failures never reach
// the caller.
func (r *RootPlay) notify(c PlayChange) {
	if r.observer == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("play observer panicked", "error", fmt.Errorf("%w: %v", ErrObserverFault, rec))
		}
	}()
	if err := r.observer.PlayChanged(c); err != nil {
		r.log.Warn("play observer failed", "error", fmt.Errorf("%w: %w", ErrObserverFault, err))
	}
}

// strategyRobots is the roster handed to plays: everyone except the goalie,
// when a goalie behavior exists to drive it.
func (r *RootPlay) strategyRobots() []*model.Robot {
	robots := r.Robots()
	if r.goalieID == NoGoalie || r.goalieFactory == nil {
		return robots
	}
	return slices.DeleteFunc(robots, func(rb *model.Robot) bool { return rb.ID() == r.goalieID })
}

func isContinuous(n behavior.Node) bool {
	c, ok := n.(interface{ IsContinuous() bool })
	return ok && c.IsContinuous()
}
