package rules

import (
	"math"

	"github.com/nstehr/striker/model"
)

// Env exposes the world and the evaluating behavior to expr expressions.
// Every method is read-only; expressions cannot reach the snapshot itself.
type Env struct {
	world        model.World
	ticksInState int
	robots       int
	childrenDone bool
}

// NewEnv builds an environment for one evaluation. A nil world behaves like
// an empty snapshot.
func NewEnv(w model.World, ticksInState, robots int) Env {
	if w == nil {
		w = model.Snapshot{}.View()
	}
	return Env{world: w, ticksInState: ticksInState, robots: robots}
}

func (e Env) Tick() int { return e.world.Tick() }

// StateTicks is the number of ticks the evaluating behavior has spent in its
// current state.
func (e Env) StateTicks() int { return e.ticksInState }

// RobotCount is the number of robots assigned to the evaluating behavior.
func (e Env) RobotCount() int { return e.robots }

// WithSubBehaviorsDone returns a copy of e reporting done from
// SubBehaviorsDone.
func (e Env) WithSubBehaviorsDone(done bool) Env {
	e.childrenDone = done
	return e
}

// SubBehaviorsDone reports whether the evaluating behavior has sub-behaviors
// and all of them reached a terminal phase.
func (e Env) SubBehaviorsDone() bool { return e.childrenDone }

func (e Env) BallX() float64     { return e.world.Ball().Pos.X }
func (e Env) BallY() float64     { return e.world.Ball().Pos.Y }
func (e Env) BallSpeed() float64 { return e.world.Ball().Vel.Mag() }
func (e Env) BallVisible() bool  { return e.world.Ball().Visible }

func (e Env) BallInOurHalf() bool {
	return e.world.Field().InOurHalf(e.world.Ball().Pos)
}

func (e Env) BallInDefenseArea() bool {
	return e.world.Field().InOurDefenseArea(e.world.Ball().Pos)
}

func (e Env) FieldLength() float64 { return e.world.Field().Length }
func (e Env) FieldWidth() float64  { return e.world.Field().Width }

func (e Env) Ref() string         { return string(e.world.Referee()) }
func (e Env) Playing() bool       { return e.world.Referee().IsPlaying() }
func (e Env) Stopped() bool       { return e.world.Referee().IsStopped() }
func (e Env) Halted() bool        { return e.world.Referee().IsHalted() }
func (e Env) Setup() bool         { return e.world.Referee().IsSetup() }
func (e Env) OurPenalty() bool    { return e.world.Referee().IsOurPenalty() }
func (e Env) TheirPenalty() bool  { return e.world.Referee().IsTheirPenalty() }
func (e Env) OurKickoff() bool    { return e.world.Referee().IsOurKickoff() }
func (e Env) TheirKickoff() bool  { return e.world.Referee().IsTheirKickoff() }
func (e Env) OurFreeKick() bool   { return e.world.Referee().IsOurFreeKick() }
func (e Env) TheirFreeKick() bool { return e.world.Referee().IsTheirFreeKick() }

func (e Env) OurCount() int   { return countVisible(e.world.Ours()) }
func (e Env) TheirCount() int { return countVisible(e.world.Theirs()) }

// WeHaveBall reports whether any of our robots holds the ball.
func (e Env) WeHaveBall() bool {
	for _, r := range e.world.Ours() {
		if r.Visible && r.HasBall {
			return true
		}
	}
	return false
}

// OurClosestToBall returns the distance from the ball to our nearest robot,
// or +Inf when none is visible.
func (e Env) OurClosestToBall() float64 {
	return closest(e.world.Ours(), e.world.Ball().Pos)
}

func (e Env) TheirClosestToBall() float64 {
	return closest(e.world.Theirs(), e.world.Ball().Pos)
}

// NotApplicable is the score a play returns when it must not be selected.
func (e Env) NotApplicable() float64 { return math.Inf(-1) }

func (e Env) Clamp(v, lo, hi float64) float64 { return clamp(v, lo, hi) }

func countVisible(rs []model.RobotState) int {
	n := 0
	for _, r := range rs {
		if r.Visible {
			n++
		}
	}
	return n
}

func closest(rs []model.RobotState, p model.Point) float64 {
	best := math.Inf(1)
	for _, r := range rs {
		if !r.Visible {
			continue
		}
		best = math.Min(best, r.Pos.DistTo(p))
	}
	return best
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
