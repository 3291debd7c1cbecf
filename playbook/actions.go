package playbook

import (
	"cmp"
	"math"
	"slices"

	"github.com/nstehr/striker/model"
)

// goalieDepth is how far in front of the goal line the goalie stands.
const goalieDepth = 0.15

// apply issues this tick's commands. Robots are taken in ID order: the
// chaser (if any) first, then the goal guard, then formation slots.
// Robots left over stop when Stop is set and are otherwise left alone.
func (a ActionDef) apply(w model.World, robots []*model.Robot) {
	if len(robots) == 0 {
		return
	}
	field := w.Field()
	ball := w.Ball()

	rest := slices.Clone(robots)
	slices.SortFunc(rest, func(x, y *model.Robot) int { return cmp.Compare(x.ID(), y.ID()) })

	if a.ChaseBall && ball.Visible {
		i := closestTo(rest, ball.Pos)
		chaser := rest[i]
		rest = slices.Delete(rest, i, i+1)

		chaser.Move(ball.Pos)
		if a.Dribble > 0 {
			chaser.Dribble(a.Dribble)
		}
		if a.Kick > 0 && chaser.HasBall() {
			chaser.Face(field.TheirGoal())
			chaser.Kick(a.Kick)
		}
	}

	if a.GuardGoal && len(rest) > 0 {
		keeper := rest[0]
		rest = rest[1:]
		keeper.Move(guardPoint(field, ball))
		keeper.Face(ball.Pos)
	}

	for i, r := range rest {
		switch {
		case i < len(a.Formation):
			r.Move(a.Formation[i])
		case a.Stop:
			r.Stop()
			continue
		}
		if a.FaceBall && ball.Visible {
			r.Face(ball.Pos)
		}
		if !a.ChaseBall && a.Kick > 0 && r.HasBall() {
			r.Face(field.TheirGoal())
			r.Kick(a.Kick)
		}
	}
}

// guardPoint is where a goalie stands to cover the ball: on the line from
// the goal center toward the ball, kept between the posts.
func guardPoint(f model.Field, ball model.Ball) model.Point {
	goal := f.OurGoal()
	if !ball.Visible {
		return model.Point{X: goal.X, Y: goal.Y + goalieDepth}
	}
	dir := ball.Pos.Sub(goal)
	d := dir.Mag()
	if d == 0 {
		return model.Point{X: goal.X, Y: goal.Y + goalieDepth}
	}
	p := goal.Add(dir.Scale(goalieDepth / d))
	half := f.GoalWidth / 2
	p.X = math.Max(-half, math.Min(half, p.X))
	p.Y = math.Max(p.Y, 0)
	return p
}

func closestTo(robots []*model.Robot, p model.Point) int {
	best, bestDist := 0, math.Inf(1)
	for i, r := range robots {
		if d := r.Pos().DistTo(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
