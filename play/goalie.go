package play

import (
	"fmt"

	"github.com/nstehr/striker/behavior"
	"github.com/nstehr/striker/model"
)

// SetGoalieID assigns the goalie robot. NoGoalie clears it; other negative
// IDs are rejected. The installed play is re-assigned immediately since its
// share of the roster changes.
func (r *RootPlay) SetGoalieID(id int) error {
	if id < NoGoalie {
		return fmt.Errorf("invalid goalie id %d", id)
	}
	if id == r.goalieID {
		return nil
	}
	r.goalieID = id
	if id == NoGoalie {
		r.log.Info("goalie_id set", "goalie", "none")
	} else {
		r.log.Info("goalie_id set", "goalie", id)
	}
	return r.assignActive()
}

// GoalieID returns the goalie robot ID and whether one is assigned.
func (r *RootPlay) GoalieID() (int, bool) {
	return r.goalieID, r.goalieID != NoGoalie
}

// SetGoalieFactory replaces how the goalie behavior is built and discards
// the current instance.
func (r *RootPlay) SetGoalieFactory(f GoalieFactory) error {
	r.goalieFactory = f
	r.goalie = nil
	return r.assignActive()
}

// DropGoalieBehavior discards the goalie behavior; it is rebuilt on the
// next tick. Used when the goalie definition changes.
func (r *RootPlay) DropGoalieBehavior() {
	r.goalie = nil
}

// GoalieBehavior returns the current goalie behavior, or nil.
func (r *RootPlay) GoalieBehavior() behavior.Node { return r.goalie }

// runGoalie builds the goalie behavior on demand, hands it the goalie robot
// (if visible) and ticks it. The goalie lives independently of play
// selection. Its faults drop the instance so the next tick rebuilds it.
func (r *RootPlay) runGoalie() error {
	if r.goalieFactory == nil || r.goalieID == NoGoalie {
		return nil
	}

	if r.goalie == nil {
		var g behavior.Node
		err := contain("goalie", "construct", func() error {
			var err error
			g, err = r.goalieFactory(r.world)
			if err == nil && g == nil {
				err = fmt.Errorf("factory returned no behavior")
			}
			return err
		})
		if err != nil {
			return r.contained("goalie construction failed", err)
		}
		r.goalie = g
		r.log.Info("goalie behavior built", "behavior", g.Name(), "goalie", r.goalieID)
	}

	var robots []*model.Robot
	for _, rb := range r.Robots() {
		if rb.ID() == r.goalieID {
			robots = append(robots, rb)
		}
	}

	err := contain("goalie", "assign", func() error { return r.goalie.SetRobots(robots) })
	if err == nil {
		err = contain("goalie", "tick", r.goalie.Tick)
	}
	if err != nil {
		r.goalie = nil
		return r.contained("goalie behavior failed, rebuilding", err)
	}
	return nil
}
