package behavior

import (
	"fmt"

	"github.com/nstehr/striker/model"
)

// SingleRobot is a behavior that drives at most one robot. Execute hooks
// should return early when HasRobot is false; ticking without a robot is
// not an error.
type SingleRobot struct {
	*Behavior
}

func NewSingleRobot(name string, opts ...Option) *SingleRobot {
	return &SingleRobot{Behavior: New(name, opts...)}
}

// SetRobots rejects more than one robot and keeps the previous assignment
// in that case.
func (s *SingleRobot) SetRobots(robots []*model.Robot) error {
	if len(robots) > 1 {
		return fmt.Errorf("%w: %s takes one robot, got %d %v", ErrOverAssignment, s.Name(), len(robots), model.RobotIDs(robots))
	}
	return s.Behavior.SetRobots(robots)
}

// Robot returns the assigned robot, or nil.
func (s *SingleRobot) Robot() *model.Robot {
	if len(s.robots) == 0 {
		return nil
	}
	return s.robots[0]
}

func (s *SingleRobot) HasRobot() bool { return len(s.robots) > 0 }
