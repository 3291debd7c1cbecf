package behavior

import (
	"fmt"
	"slices"

	"github.com/nstehr/striker/model"
)

// Child is a named sub-behavior.
type Child struct {
	Name string
	Node Node
}

// RobotPolicy hands a parent's robot set to its children. It runs
// synchronously inside SetRobots.
type RobotPolicy func(robots []*model.Robot, children []Child) error

// PropagateAll gives every child the parent's full robot set.
func PropagateAll(robots []*model.Robot, children []Child) error {
	for _, c := range children {
		if err := c.Node.SetRobots(robots); err != nil {
			return fmt.Errorf("sub-behavior %q: %w", c.Name, err)
		}
	}
	return nil
}

// SetRobotPolicy replaces how robots are passed down to sub-behaviors, e.g.
// to split the set by role.
func (b *Behavior) SetRobotPolicy(p RobotPolicy) {
	if p == nil {
		p = PropagateAll
	}
	b.policy = p
}

// AddSubBehavior attaches child under name. Sub-behaviors are ticked after
// the parent's own execute hook, in the order they were added. When the
// parent already holds robots the policy runs again at once so the new
// child gets its share; if the child rejects it, it is not attached.
func (b *Behavior) AddSubBehavior(name string, child Node) error {
	if name == "" || child == nil {
		return fmt.Errorf("%w: %s: sub-behavior needs a name and a node", ErrInvalidDeclaration, b.name)
	}
	if b.indexOf(name) >= 0 {
		return fmt.Errorf("%w: %s: %q", ErrDuplicateName, b.name, name)
	}
	b.children = append(b.children, Child{Name: name, Node: child})
	if len(b.robots) == 0 {
		return nil
	}
	if err := b.policy(b.Robots(), b.SubBehaviors()); err != nil {
		b.children = b.children[:len(b.children)-1]
		_ = b.policy(b.Robots(), b.SubBehaviors())
		return err
	}
	return nil
}

// RemoveSubBehavior detaches and drops the named child.
func (b *Behavior) RemoveSubBehavior(name string) error {
	i := b.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s: %q", ErrNotFound, b.name, name)
	}
	b.children = slices.Delete(b.children, i, i+1)
	return nil
}

func (b *Behavior) RemoveAllSubBehaviors() {
	b.children = nil
}

func (b *Behavior) SubBehavior(name string) (Node, bool) {
	i := b.indexOf(name)
	if i < 0 {
		return nil, false
	}
	return b.children[i].Node, true
}

// SubBehaviors returns the children in tick order.
func (b *Behavior) SubBehaviors() []Child {
	return slices.Clone(b.children)
}

// HasSubBehaviors reports whether any child is attached.
func (b *Behavior) HasSubBehaviors() bool { return len(b.children) > 0 }

// SubBehaviorsDone reports whether every child reached a terminal phase.
func (b *Behavior) SubBehaviorsDone() bool {
	for _, c := range b.children {
		if !c.Node.Phase().Terminal() {
			return false
		}
	}
	return true
}

// SetRobots makes robots the complete set this behavior and its descendants
// may use, and passes it down before returning. If a descendant rejects the
// set, the previous assignment is restored throughout.
func (b *Behavior) SetRobots(robots []*model.Robot) error {
	prev := b.robots
	b.robots = slices.Clone(robots)
	if err := b.policy(b.Robots(), b.SubBehaviors()); err != nil {
		b.robots = prev
		_ = b.policy(b.Robots(), b.SubBehaviors())
		return err
	}
	return nil
}

// Robots returns a copy of the assigned robot set.
func (b *Behavior) Robots() []*model.Robot {
	return slices.Clone(b.robots)
}

func (b *Behavior) indexOf(name string) int {
	return slices.IndexFunc(b.children, func(c Child) bool { return c.Name == name })
}
