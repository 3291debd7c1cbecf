package playbook

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nstehr/striker/behavior"
	"github.com/nstehr/striker/model"
	"github.com/nstehr/striker/play"
	"github.com/nstehr/striker/rules"
)

// Compiled is a playbook with every expression compiled, ready to be
// swapped into a play registry.
type Compiled struct {
	Entries []play.Entry
	Goalie  play.GoalieFactory // nil when the playbook has no goalie
}

// Names returns the play names in playbook order.
func (c *Compiled) Names() []string {
	names := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		names[i] = e.Descriptor.Name()
	}
	return names
}

// Compile compiles all expressions and builds every behavior once against
// an empty world so declaration errors surface at load time rather than
// at selection time.
func Compile(pb *Playbook) (*Compiled, error) {
	c := &Compiled{}
	empty := model.NewFeed()

	for _, def := range pb.Plays {
		s, err := compileScript(def.BehaviorDef, false)
		if err != nil {
			return nil, err
		}
		for _, sb := range def.SubBehaviors {
			cs, err := compileScript(sb.BehaviorDef, sb.Single)
			if err != nil {
				return nil, fmt.Errorf("play %q: %w", def.Name, err)
			}
			s.children = append(s.children, childScript{script: cs, share: sb.share()})
		}
		score, err := rules.CompileScore(def.Score)
		if err != nil {
			return nil, fmt.Errorf("play %q: score: %w", def.Name, err)
		}
		if _, err := s.build(empty); err != nil {
			return nil, fmt.Errorf("play %q: %w", def.Name, err)
		}

		p := &scriptedPlay{script: s, score: score}
		c.Entries = append(c.Entries, play.Entry{Descriptor: p, Enabled: def.IsEnabled()})
	}

	if pb.Goalie != nil {
		s, err := compileScript(*pb.Goalie, true)
		if err != nil {
			return nil, err
		}
		if _, err := s.build(empty); err != nil {
			return nil, fmt.Errorf("goalie: %w", err)
		}
		c.Goalie = s.build
	}
	return c, nil
}

// scriptedPlay adapts a compiled script to play.Descriptor.
type scriptedPlay struct {
	*script
	score *rules.Score
}

func (p *scriptedPlay) Name() string { return p.def.Name }

func (p *scriptedPlay) Score(w model.World) (float64, error) {
	return p.score.Eval(rules.NewEnv(w, 0, 0))
}

func (p *scriptedPlay) New(src model.WorldSource) (play.Strategy, error) {
	return p.build(src)
}

type compiledTransition struct {
	from, to behavior.State
	cond     *rules.Condition
	label    string
}

type compiledState struct {
	name   behavior.State
	phase  behavior.Phase
	pseudo bool
	action ActionDef
}

// script is a behavior definition with its conditions compiled.
type script struct {
	def         BehaviorDef
	single      bool
	states      []compiledState
	transitions []compiledTransition
	children    []childScript
}

type childScript struct {
	*script
	share int
}

func compileScript(def BehaviorDef, single bool) (*script, error) {
	s := &script{def: def, single: single}
	for _, st := range def.States {
		cs := compiledState{name: behavior.State(st.Name), action: st.Action}
		switch cs.name {
		case behavior.StateStart, behavior.StateRunning, behavior.StateCompleted, behavior.StateFailed:
			cs.pseudo = true
		default:
			p, err := behavior.ParsePhase(st.Phase)
			if err != nil {
				return nil, fmt.Errorf("%s: state %q: %w", def.Name, st.Name, err)
			}
			cs.phase = p
		}
		s.states = append(s.states, cs)
	}

	for i, t := range def.Transitions {
		cond, err := rules.CompileCondition(t.When)
		if err != nil {
			return nil, fmt.Errorf("%s: transitions[%d]: %w", def.Name, i, err)
		}
		label := t.Label
		if label == "" {
			label = t.From + " -> " + t.To
		}
		s.transitions = append(s.transitions, compiledTransition{
			from:  behavior.State(t.From),
			to:    behavior.State(t.To),
			cond:  cond,
			label: label,
		})
	}
	return s, nil
}

// build instantiates a fresh behavior reading the world from src.
func (s *script) build(src model.WorldSource) (behavior.Node, error) {
	var opts []behavior.Option
	if s.def.Continuous {
		opts = append(opts, behavior.Continuous())
	}

	var (
		node behavior.Node
		b    *behavior.Behavior
	)
	if s.single {
		sr := behavior.NewSingleRobot(s.def.Name, opts...)
		node, b = sr, sr.Behavior
	} else {
		b = behavior.New(s.def.Name, opts...)
		node = b
	}

	for _, st := range s.states {
		if st.pseudo {
			continue
		}
		if err := b.DeclareState(st.name, st.phase); err != nil {
			return nil, err
		}
	}

	if len(s.children) > 0 {
		b.SetRobotPolicy(s.assign)
	}
	for _, c := range s.children {
		child, err := c.build(src)
		if err != nil {
			return nil, err
		}
		if err := b.AddSubBehavior(c.def.Name, child); err != nil {
			return nil, err
		}
	}

	for _, t := range s.transitions {
		cond := t.cond
		guard := func() (bool, error) {
			env := rules.NewEnv(src.World(), b.TicksInState(), len(b.Robots())).
				WithSubBehaviorsDone(b.HasSubBehaviors() && b.SubBehaviorsDone())
			return cond.Eval(env)
		}
		if err := b.AddTransition(t.from, t.to, guard, t.label); err != nil {
			return nil, err
		}
	}

	for _, st := range s.states {
		if st.action.empty() {
			continue
		}
		act := st.action
		err := b.OnExecute(st.name, func() error {
			_, rest := s.split(b.Robots())
			act.apply(src.World(), rest)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// split hands out robots in ID order by each child's share. A share of zero
// takes every robot still unclaimed. The unclaimed remainder is returned as
// rest.
func (s *script) split(robots []*model.Robot) (shares [][]*model.Robot, rest []*model.Robot) {
	rest = slices.Clone(robots)
	slices.SortFunc(rest, func(a, b *model.Robot) int { return cmp.Compare(a.ID(), b.ID()) })

	shares = make([][]*model.Robot, len(s.children))
	for i, c := range s.children {
		n := c.share
		if n == 0 || n > len(rest) {
			n = len(rest)
		}
		shares[i], rest = rest[:n:n], rest[n:]
	}
	return shares, rest
}

// assign is the robot policy of a play with sub-behaviors. Children are
// matched to their share by name; a child the playbook did not declare gets
// no robots.
func (s *script) assign(robots []*model.Robot, children []behavior.Child) error {
	shares, _ := s.split(robots)
	for _, c := range children {
		var mine []*model.Robot
		if i := slices.IndexFunc(s.children, func(cs childScript) bool { return cs.def.Name == c.Name }); i >= 0 {
			mine = shares[i]
		}
		if err := c.Node.SetRobots(mine); err != nil {
			return fmt.Errorf("sub-behavior %q: %w", c.Name, err)
		}
	}
	return nil
}
