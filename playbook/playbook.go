// Package playbook loads scripted plays and the goalie behavior from a
// YAML file and compiles them into play descriptors.
package playbook

import (
	"fmt"
	"os"

	"github.com/nstehr/striker/behavior"
	"github.com/nstehr/striker/model"
	"gopkg.in/yaml.v3"
)

// Version is the only playbook format version understood.
const Version = "1"

// Playbook is the top-level playbook file.
type Playbook struct {
	Version string       `yaml:"version"`
	Plays   []PlayDef    `yaml:"plays"`
	Goalie  *BehaviorDef `yaml:"goalie,omitempty"`
}

// PlayDef is a scripted play: a behavior plus the expression that scores it.
type PlayDef struct {
	BehaviorDef  `yaml:",inline"`
	Enabled      *bool            `yaml:"enabled,omitempty"` // default true
	Score        string           `yaml:"score"`
	SubBehaviors []SubBehaviorDef `yaml:"subbehaviors,omitempty"`
}

// SubBehaviorDef is a child behavior of a play. Robots is how many of the
// play's robots it takes in robot-ID order, 0 meaning all that are still
// unclaimed. A single child drives exactly one robot. Robots no child
// claims are left to the play's own state actions.
type SubBehaviorDef struct {
	BehaviorDef `yaml:",inline"`
	Single      bool `yaml:"single,omitempty"`
	Robots      int  `yaml:"robots,omitempty"`
}

func (d SubBehaviorDef) share() int {
	if d.Single {
		return 1
	}
	return d.Robots
}

// IsEnabled reports the enabled flag, defaulting to true.
func (p PlayDef) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// BehaviorDef declares states, transitions and per-state actions.
type BehaviorDef struct {
	Name        string          `yaml:"name"`
	Continuous  bool            `yaml:"continuous,omitempty"`
	States      []StateDef      `yaml:"states,omitempty"`
	Transitions []TransitionDef `yaml:"transitions"`
}

// StateDef declares a domain state, or attaches actions to a pseudo-state
// (start, running, completed, failed) when Phase is left empty.
type StateDef struct {
	Name   string    `yaml:"name"`
	Phase  string    `yaml:"phase,omitempty"`
	Action ActionDef `yaml:",inline"`
}

// TransitionDef is a guarded transition. When is a rules condition.
type TransitionDef struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	When  string `yaml:"when"`
	Label string `yaml:"label,omitempty"`
}

// ActionDef is what a state does with its robots on every tick.
type ActionDef struct {
	Formation []model.Point `yaml:"formation,omitempty"`
	FaceBall  bool          `yaml:"face_ball,omitempty"`
	ChaseBall bool          `yaml:"chase_ball,omitempty"`
	GuardGoal bool          `yaml:"guard_goal,omitempty"`
	Kick      float64       `yaml:"kick,omitempty"`
	Dribble   float64       `yaml:"dribble,omitempty"`
	Stop      bool          `yaml:"stop,omitempty"`
}

func (a ActionDef) empty() bool {
	return len(a.Formation) == 0 && !a.FaceBall && !a.ChaseBall && !a.GuardGoal &&
		a.Kick == 0 && a.Dribble == 0 && !a.Stop
}

// Load reads, parses and validates a playbook file.
func Load(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playbook: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates playbook YAML.
func Parse(data []byte) (*Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := pb.Validate(); err != nil {
		return nil, fmt.Errorf("invalid playbook: %w", err)
	}
	return &pb, nil
}

// Validate checks the shape of the playbook. Expressions are checked when
// the playbook is compiled.
func (pb *Playbook) Validate() error {
	if pb.Version != Version {
		return fmt.Errorf("unsupported version: %q (expected: %q)", pb.Version, Version)
	}
	if len(pb.Plays) == 0 {
		return fmt.Errorf("no plays defined")
	}

	seen := make(map[string]bool, len(pb.Plays))
	for i, p := range pb.Plays {
		if err := p.BehaviorDef.Validate(); err != nil {
			return fmt.Errorf("plays[%d]: %w", i, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("plays[%d]: duplicate play name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.Score == "" {
			return fmt.Errorf("play %q: score is required", p.Name)
		}
		if err := p.validateSubBehaviors(); err != nil {
			return fmt.Errorf("play %q: %w", p.Name, err)
		}
	}

	if pb.Goalie != nil {
		if err := pb.Goalie.Validate(); err != nil {
			return fmt.Errorf("goalie: %w", err)
		}
	}
	return nil
}

func (p PlayDef) validateSubBehaviors() error {
	names := make(map[string]bool, len(p.SubBehaviors))
	for i, sb := range p.SubBehaviors {
		if err := sb.BehaviorDef.Validate(); err != nil {
			return fmt.Errorf("subbehaviors[%d]: %w", i, err)
		}
		if names[sb.Name] {
			return fmt.Errorf("subbehaviors[%d]: duplicate sub-behavior name %q", i, sb.Name)
		}
		names[sb.Name] = true
		if sb.Robots < 0 {
			return fmt.Errorf("%s: robots must not be negative", sb.Name)
		}
		if sb.Single && sb.Robots > 1 {
			return fmt.Errorf("%s: a single sub-behavior takes one robot, not %d", sb.Name, sb.Robots)
		}
	}
	return nil
}

// Validate checks names, phases and transition endpoints.
func (d *BehaviorDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}

	phases := map[string]behavior.Phase{
		string(behavior.StateStart):     behavior.Start,
		string(behavior.StateRunning):   behavior.Running,
		string(behavior.StateCompleted): behavior.Completed,
		string(behavior.StateFailed):    behavior.Failed,
	}
	declared := make(map[string]bool, len(d.States))
	for _, s := range d.States {
		if s.Name == "" {
			return fmt.Errorf("%s: state without a name", d.Name)
		}
		if declared[s.Name] {
			return fmt.Errorf("%s: state %q listed twice", d.Name, s.Name)
		}
		declared[s.Name] = true

		if pseudo, ok := phases[s.Name]; ok {
			if s.Phase != "" && s.Phase != pseudo.String() {
				return fmt.Errorf("%s: built-in state %q cannot change phase to %q", d.Name, s.Name, s.Phase)
			}
			continue
		}
		p, err := behavior.ParsePhase(s.Phase)
		if err != nil {
			return fmt.Errorf("%s: state %q: %w", d.Name, s.Name, err)
		}
		phases[s.Name] = p
	}

	if len(d.Transitions) == 0 {
		return fmt.Errorf("%s: no transitions defined", d.Name)
	}
	for i, t := range d.Transitions {
		from, ok := phases[t.From]
		if !ok {
			return fmt.Errorf("%s: transitions[%d]: unknown state %q", d.Name, i, t.From)
		}
		if _, ok := phases[t.To]; !ok {
			return fmt.Errorf("%s: transitions[%d]: unknown state %q", d.Name, i, t.To)
		}
		if from.Terminal() {
			return fmt.Errorf("%s: transitions[%d]: %q is terminal", d.Name, i, t.From)
		}
		if t.When == "" {
			return fmt.Errorf("%s: transitions[%d]: when is required", d.Name, i)
		}
	}
	return nil
}
