package model

import (
	"slices"
	"sort"
)

// CommandKind identifies a robot command.
type CommandKind string

const (
	CmdMove    CommandKind = "move"
	CmdFace    CommandKind = "face"
	CmdDribble CommandKind = "dribble"
	CmdKick    CommandKind = "kick"
	CmdChip    CommandKind = "chip"
	CmdStop    CommandKind = "stop"
)

// Command is a single fire-and-forget order for one robot. Target is used by
// move/face, Value by dribble speed and kick/chip power.
type Command struct {
	RobotID int         `json:"robot_id"`
	Kind    CommandKind `json:"kind"`
	Target  Point       `json:"target"`
	Value   float64     `json:"value,omitempty"`
}

// CommandSink receives robot commands issued during a tick. Implementations
// decide how repeated writes for the same robot are merged.
type CommandSink interface {
	Send(cmd Command)
}

// Robot is the handle behaviors use to read and command one of our robots.
// Behaviors hold references; the roster owns the handle and refreshes its
// state between ticks.
type Robot struct {
	state RobotState
	sink  CommandSink
}

// NewRobot creates a free-standing handle, mainly useful in tests.
func NewRobot(state RobotState, sink CommandSink) *Robot {
	return &Robot{state: state, sink: sink}
}

func (r *Robot) ID() int           { return r.state.ID }
func (r *Robot) Pos() Point        { return r.state.Pos }
func (r *Robot) Vel() Point        { return r.state.Vel }
func (r *Robot) Angle() float64    { return r.state.Angle }
func (r *Robot) Visible() bool     { return r.state.Visible }
func (r *Robot) HasBall() bool     { return r.state.HasBall }
func (r *Robot) State() RobotState { return r.state }

func (r *Robot) Move(p Point)          { r.send(Command{Kind: CmdMove, Target: p}) }
func (r *Robot) Face(p Point)          { r.send(Command{Kind: CmdFace, Target: p}) }
func (r *Robot) Dribble(speed float64) { r.send(Command{Kind: CmdDribble, Value: speed}) }
func (r *Robot) Kick(power float64)    { r.send(Command{Kind: CmdKick, Value: power}) }
func (r *Robot) Chip(power float64)    { r.send(Command{Kind: CmdChip, Value: power}) }
func (r *Robot) Stop()                 { r.send(Command{Kind: CmdStop}) }

func (r *Robot) send(cmd Command) {
	if r.sink == nil {
		return
	}
	cmd.RobotID = r.state.ID
	r.sink.Send(cmd)
}

// RobotIDs returns the IDs of robots in order.
func RobotIDs(robots []*Robot) []int {
	ids := make([]int, 0, len(robots))
	for _, r := range robots {
		ids = append(ids, r.ID())
	}
	return ids
}

// Roster keeps one handle per robot ID across ticks so behaviors can hold on
// to a robot between cycles.
type Roster struct {
	robots map[int]*Robot
	sink   CommandSink
}

func NewRoster(sink CommandSink) *Roster {
	return &Roster{robots: make(map[int]*Robot), sink: sink}
}

// Update refreshes handle state from the latest vision report. Robots missing
// from the report are dropped. It returns true when the set of visible robots
// changed.
func (r *Roster) Update(states []RobotState) bool {
	before := r.visibleIDs()

	seen := make(map[int]bool, len(states))
	for _, st := range states {
		seen[st.ID] = true
		if h, ok := r.robots[st.ID]; ok {
			h.state = st
			continue
		}
		r.robots[st.ID] = &Robot{state: st, sink: r.sink}
	}
	for id := range r.robots {
		if !seen[id] {
			delete(r.robots, id)
		}
	}

	return !slices.Equal(before, r.visibleIDs())
}

// Robots returns the visible robots ordered by ID.
func (r *Roster) Robots() []*Robot {
	out := make([]*Robot, 0, len(r.robots))
	for _, h := range r.robots {
		if h.state.Visible {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Roster) Get(id int) (*Robot, bool) {
	h, ok := r.robots[id]
	return h, ok
}

func (r *Roster) visibleIDs() []int {
	return RobotIDs(r.Robots())
}

// Feed holds the most recent snapshot and serves it as the current World.
type Feed struct {
	snap Snapshot
}

func NewFeed() *Feed { return &Feed{} }

// Update replaces the snapshot. Call between ticks only.
func (f *Feed) Update(s Snapshot) { f.snap = s }

func (f *Feed) Snapshot() Snapshot { return f.snap }

func (f *Feed) World() World { return f.snap.View() }
