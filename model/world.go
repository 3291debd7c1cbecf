package model

import (
	"math"
	"slices"
)

// Point is a field position in meters. Y runs from our goal (0) toward
// theirs; X runs across the field with 0 on the center line.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) Add(o Point) Point            { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point            { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Scale(s float64) Point        { return Point{p.X * s, p.Y * s} }
func (p Point) Mag() float64                 { return math.Hypot(p.X, p.Y) }
func (p Point) DistTo(o Point) float64       { return p.Sub(o).Mag() }
func (p Point) Near(o Point, d float64) bool { return p.DistTo(o) <= d }

type Ball struct {
	Pos     Point `json:"pos"`
	Vel     Point `json:"vel"`
	Visible bool  `json:"visible"`
}

// RobotState is one robot as last reported by vision.
type RobotState struct {
	ID      int     `json:"id"`
	Pos     Point   `json:"pos"`
	Vel     Point   `json:"vel"`
	Angle   float64 `json:"angle"` // radians
	Visible bool    `json:"visible"`
	HasBall bool    `json:"hasBall"`
}

// Snapshot is the world state for a single control cycle, as sent by the
// vision/referee feed.
type Snapshot struct {
	Tick    int          `json:"tick"`
	Ball    Ball         `json:"ball"`
	Ours    []RobotState `json:"ours"`
	Theirs  []RobotState `json:"theirs"`
	Referee Referee      `json:"referee"`
	Field   *Field       `json:"field,omitempty"`
}

// World is the read-only view of a snapshot handed to behaviors. Slices
// returned by it are copies; mutating them does not affect other readers.
type World interface {
	Tick() int
	Ball() Ball
	Ours() []RobotState
	Theirs() []RobotState
	Referee() Referee
	Field() Field
}

// WorldSource hands out the current world view. It is refreshed between
// ticks by the feed and only read during a tick.
type WorldSource interface {
	World() World
}

// View wraps a snapshot as a World. A nil field falls back to DefaultField.
func (s Snapshot) View() World { return snapshotView{s: s} }

type snapshotView struct {
	s Snapshot
}

func (v snapshotView) Tick() int            { return v.s.Tick }
func (v snapshotView) Ball() Ball           { return v.s.Ball }
func (v snapshotView) Ours() []RobotState   { return slices.Clone(v.s.Ours) }
func (v snapshotView) Theirs() []RobotState { return slices.Clone(v.s.Theirs) }
func (v snapshotView) Referee() Referee     { return v.s.Referee }

func (v snapshotView) Field() Field {
	if v.s.Field == nil {
		return DefaultField()
	}
	return *v.s.Field
}

// OurRobot looks up one of our robots by ID.
func OurRobot(w World, id int) (RobotState, bool) {
	for _, r := range w.Ours() {
		if r.ID == id {
			return r, true
		}
	}
	return RobotState{}, false
}
