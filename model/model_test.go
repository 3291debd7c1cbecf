package model

import (
	"testing"
)

type sliceSink []Command

func (s *sliceSink) Send(c Command) { *s = append(*s, c) }

func TestPoint(t *testing.T) {
	a := Point{X: 3, Y: 4}
	if got := a.Mag(); got != 5 {
		t.Errorf("Mag() = %v, want 5", got)
	}
	if got := a.Sub(Point{X: 1, Y: 1}); got != (Point{X: 2, Y: 3}) {
		t.Errorf("Sub() = %v, want {2 3}", got)
	}
	if got := a.Scale(2); got != (Point{X: 6, Y: 8}) {
		t.Errorf("Scale() = %v, want {6 8}", got)
	}
	if !a.Near(Point{X: 3, Y: 4.5}, 0.5) {
		t.Error("Near() should include the boundary")
	}
	if a.Near(Point{}, 4.9) {
		t.Error("Near() = true for a point 5m away")
	}
}

func TestField(t *testing.T) {
	f := DefaultField()
	if !f.Valid() {
		t.Fatal("default field should be valid")
	}
	if f.TheirGoal() != (Point{X: 0, Y: 9}) {
		t.Errorf("TheirGoal() = %v", f.TheirGoal())
	}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"goal mouth", Point{X: 0, Y: 0.5}, true},
		{"on post arc", Point{X: 1.2, Y: 0.3}, true},
		{"beyond arc", Point{X: 1.6, Y: 0.1}, false},
		{"too deep into field", Point{X: 0, Y: 1.1}, false},
		{"behind goal line", Point{X: 0, Y: -0.1}, false},
	}
	for _, tt := range tests {
		if got := f.InOurDefenseArea(tt.p); got != tt.want {
			t.Errorf("%s: InOurDefenseArea(%v) = %v, want %v", tt.name, tt.p, got, tt.want)
		}
	}

	bad := f
	bad.GoalWidth = f.Width
	if bad.Valid() {
		t.Error("goal as wide as the field should be invalid")
	}
}

func TestReferee(t *testing.T) {
	tests := []struct {
		ref                             Referee
		halted, stopped, playing, setup bool
	}{
		{RefHalt, true, false, false, false},
		{RefOurTimeout, true, false, false, false},
		{RefStop, false, true, false, false},
		{RefPlaying, false, false, true, false},
		{RefForceStart, false, false, true, false},
		{RefTheirPenalty, false, false, false, true},
		{RefOurKickoff, false, false, false, true},
		{RefOurDirect, false, false, false, false},
	}
	for _, tt := range tests {
		if tt.ref.IsHalted() != tt.halted || tt.ref.IsStopped() != tt.stopped ||
			tt.ref.IsPlaying() != tt.playing || tt.ref.IsSetup() != tt.setup {
			t.Errorf("%s: predicates disagree with table", tt.ref)
		}
	}
	if !RefTheirIndirect.IsTheirFreeKick() || RefTheirIndirect.IsOurFreeKick() {
		t.Error("their_indirect is their free kick")
	}
}

func TestRoster_Update(t *testing.T) {
	var sink sliceSink
	r := NewRoster(&sink)

	if !r.Update([]RobotState{{ID: 2, Visible: true}, {ID: 0, Visible: true}}) {
		t.Error("first update should report a change")
	}
	if got := RobotIDs(r.Robots()); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Robots() = %v, want [0 2]", got)
	}

	h, _ := r.Get(2)
	if r.Update([]RobotState{{ID: 0, Visible: true}, {ID: 2, Visible: true, Pos: Point{X: 1}}}) {
		t.Error("moving robots is not a roster change")
	}
	if same, _ := r.Get(2); same != h || h.Pos().X != 1 {
		t.Error("handle should be kept and refreshed across updates")
	}

	if !r.Update([]RobotState{{ID: 0, Visible: true}, {ID: 2, Visible: false}}) {
		t.Error("robot going invisible should report a change")
	}
	if got := RobotIDs(r.Robots()); len(got) != 1 || got[0] != 0 {
		t.Errorf("Robots() = %v, want [0]", got)
	}

	if !r.Update(nil) {
		t.Error("losing every robot should report a change")
	}
	if _, ok := r.Get(0); ok {
		t.Error("missing robots should be dropped")
	}
}

func TestRobot_CommandsCarryID(t *testing.T) {
	var sink sliceSink
	r := NewRobot(RobotState{ID: 7}, &sink)
	r.Move(Point{X: 1, Y: 2})
	r.Kick(4)

	if len(sink) != 2 {
		t.Fatalf("got %d commands, want 2", len(sink))
	}
	if sink[0].RobotID != 7 || sink[0].Kind != CmdMove || sink[0].Target != (Point{X: 1, Y: 2}) {
		t.Errorf("move = %+v", sink[0])
	}
	if sink[1].Kind != CmdKick || sink[1].Value != 4 {
		t.Errorf("kick = %+v", sink[1])
	}

	NewRobot(RobotState{ID: 1}, nil).Stop() // no sink, no panic
}

func TestSnapshotView(t *testing.T) {
	s := Snapshot{Tick: 3, Ours: []RobotState{{ID: 1}}}
	w := s.View()

	ours := w.Ours()
	ours[0].ID = 99
	if w.Ours()[0].ID != 1 {
		t.Error("Ours() should return a copy")
	}
	if w.Field() != DefaultField() {
		t.Error("missing field should fall back to the default")
	}
	if _, ok := OurRobot(w, 1); !ok {
		t.Error("OurRobot(1) not found")
	}
	if _, ok := OurRobot(w, 2); ok {
		t.Error("OurRobot(2) should not exist")
	}

	feed := NewFeed()
	feed.Update(s)
	if feed.World().Tick() != 3 {
		t.Errorf("feed tick = %d, want 3", feed.World().Tick())
	}
}
