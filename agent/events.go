package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nstehr/striker/model"
)

// EventKind identifies a change between consecutive world states that the
// agent reacts to.
type EventKind string

const (
	EventRefereeChanged    EventKind = "referee_changed"
	EventRobotLost         EventKind = "robot_lost"
	EventRobotJoined       EventKind = "robot_joined"
	EventGoalieLost        EventKind = "goalie_lost"
	EventPossessionChanged EventKind = "possession_changed"
	EventBallLost          EventKind = "ball_lost"
)

// Event is a significant change detected by diffing consecutive world
// states.
type Event struct {
	Kind   EventKind
	Tick   int
	Detail string
}

// stateSnapshot captures the diffable fields of a world state.
type stateSnapshot struct {
	referee     model.Referee
	robotIDs    map[int]bool // visible robots of ours
	weHaveBall  bool
	ballVisible bool
}

func takeSnapshot(s model.Snapshot) stateSnapshot {
	snap := stateSnapshot{
		referee:     s.Referee,
		robotIDs:    make(map[int]bool, len(s.Ours)),
		ballVisible: s.Ball.Visible,
	}
	for _, r := range s.Ours {
		if !r.Visible {
			continue
		}
		snap.robotIDs[r.ID] = true
		if r.HasBall {
			snap.weHaveBall = true
		}
	}
	return snap
}

// detectEvents compares the current world state against the previous
// snapshot and returns any triggered events. Returns nil if prev is nil
// (first tick).
func detectEvents(s model.Snapshot, goalieID int, prev *stateSnapshot) []Event {
	if prev == nil {
		return nil
	}

	var events []Event
	cur := takeSnapshot(s)

	// 1. referee_changed: any new referee command restarts play selection
	if prev.referee != cur.referee {
		events = append(events, Event{
			Kind:   EventRefereeChanged,
			Tick:   s.Tick,
			Detail: fmt.Sprintf("Referee: %s → %s", prev.referee, cur.referee),
		})
	}

	// 2. robot_lost / robot_joined / goalie_lost
	if lost := missing(prev.robotIDs, cur.robotIDs); len(lost) > 0 {
		events = append(events, Event{
			Kind:   EventRobotLost,
			Tick:   s.Tick,
			Detail: fmt.Sprintf("Robots lost: %v", lost),
		})
		if goalieID >= 0 && slices.Contains(lost, goalieID) {
			events = append(events, Event{
				Kind:   EventGoalieLost,
				Tick:   s.Tick,
				Detail: fmt.Sprintf("Goalie %d no longer visible", goalieID),
			})
		}
	}
	if joined := missing(cur.robotIDs, prev.robotIDs); len(joined) > 0 {
		events = append(events, Event{
			Kind:   EventRobotJoined,
			Tick:   s.Tick,
			Detail: fmt.Sprintf("Robots joined: %v", joined),
		})
	}

	// 3. possession_changed
	if prev.weHaveBall != cur.weHaveBall {
		detail := "Lost possession"
		if cur.weHaveBall {
			detail = "Gained possession"
		}
		events = append(events, Event{Kind: EventPossessionChanged, Tick: s.Tick, Detail: detail})
	}

	// 4. ball_lost: vision dropped the ball
	if prev.ballVisible && !cur.ballVisible {
		events = append(events, Event{Kind: EventBallLost, Tick: s.Tick, Detail: "Ball no longer visible"})
	}

	return events
}

// missing returns the IDs in prev that are absent from cur, ascending.
func missing(prev, cur map[int]bool) []int {
	var out []int
	for id := range prev {
		if !cur[id] {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// hasEvent reports whether events contains one of kind.
func hasEvent(events []Event, kind EventKind) bool {
	return slices.ContainsFunc(events, func(e Event) bool { return e.Kind == kind })
}

// formatEvents renders events on one line for logging.
func formatEvents(events []Event) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, fmt.Sprintf("[%s] %s", e.Kind, e.Detail))
	}
	return strings.Join(parts, "; ")
}
