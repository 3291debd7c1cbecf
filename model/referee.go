package model

// Referee is the current referee command as relayed by the feed. Commands
// naming a team are from our point of view ("our_penalty", "their_kickoff").
type Referee string

// These constants must stay in sync with the referee relay in the simulator.
const (
	RefHalt          Referee = "halt"
	RefStop          Referee = "stop"
	RefReady         Referee = "ready"
	RefForceStart    Referee = "force_start"
	RefOurKickoff    Referee = "our_kickoff"
	RefTheirKickoff  Referee = "their_kickoff"
	RefOurPenalty    Referee = "our_penalty"
	RefTheirPenalty  Referee = "their_penalty"
	RefOurDirect     Referee = "our_direct"
	RefTheirDirect   Referee = "their_direct"
	RefOurIndirect   Referee = "our_indirect"
	RefTheirIndirect Referee = "their_indirect"
	RefOurTimeout    Referee = "our_timeout"
	RefTheirTimeout  Referee = "their_timeout"
	RefPlaying       Referee = "playing"
)

func (r Referee) IsHalted() bool  { return r == RefHalt || r == RefOurTimeout || r == RefTheirTimeout }
func (r Referee) IsStopped() bool { return r == RefStop }
func (r Referee) IsPlaying() bool { return r == RefPlaying || r == RefForceStart }

// IsSetup reports whether a restart is being set up: robots may position but
// the ball is not yet in play.
func (r Referee) IsSetup() bool {
	switch r {
	case RefOurKickoff, RefTheirKickoff, RefOurPenalty, RefTheirPenalty:
		return true
	}
	return false
}

func (r Referee) IsOurPenalty() bool   { return r == RefOurPenalty }
func (r Referee) IsTheirPenalty() bool { return r == RefTheirPenalty }
func (r Referee) IsOurKickoff() bool   { return r == RefOurKickoff }
func (r Referee) IsTheirKickoff() bool { return r == RefTheirKickoff }

func (r Referee) IsOurFreeKick() bool {
	return r == RefOurDirect || r == RefOurIndirect
}

func (r Referee) IsTheirFreeKick() bool {
	return r == RefTheirDirect || r == RefTheirIndirect
}
