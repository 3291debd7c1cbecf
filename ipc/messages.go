package ipc

import "github.com/nstehr/striker/model"

// These constants must stay in sync with the simulator bridge.
const (
	TypeHello      = "hello"
	TypeAck        = "ack"
	TypeWorldState = "world_state"
	TypeGoalie     = "goalie"
	TypeCommands   = "commands"
)

// HelloMessage opens a session. Field overrides the default dimensions;
// GoalieID, when present, assigns the goalie up front (-1 for none).
type HelloMessage struct {
	Team     string       `json:"team"`
	Field    *model.Field `json:"field,omitempty"`
	GoalieID *int         `json:"goalie_id,omitempty"`
}

type AckMessage struct {
	Status string `json:"status"`
}

// GoalieMessage changes the goalie robot mid-session.
type GoalieMessage struct {
	GoalieID int `json:"goalie_id"`
}

// CommandsMessage answers a world_state with the robot commands issued
// during that tick.
type CommandsMessage struct {
	Tick     int             `json:"tick"`
	Play     string          `json:"play"`
	Commands []model.Command `json:"commands"`
}
