package agent

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nstehr/striker/ipc"
	"github.com/nstehr/striker/model"
	"github.com/nstehr/striker/play"
	"github.com/nstehr/striker/playbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, msgType string, data any) ipc.Envelope {
	t.Helper()
	env, err := ipc.NewEnvelope(msgType, data)
	require.NoError(t, err)
	return env
}

func newTestAgent(t *testing.T, store *playbook.Store, obs play.Observer) *Agent {
	t.Helper()
	if store == nil {
		store = playbook.NewStore("")
		_, err := store.Reload()
		require.NoError(t, err)
	}
	return New(ipc.NewConnection(nil, nil), Options{
		Playbook: store,
		Observer: obs,
		GoalieID: play.NoGoalie,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func tick(t *testing.T, a *Agent, w model.Snapshot) ipc.CommandsMessage {
	t.Helper()
	reply, err := a.HandleWorldState(envelope(t, ipc.TypeWorldState, w))
	require.NoError(t, err)
	require.NotNil(t, reply)
	require.Equal(t, ipc.TypeCommands, reply.Type)

	var msg ipc.CommandsMessage
	require.NoError(t, json.Unmarshal(reply.Data, &msg))
	return msg
}

func commandsFor(msg ipc.CommandsMessage, id int, kind model.CommandKind) []model.Command {
	var out []model.Command
	for _, c := range msg.Commands {
		if c.RobotID == id && c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestAgent_Hello(t *testing.T) {
	a := newTestAgent(t, nil, nil)
	goalie := 0
	reply, err := a.HandleHello(envelope(t, ipc.TypeHello, ipc.HelloMessage{Team: "blue", GoalieID: &goalie}))
	require.NoError(t, err)
	assert.Equal(t, ipc.TypeAck, reply.Type)
	assert.Equal(t, "blue", a.Team)
	assert.Equal(t, "blue", a.Conn.Team)

	id, ok := a.Root().GoalieID()
	assert.True(t, ok)
	assert.Equal(t, 0, id)
}

func TestAgent_HelloRejectsBadInput(t *testing.T) {
	a := newTestAgent(t, nil, nil)

	_, err := a.HandleHello(ipc.Envelope{Type: ipc.TypeHello, Data: []byte(`{"team":`)})
	assert.Error(t, err)

	bad := model.Field{Length: 9, Width: 6, GoalWidth: 7}
	_, err = a.HandleHello(envelope(t, ipc.TypeHello, ipc.HelloMessage{Field: &bad}))
	assert.ErrorContains(t, err, "invalid field")

	goalie := -4
	_, err = a.HandleHello(envelope(t, ipc.TypeHello, ipc.HelloMessage{GoalieID: &goalie}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ipc.ErrFatal), "bad goalie id is not fatal")
}

func TestAgent_ControlCycle(t *testing.T) {
	var changes []play.PlayChange
	obs := play.ObserverFunc(func(c play.PlayChange) error {
		changes = append(changes, c)
		return nil
	})
	a := newTestAgent(t, nil, obs)

	_, err := a.HandleGoalie(envelope(t, ipc.TypeGoalie, ipc.GoalieMessage{GoalieID: 0}))
	require.NoError(t, err)

	w := baseWorld(1)
	w.Referee = model.RefTheirPenalty
	w.Ball.Pos = model.Point{X: 0, Y: 1}

	msg := tick(t, a, w)
	assert.Equal(t, 1, msg.Tick)
	assert.Equal(t, "defend_penalty", msg.Play)

	// Field robots line up; the goalie is driven by the goalie behavior.
	assert.Equal(t, model.Point{X: -1.5, Y: 2.4}, commandsFor(msg, 1, model.CmdMove)[0].Target)
	assert.Equal(t, model.Point{X: -0.9, Y: 2.4}, commandsFor(msg, 2, model.CmdMove)[0].Target)
	goalieMoves := commandsFor(msg, 0, model.CmdMove)
	require.Len(t, goalieMoves, 1)
	assert.Less(t, goalieMoves[0].Target.Y, 0.5)

	// Selection is sticky while the referee command holds.
	w.Tick = 2
	assert.Equal(t, "defend_penalty", tick(t, a, w).Play)

	// A new referee command forces reselection.
	w.Tick = 3
	w.Referee = model.RefPlaying
	assert.Equal(t, "attack", tick(t, a, w).Play)

	var reasons []play.Reason
	for _, c := range changes {
		reasons = append(reasons, c.Reason)
	}
	assert.Equal(t, []play.Reason{play.ReasonSelected, play.ReasonDropped, play.ReasonSelected}, reasons)
	assert.Equal(t, "defend_penalty", changes[1].Previous)
	assert.Equal(t, 3, changes[2].Tick)
}

func TestAgent_RosterChangesReachPlay(t *testing.T) {
	a := newTestAgent(t, nil, nil)

	w := baseWorld(1)
	tick(t, a, w)
	assert.Equal(t, []int{0, 1, 2}, model.RobotIDs(a.Root().Robots()))

	w.Tick = 2
	w.Ours = w.Ours[:2]
	msg := tick(t, a, w)
	assert.Equal(t, []int{0, 1}, model.RobotIDs(a.Root().Robots()))
	assert.Empty(t, commandsFor(msg, 2, model.CmdMove))
}

const onePlay = `
version: "1"
plays:
  - name: only
    continuous: true
    score: "1.0"
    states:
      - {name: running, stop: true}
    transitions:
      - {from: start, to: running, when: "true"}
`

func TestAgent_PlaybookReload(t *testing.T) {
	store := playbook.NewStore("")
	_, err := store.Reload()
	require.NoError(t, err)
	a := newTestAgent(t, store, nil)

	w := baseWorld(1)
	assert.Equal(t, "attack", tick(t, a, w).Play)

	// Swap in a file-backed store. It is reloaded twice so its generation
	// differs from the one already applied. The agent picks it up on the
	// next world state without a referee change.
	path := filepath.Join(t.TempDir(), "playbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(onePlay), 0o644))
	file := playbook.NewStore(path)
	_, err = file.Reload()
	require.NoError(t, err)
	_, err = file.Reload()
	require.NoError(t, err)
	a.store = file

	w.Tick = 2
	msg := tick(t, a, w)
	assert.Equal(t, "only", msg.Play)
	for _, c := range msg.Commands {
		assert.Equal(t, model.CmdStop, c.Kind)
	}
	assert.Nil(t, a.Root().GoalieBehavior(), "playbook without a goalie")
}

func TestAgent_BadWorldState(t *testing.T) {
	a := newTestAgent(t, nil, nil)
	_, err := a.HandleWorldState(ipc.Envelope{Type: ipc.TypeWorldState, Data: []byte(`[]`)})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ipc.ErrFatal))
}

func TestAgent_UsesConfiguredField(t *testing.T) {
	a := newTestAgent(t, nil, nil)
	f := model.DefaultField()
	f.Length = 12
	a.field = &f

	tick(t, a, baseWorld(1))
	assert.Equal(t, 12.0, a.feed.World().Field().Length)
}
