package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nstehr/striker/behavior"
	"github.com/nstehr/striker/ipc"
	"github.com/nstehr/striker/model"
	"github.com/nstehr/striker/play"
	"github.com/nstehr/striker/playbook"
)

// Options configures a new Agent.
type Options struct {
	Playbook *playbook.Store
	Observer play.Observer
	Field    *model.Field // nil uses the default field unless hello overrides it
	GoalieID int          // play.NoGoalie for none
	Logger   *slog.Logger
}

// Agent owns the decision-making for a single team session. All of its
// state is touched only from the connection's read loop.
type Agent struct {
	Conn *ipc.Connection
	Team string

	log      *slog.Logger
	store    *playbook.Store
	applied  uint64
	field    *model.Field
	feed     *model.Feed
	batch    *ipc.CommandBatch
	roster   *model.Roster
	registry *play.Registry
	root     *play.RootPlay
	prev     *stateSnapshot
}

func New(conn *ipc.Connection, opts Options) *Agent {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	batch := ipc.NewCommandBatch()
	a := &Agent{
		Conn:     conn,
		log:      log,
		store:    opts.Playbook,
		field:    opts.Field,
		feed:     model.NewFeed(),
		batch:    batch,
		roster:   model.NewRoster(batch),
		registry: play.NewRegistry(),
	}
	a.root = play.NewRootPlay(a.registry, a.feed, play.WithObserver(opts.Observer), play.WithLogger(log))
	if err := a.root.SetGoalieID(opts.GoalieID); err != nil {
		log.Warn("ignoring configured goalie", "goalie", opts.GoalieID, "error", err)
	}
	return a
}

// Register installs the agent's handlers on its connection.
func (a *Agent) Register() {
	a.Conn.RegisterHandler(ipc.TypeHello, a.HandleHello)
	a.Conn.RegisterHandler(ipc.TypeWorldState, a.HandleWorldState)
	a.Conn.RegisterHandler(ipc.TypeGoalie, a.HandleGoalie)
}

// Root exposes the play scheduler driven by this agent.
func (a *Agent) Root() *play.RootPlay { return a.root }

// HandleHello completes the handshake so the bridge knows the engine is ready.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	if hello.Field != nil {
		if !hello.Field.Valid() {
			return nil, fmt.Errorf("hello: invalid field dimensions %+v", *hello.Field)
		}
		a.field = hello.Field
	}
	if hello.GoalieID != nil {
		if err := a.setGoalie(*hello.GoalieID); err != nil {
			return nil, err
		}
	}

	a.Team = hello.Team
	a.Conn.Team = hello.Team
	goalie, _ := a.root.GoalieID()
	a.log.Info("team identified", "team", a.Team, "goalie", goalie)

	return ack()
}

// HandleGoalie changes the goalie robot.
func (a *Agent) HandleGoalie(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.GoalieMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal goalie: %w", err)
	}
	if err := a.setGoalie(msg.GoalieID); err != nil {
		return nil, err
	}
	return ack()
}

// HandleWorldState runs one control cycle: refresh the world and roster,
// react to referee and roster changes, tick the scheduler and answer with
// the commands issued during the tick.
func (a *Agent) HandleWorldState(env ipc.Envelope) (*ipc.Envelope, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal world state: %w", err)
	}
	if snap.Field == nil {
		snap.Field = a.field
	}

	a.feed.Update(snap)
	if err := a.syncPlaybook(); err != nil {
		return nil, err
	}

	goalie, _ := a.root.GoalieID()
	events := detectEvents(snap, goalie, a.prev)
	cur := takeSnapshot(snap)
	a.prev = &cur
	if len(events) > 0 {
		a.log.Info("world events", "tick", snap.Tick, "events", formatEvents(events))
	}
	if hasEvent(events, EventRefereeChanged) {
		a.root.DropCurrentPlay()
	}

	if a.roster.Update(snap.Ours) {
		if err := a.root.SetRobots(a.roster.Robots()); err != nil {
			return nil, fatal("assign robots", err)
		}
	}

	if err := a.root.Tick(); err != nil {
		if behavior.IsStructural(err) {
			return nil, fatal("tick", err)
		}
		a.log.Error("tick failed", "tick", snap.Tick, "error", err)
	}

	cmds := a.batch.Flush()
	a.log.Debug("tick complete", "tick", snap.Tick, "play", a.root.CurrentPlayName(), "commands", len(cmds))

	reply, err := ipc.NewEnvelope(ipc.TypeCommands, ipc.CommandsMessage{
		Tick:     snap.Tick,
		Play:     a.root.CurrentPlayName(),
		Commands: cmds,
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// syncPlaybook installs a newer playbook generation, if any. The current
// play and goalie were built from the old definitions, so both are
// rebuilt.
func (a *Agent) syncPlaybook() error {
	if a.store == nil {
		return nil
	}
	cur := a.store.Current()
	if cur == nil || cur.Version == a.applied {
		return nil
	}

	if err := a.registry.Swap(cur.Entries); err != nil {
		a.log.Error("playbook rejected, keeping previous", "version", cur.Version, "error", err)
		a.applied = cur.Version
		return nil
	}
	a.root.DropCurrentPlay()
	if err := a.root.SetGoalieFactory(cur.Goalie); err != nil {
		return fatal("install goalie", err)
	}
	a.applied = cur.Version
	a.log.Info("playbook applied", "team", a.Team, "version", cur.Version, "source", cur.Source)
	return nil
}

func (a *Agent) setGoalie(id int) error {
	if err := a.root.SetGoalieID(id); err != nil {
		if behavior.IsStructural(err) {
			return fatal("set goalie", err)
		}
		return fmt.Errorf("set goalie: %w", err)
	}
	return nil
}

func fatal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ipc.ErrFatal, op, err)
}

func ack() (*ipc.Envelope, error) {
	env, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok"})
	if err != nil {
		return nil, err
	}
	return &env, nil
}
