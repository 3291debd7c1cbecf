package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/nstehr/striker/agent"
	"github.com/nstehr/striker/config"
	"github.com/nstehr/striker/ipc"
	"github.com/nstehr/striker/playbook"
	"github.com/nstehr/striker/telemetry"
)

// server accepts bridge connections and runs one agent per connection.
// All agents share the playbook store; each has its own scheduler.
type server struct {
	cfg       *config.Config
	store     *playbook.Store
	publisher *telemetry.Publisher // nil when telemetry is off

	wg sync.WaitGroup
}

func newServer(cfg *config.Config, store *playbook.Store) *server {
	return &server{cfg: cfg, store: store}
}

// Serve accepts connections until the listener is closed, then waits for
// open sessions to finish. Closing the listener is the caller's job.
func (s *server) Serve(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}

		session := uuid.NewString()
		slog.Info("new connection accepted", "session", session)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn, session)
		}()
	}
}

func (s *server) handleConn(ctx context.Context, conn net.Conn, session string) {
	log := slog.Default().With("session", session)

	// Unblock the read loop on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	field := s.cfg.Field
	opts := agent.Options{
		Playbook: s.store,
		Field:    &field,
		GoalieID: s.cfg.Goalie,
		Logger:   log,
	}
	if s.publisher != nil {
		opts.Observer = s.publisher.Observer(session)
	}

	c := ipc.NewConnection(conn, nil)
	agent.New(c, opts).Register()
	if err := c.ReadLoop(); err != nil {
		log.Error("session ended with error", "team", c.Team, "error", err)
		return
	}
	log.Info("session ended", "team", c.Team)
}
