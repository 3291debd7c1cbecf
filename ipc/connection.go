package ipc

import (
	"errors"
	"io"
	"log/slog"
	"net"
)

// ErrFatal marks a handler error that must end the session.
var ErrFatal = errors.New("fatal")

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is a single simulator bridge talking to the engine. Each
// team gets its own connection, identified after the hello handshake.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	Team     string
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return WriteEnvelope(c.conn, env)
}

// ReadLoop blocks until the connection closes, errors, or a handler fails
// with ErrFatal. It owns the conn lifetime so callers don't need to track
// cleanup. A clean close by the peer returns nil.
func (c *Connection) ReadLoop() error {
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				slog.Info("connection closed", "team", c.Team)
				return nil
			}
			slog.Info("connection read ended", "team", c.Team, "error", err)
			return err
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			if errors.Is(err, ErrFatal) {
				slog.Error("fatal handler error, closing connection", "type", env.Type, "team", c.Team, "error", err)
				return err
			}
			slog.Error("handler error", "type", env.Type, "error", err)
			continue
		}

		if resp != nil {
			if err := WriteEnvelope(c.conn, *resp); err != nil {
				slog.Error("failed to send response", "type", resp.Type, "error", err)
				return err
			}
			slog.Debug("sent response", "type", resp.Type, "team", c.Team)
		}
	}
}
