// Package telemetry publishes active-play changes to Redis so dashboards
// can follow what each session is doing.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nstehr/striker/play"
	"github.com/redis/go-redis/v9"
)

// ErrBufferFull is returned by an observer when the publisher is too far
// behind. The change is dropped.
var ErrBufferFull = errors.New("telemetry buffer full")

// historyLen caps the per-session change history list.
const historyLen = 100

// Event is the JSON document published for every play change.
type Event struct {
	Session string `json:"session"`
	play.PlayChange
	At time.Time `json:"at"`
}

// ChangesChannel is the pub/sub channel events are published on.
func ChangesChannel(prefix string) string { return prefix + ":play_changes" }

// PlayKey holds the name of a session's active play.
func PlayKey(prefix, session string) string { return prefix + ":session:" + session + ":play" }

// HistoryKey is a capped list of a session's recent events, newest first.
func HistoryKey(prefix, session string) string { return prefix + ":session:" + session + ":history" }

// Publisher forwards play changes to Redis from its own goroutine. The
// observers it hands out never block the tick: changes are queued on a
// buffered channel and dropped when the queue is full.
type Publisher struct {
	rdb     *redis.Client
	prefix  string
	events  chan Event
	dropped atomic.Uint64
}

func NewPublisher(opts *redis.Options, prefix string, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Publisher{
		rdb:    redis.NewClient(opts),
		prefix: prefix,
		events: make(chan Event, buffer),
	}
}

// Ping verifies Redis connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// Dropped returns how many changes were discarded because the queue was full.
func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

// Observer returns a play observer that tags changes with session.
func (p *Publisher) Observer(session string) play.Observer {
	return play.ObserverFunc(func(c play.PlayChange) error {
		e := Event{Session: session, PlayChange: c, At: time.Now().UTC()}
		select {
		case p.events <- e:
			return nil
		default:
			p.dropped.Add(1)
			return ErrBufferFull
		}
	})
}

// Run publishes queued events until ctx is cancelled. Publish failures are
// logged and the event is dropped.
func (p *Publisher) Run(ctx context.Context) {
	slog.Info("telemetry publisher started", "channel", ChangesChannel(p.prefix))
	for {
		select {
		case <-ctx.Done():
			slog.Info("telemetry publisher stopped", "dropped", p.Dropped())
			return
		case e := <-p.events:
			if err := p.publish(ctx, e); err != nil {
				slog.Warn("telemetry publish failed", "session", e.Session, "play", e.Current, "error", err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Set(ctx, PlayKey(p.prefix, e.Session), e.Current, 0)
	pipe.LPush(ctx, HistoryKey(p.prefix, e.Session), payload)
	pipe.LTrim(ctx, HistoryKey(p.prefix, e.Session), 0, historyLen-1)
	pipe.Publish(ctx, ChangesChannel(p.prefix), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish play change: %w", err)
	}
	return nil
}
