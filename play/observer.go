package play

import (
	"errors"
	"fmt"
)

// NoPlay is reported as the play name when none is installed.
const NoPlay = "(No Play)"

// Reason explains why the active play changed.
type Reason string

const (
	ReasonSelected Reason = "selected"
	ReasonFault    Reason = "fault"
	ReasonFinished Reason = "finished"
	ReasonDropped  Reason = "dropped"
)

// PlayChange is emitted whenever the active play changes.
type PlayChange struct {
	Previous   string `json:"previous"`
	Current    string `json:"current"`
	InstanceID string `json:"instance_id,omitempty"` // the selected instance, repeated when it is evicted
	Tick       int    `json:"tick"`
	Reason     Reason `json:"reason"`
}

// Observer is notified synchronously from the scheduler. Failures are logged
// and never affect the tick, but implementations must still return quickly.
type Observer interface {
	PlayChanged(PlayChange) error
}

type ObserverFunc func(PlayChange) error

func (f ObserverFunc) PlayChanged(c PlayChange) error { return f(c) }

// MultiObserver fans a change out to several observers. Every observer is
// called even when an earlier one fails or panics.
type MultiObserver []Observer

func (m MultiObserver) PlayChanged(c PlayChange) error {
	var errs []error
	for i, o := range m {
		if err := deliver(o, c); err != nil {
			errs = append(errs, fmt.Errorf("observer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func deliver(o Observer, c PlayChange) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return o.PlayChanged(c)
}
