package play

import (
	"errors"
	"fmt"

	"github.com/nstehr/striker/behavior"
)

var (
	// ErrStrategyFault marks a runtime failure in play logic: scoring,
	// construction, robot assignment or ticking. The scheduler contains it.
	ErrStrategyFault = errors.New("strategy fault")

	// ErrObserverFault marks a failing play-change observer. It is logged and
	// otherwise ignored.
	ErrObserverFault = errors.New("observer fault")

	ErrDuplicatePlay = errors.New("duplicate play")
	ErrUnknownPlay   = errors.New("unknown play")
)

// FaultError records which play failed and at which stage.
type FaultError struct {
	Play  string
	Stage string // "score", "construct", "assign", "tick"
	Err   error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("play %q: %s: %v", e.Play, e.Stage, e.Err)
}

func (e *FaultError) Unwrap() []error { return []error{ErrStrategyFault, e.Err} }

// contain runs fn on behalf of a play, turning returned errors and panics
// into a *FaultError. Wiring errors are passed through untouched so they
// keep surfacing.
func contain(play, stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Play: play, Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := fn(); err != nil {
		if behavior.IsStructural(err) {
			return err
		}
		return &FaultError{Play: play, Stage: stage, Err: err}
	}
	return nil
}
