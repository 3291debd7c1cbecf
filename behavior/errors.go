package behavior

import "errors"

// Wiring errors. They indicate a programming mistake in how a behavior was
// put together and are never recovered by the scheduler.
var (
	ErrInvalidDeclaration = errors.New("invalid declaration")
	ErrDuplicateName      = errors.New("duplicate sub-behavior name")
	ErrNotFound           = errors.New("sub-behavior not found")
	ErrOverAssignment     = errors.New("too many robots assigned")
)

// IsStructural reports whether err stems from a wiring mistake rather than a
// runtime fault in behavior logic.
func IsStructural(err error) bool {
	return errors.Is(err, ErrInvalidDeclaration) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOverAssignment)
}
