package ticktock

import "errors"

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------.

// ticktockError is the concrete type backing all sentinel errors.
type ticktockError string

// Sentinel errors returned by the suite components. Callers match them with
// [errors.Is]; component errors wrap them with call-site detail.
var (
	// ErrInvalidInput is returned when user-supplied input (timer fields,
	// times of day, recurrence names, zone names) cannot be used.
	ErrInvalidInput error = ticktockError("invalid input")
	// ErrNotRunning is returned by operations that require a running
	// stopwatch.
	ErrNotRunning error = ticktockError("not running")
	// ErrIndexOutOfRange is returned when a positional removal targets an
	// entry that does not exist.
	ErrIndexOutOfRange error = ticktockError("index out of range")
	// ErrNoBedtime is returned when a bedtime plan is requested but no
	// bedtime is stored.
	ErrNoBedtime error = ticktockError("no bedtime set")
)

func (e ticktockError) Error() string { return string(e) }

// IsInputError reports whether err stems from invalid user input, as opposed
// to a storage or scheduling failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrIndexOutOfRange)
}
