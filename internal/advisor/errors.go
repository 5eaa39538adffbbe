package advisor

import (
	"errors"

	"github.com/hyperjump/shindan/internal/storage"
)

var (
	// ErrInvalidInput marks user-correctable request problems.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLookupFailure marks an unreachable or failing data source.
	ErrLookupFailure = errors.New("lookup failure")
)

// InputError carries a user-facing message and matches ErrInvalidInput.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Msg
}

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(msg string) error {
	return &InputError{Msg: msg}
}

// UserMessage returns the message to show a caller for err.
func UserMessage(err error) string {
	var in *InputError
	if errors.As(err, &in) {
		return in.Msg
	}
	if errors.Is(err, storage.ErrNotFound) {
		return "Not found"
	}
	if errors.Is(err, ErrLookupFailure) {
		return "Service temporarily unavailable. Please try again later."
	}
	return "An unexpected error occurred."
}
