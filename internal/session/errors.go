package session

import "errors"

// EmptyInputNotice is shown to the user when a submission has nothing to send.
const EmptyInputNotice = "Please select a question from sheet or enter a DSA question."

// FailureText is the Bot message appended when a request cannot be answered.
const FailureText = "Error: Unable to fetch response."

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInFlight is returned when a mode already has an outstanding request.
	ErrInFlight = errors.New("request already in flight")
	// ErrInvalidMode is returned for task modes outside the closed set.
	ErrInvalidMode = errors.New("invalid task mode")
)

// ValidationError reports a submission rejected before any request was made.
type ValidationError struct {
	Notice string
}

func (e *ValidationError) Error() string { return e.Notice }

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
