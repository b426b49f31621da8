package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed input: a bad location, an inverted
	// date range or a non-positive batch size. Nothing is dispatched.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSubmissionFailure marks a dispatch that was not accepted by the
	// transport. It is recorded per job and never aborts a run.
	ErrSubmissionFailure = errors.New("submission failed")

	// ErrTransportTimeout marks a submission that exceeded its deadline.
	// Errors wrapping it also match ErrSubmissionFailure.
	ErrTransportTimeout = errors.New("submission timed out")

	// ErrLocationNotFound is returned by stores when no location has the id.
	ErrLocationNotFound = errors.New("location not found")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// SubmissionError wraps a transport error as a submission failure.
func SubmissionError(unit string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSubmissionFailure, unit, err)
}

// TimeoutError reports a submission that hit its deadline.
func TimeoutError(unit string, err error) error {
	return fmt.Errorf("%w: %w: %s: %w", ErrSubmissionFailure, ErrTransportTimeout, unit, err)
}
