package extract

import (
	"errors"
	"fmt"

	"covergap/internal/model"
)

// LineError wraps a recoverable token failure with the line it came from.
type LineError struct {
	Line  int
	Text  string
	Token string
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v (token: %q)", e.Line, e.Err, e.Token)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

var (
	ErrInvalidTime = errors.New("invalid time")
	ErrInvalidDate = errors.New("invalid date")

	// ErrNoEvents is returned by callers (never by the extractor itself) when
	// nothing could be extracted from an input.
	ErrNoEvents = errors.New("no events found")
)

// RequireEvents turns an empty extraction result into ErrNoEvents.
func RequireEvents(events []model.Event) error {
	if len(events) == 0 {
		return ErrNoEvents
	}
	return nil
}

// lineErrors flattens an error returned by a strategy (possibly built with
// errors.Join) into its LineError parts.
func lineErrors(err error) []*LineError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*LineError
		for _, e := range joined.Unwrap() {
			out = append(out, lineErrors(e)...)
		}
		return out
	}
	var le *LineError
	if errors.As(err, &le) {
		return []*LineError{le}
	}
	return []*LineError{{Err: err}}
}
