package model

import (
	"errors"
	"fmt"
)

// ErrInvalidDuration reports a zero or negative duration reaching the
// interval formatter. It is surfaced to the caller, never clamped.
var ErrInvalidDuration = errors.New("interval duration must be positive")

// MalformedSeriesError marks a series whose records cannot be reconciled,
// e.g. overrides without any base definition or an unparsable recurrence
// rule. The affected series is skipped; other series still produce output.
type MalformedSeriesError struct {
	SeriesID string
	Reason   string
}

func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("malformed series %q: %s", e.SeriesID, e.Reason)
}
