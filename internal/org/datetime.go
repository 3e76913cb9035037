package org

import (
	"fmt"
	"time"

	"orgagenda/internal/model"
)

// Normalize converts an instant into the display zone. The parser anchors
// date-only values at local midnight, so applying Normalize to an already
// normalized instant yields an equal instant.
func Normalize(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}

// Timestamp renders one org timestamp marker in the display zone, e.g.
// "<2020-03-19 Thu 10:30>". withTime selects between the date+time and the
// date-only form. The bracketed layout is a compatibility contract with the
// org agenda format and must not vary.
func Timestamp(t time.Time, loc *time.Location, withTime bool) string {
	layout := "<2006-01-02 Mon>"
	if withTime {
		layout = "<2006-01-02 Mon 15:04>"
	}
	return Normalize(t, loc).Format(layout)
}

// Interval renders the timestamp line for one occurrence interval.
//
// Durations that are a whole multiple of 24h render date-only; a multi-day
// run becomes an inclusive range ending on the last day (start+d-1s).
// Anything else renders a timed start--end pair. A non-positive duration is
// a caller error and is surfaced, never clamped.
func Interval(start time.Time, d time.Duration, loc *time.Location) (string, error) {
	if d <= 0 {
		return "", model.ErrInvalidDuration
	}
	if d%(24*time.Hour) == 0 {
		line := "  " + Timestamp(start, loc, false)
		if d > 24*time.Hour {
			line += "--" + Timestamp(start.Add(d-time.Second), loc, false)
		}
		return line + "\n", nil
	}
	return fmt.Sprintf("  %s--%s\n", Timestamp(start, loc, true), Timestamp(start.Add(d), loc, true)), nil
}
