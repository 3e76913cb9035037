package model

import "time"

// Property is one key/value pair destined for a property drawer. Order
// matters; duplicate keys are allowed (e.g. one APPT_WARNTIME per alarm).
type Property struct {
	Key   string
	Value string
}

// EventRecord is one VEVENT as parsed from a calendar payload.
//
// All records sharing a SeriesID describe one logical series: exactly one of
// them (the base) has OverrideOf == nil and may carry a recurrence rule; the
// others each replace a single occurrence of the base.
type EventRecord struct {
	SourceID string

	// SeriesID is the iCalendar UID. Empty only for a standalone record.
	SeriesID string

	// OverrideOf is the original start instant of the occurrence this
	// record replaces (RECURRENCE-ID). Nil on the base record.
	OverrideOf *time.Time

	Start    time.Time
	Duration time.Duration
	AllDay   bool

	// RRule is the normalized recurrence rule string (UNTIL rewritten to
	// UTC). Empty for non-recurring records.
	RRule   string
	ExDates []time.Time

	// Cancelled marks an override carrying STATUS:CANCELLED; it suppresses
	// its base occurrence without materializing a replacement.
	Cancelled bool

	Title       string
	Location    string
	Description string
	Tags        []string

	// AlarmsMin holds the minutes-before value derived from each VALARM.
	AlarmsMin []int
}

// Occurrence is one concrete interval of an appointment, ready to render.
type Occurrence struct {
	Start    time.Time
	Duration time.Duration
}

// AgendaEntry is what the renderer consumes: one record plus the concrete
// intervals it contributes inside the window. A base entry may carry many
// intervals; an override entry carries exactly one.
type AgendaEntry struct {
	Record      EventRecord
	Occurrences []Occurrence
}

// Window is the half-open time range [Start, End) of one invocation.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow anchors a window at now, spanning back days into the past and
// ahead days into the future.
func NewWindow(now time.Time, back, ahead int) Window {
	return Window{
		Start: now.AddDate(0, 0, -back),
		End:   now.AddDate(0, 0, ahead),
	}
}

// Contains reports whether the instant t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Intersects reports whether the interval [start, start+d) overlaps the
// window.
func (w Window) Intersects(start time.Time, d time.Duration) bool {
	return start.Before(w.End) && start.Add(d).After(w.Start)
}
