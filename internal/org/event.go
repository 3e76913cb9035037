package org

import (
	"strconv"
	"strings"
	"time"

	"orgagenda/internal/model"
)

// Event adapts one merged agenda entry to the renderer. Interval lines are
// computed once at construction; rendering is pure afterwards.
type Event struct {
	record model.EventRecord
	dates  string
}

// NewEvent builds the renderable event, formatting every occurrence interval
// in the display zone.
func NewEvent(entry model.AgendaEntry, loc *time.Location) (*Event, error) {
	var b strings.Builder
	for _, occ := range entry.Occurrences {
		line, err := Interval(occ.Start, occ.Duration, loc)
		if err != nil {
			return nil, err
		}
		b.WriteString(line)
	}
	return &Event{record: entry.Record, dates: b.String()}, nil
}

func (e *Event) Heading() string { return e.record.Title }

// Tags maps the record categories to org heading tags: spaces become
// hyphens so a tag never splits, order is preserved.
func (e *Event) Tags() []string {
	tags := make([]string, 0, len(e.record.Tags))
	for _, tag := range e.record.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, strings.ReplaceAll(tag, " ", "-"))
	}
	return tags
}

// Properties lists the drawer entries in their fixed order: LOCATION, ID,
// RRULE, then one APPT_WARNTIME per alarm. Empty values are dropped by the
// renderer.
func (e *Event) Properties() []model.Property {
	props := []model.Property{
		{Key: "LOCATION", Value: e.record.Location},
		{Key: "ID", Value: e.record.SeriesID},
		{Key: "RRULE", Value: e.record.RRule},
	}
	for _, min := range e.record.AlarmsMin {
		props = append(props, model.Property{Key: "APPT_WARNTIME", Value: strconv.Itoa(min)})
	}
	return props
}

func (e *Event) Timestamps() string { return e.dates }

func (e *Event) Body() string { return e.record.Description }
