package org

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgagenda/internal/model"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestNormalizeIdempotent(t *testing.T) {
	loc := berlin(t)
	ts := time.Date(2020, 3, 19, 17, 30, 0, 0, time.UTC)

	once := Normalize(ts, loc)
	twice := Normalize(once, loc)

	assert.True(t, once.Equal(ts))
	assert.Equal(t, once, twice)
}

func TestTimestamp(t *testing.T) {
	loc := berlin(t)
	ts := time.Date(2020, 3, 19, 17, 30, 0, 0, time.UTC)

	assert.Equal(t, "<2020-03-19 Thu 18:30>", Timestamp(ts, loc, true))
	assert.Equal(t, "<2020-03-19 Thu>", Timestamp(ts, loc, false))
}

func TestInterval(t *testing.T) {
	loc := berlin(t)

	tests := []struct {
		name  string
		start time.Time
		d     time.Duration
		want  string
	}{
		{
			name:  "timed",
			start: time.Date(2020, 3, 19, 10, 30, 0, 0, loc),
			d:     time.Hour,
			want:  "  <2020-03-19 Thu 10:30>--<2020-03-19 Thu 11:30>\n",
		},
		{
			name:  "single all-day",
			start: time.Date(2020, 3, 12, 0, 0, 0, 0, loc),
			d:     24 * time.Hour,
			want:  "  <2020-03-12 Thu>\n",
		},
		{
			name:  "multi-day inclusive range",
			start: time.Date(2020, 3, 12, 0, 0, 0, 0, loc),
			d:     72 * time.Hour,
			want:  "  <2020-03-12 Thu>--<2020-03-14 Sat>\n",
		},
		{
			name:  "crosses midnight",
			start: time.Date(2020, 3, 19, 23, 0, 0, 0, loc),
			d:     2 * time.Hour,
			want:  "  <2020-03-19 Thu 23:00>--<2020-03-20 Fri 01:00>\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Interval(tc.start, tc.d, loc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIntervalInvalidDuration(t *testing.T) {
	loc := berlin(t)
	start := time.Date(2020, 3, 19, 10, 30, 0, 0, loc)

	_, err := Interval(start, 0, loc)
	assert.ErrorIs(t, err, model.ErrInvalidDuration)

	_, err = Interval(start, -time.Hour, loc)
	assert.ErrorIs(t, err, model.ErrInvalidDuration)
}

func TestTagSuffix(t *testing.T) {
	assert.Equal(t, "", TagSuffix(nil))
	assert.Equal(t, "", TagSuffix([]string{"", ""}))
	assert.Equal(t, "  :pets:dragons:", TagSuffix([]string{"pets", "dragons"}))
	assert.Equal(t, "  :pets:dragons:", TagSuffix([]string{"pets", "dragons", "pets"}))
}

func TestPropertyBox(t *testing.T) {
	assert.Equal(t, "", PropertyBox(nil))
	assert.Equal(t, "", PropertyBox([]model.Property{{Key: "LOCATION", Value: ""}}))

	got := PropertyBox([]model.Property{
		{Key: "Location", Value: "forest"},
		{Key: "ID", Value: ""},
		{Key: "NOTE", Value: "first line\nsecond line"},
	})
	assert.Equal(t, ":PROPERTIES:\n:LOCATION: forest\n:NOTE: first line, second line\n:END:\n", got)
}

func TestRenderEvent(t *testing.T) {
	loc := berlin(t)
	entry := model.AgendaEntry{
		Record: model.EventRecord{
			SeriesID:    "first",
			Title:       "Feed the dragons",
			Location:    "forest",
			Description: "take some meat",
			Tags:        []string{"pets", "dragons", "shopping"},
		},
		Occurrences: []model.Occurrence{{
			Start:    time.Date(2020, 3, 19, 10, 30, 0, 0, loc),
			Duration: time.Hour,
		}},
	}

	ev, err := NewEvent(entry, loc)
	require.NoError(t, err)

	want := "* Feed the dragons  :pets:dragons:shopping:\n" +
		":PROPERTIES:\n" +
		":LOCATION: forest\n" +
		":ID: first\n" +
		":END:\n" +
		"  <2020-03-19 Thu 10:30>--<2020-03-19 Thu 11:30>\n" +
		"take some meat"
	assert.Equal(t, want, Render(ev))
}

func TestEventTags(t *testing.T) {
	ev := &Event{record: model.EventRecord{Tags: []string{"day trip", "fun"}}}
	assert.Equal(t, []string{"day-trip", "fun"}, ev.Tags())
}

func TestEventProperties(t *testing.T) {
	ev := &Event{record: model.EventRecord{
		SeriesID:  "uid-1",
		Location:  "train",
		RRule:     "FREQ=WEEKLY;BYDAY=TH",
		AlarmsMin: []int{60, 15},
	}}

	assert.Equal(t, []model.Property{
		{Key: "LOCATION", Value: "train"},
		{Key: "ID", Value: "uid-1"},
		{Key: "RRULE", Value: "FREQ=WEEKLY;BYDAY=TH"},
		{Key: "APPT_WARNTIME", Value: "60"},
		{Key: "APPT_WARNTIME", Value: "15"},
	}, ev.Properties())
}
