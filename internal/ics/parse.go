// Package ics turns iCalendar payloads into event records and expands them
// into concrete occurrences inside a time window.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "orgagenda/internal/log"
	"orgagenda/internal/model"
)

// Parse parses a single calendar payload into event records. Date-only and
// floating values are anchored in loc; zoned values keep their own zone
// until rendering.
//
// Events that cannot be parsed are logged and skipped; the rest of the
// payload is still processed.
func Parse(src Source, body []byte, loc *time.Location) ([]model.EventRecord, error) {
	if len(body) == 0 {
		return nil, errors.New("empty calendar payload")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	records := make([]model.EventRecord, 0)
	for _, ve := range cal.Events() {
		rec, perr := parseVEvent(src, ve, loc)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		records = append(records, rec)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(records))
	return records, nil
}

func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (model.EventRecord, error) {
	rec := model.EventRecord{SourceID: src.ID}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		rec.SeriesID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		rec.Title = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		rec.Description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		rec.Location = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentProperty("STATUS")); p != nil {
		rec.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return rec, errors.New("missing DTSTART")
	}
	start, allDay, err := parseTimeProp(dtStart.Value, dtStart.ICalParameters, loc)
	if err != nil {
		return rec, fmt.Errorf("DTSTART: %w", err)
	}
	rec.Start = start
	rec.AllDay = allDay

	dur, err := eventDuration(ve, start, allDay, loc)
	if err != nil {
		return rec, err
	}
	rec.Duration = dur

	// Recurrence rule: keep the string form, with a floating UNTIL pinned
	// to UTC so expansion and the rendered property agree.
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		rec.RRule = normalizeRRule(p.Value, start.Location())
	}

	// EXDATE may appear multiple times, each with its own value list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ex, _, perr := parseTimeProp(part, p.ICalParameters, loc)
			if perr != nil {
				return rec, fmt.Errorf("EXDATE: %w", perr)
			}
			rec.ExDates = append(rec.ExDates, ex)
		}
	}

	// RECURRENCE-ID marks this record as an override of one base occurrence.
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		rid, _, perr := parseTimeProp(p.Value, p.ICalParameters, loc)
		if perr != nil {
			return rec, fmt.Errorf("RECURRENCE-ID: %w", perr)
		}
		rec.OverrideOf = &rid
	}

	for _, p := range ve.GetProperties(ical.ComponentProperty("CATEGORIES")) {
		for _, tag := range strings.Split(p.Value, ",") {
			tag = strings.TrimSpace(unescapeText(tag))
			if tag != "" {
				rec.Tags = append(rec.Tags, tag)
			}
		}
	}

	// Each VALARM contributes one minutes-before value derived from its
	// TRIGGER offset (negative trigger = before the event start).
	for _, alarm := range ve.Alarms() {
		p := alarm.GetProperty(ical.ComponentProperty("TRIGGER"))
		if p == nil || p.Value == "" {
			continue
		}
		d, derr := parseDuration(p.Value)
		if derr != nil {
			appLog.Warn("ics alarm trigger ignored", "id", src.ID, "uid", rec.SeriesID, "trigger", p.Value)
			continue
		}
		rec.AlarmsMin = append(rec.AlarmsMin, int(-d.Minutes()))
	}

	return rec, nil
}

// eventDuration resolves the event length from DTEND, DURATION, or the
// all-day default of one whole day.
func eventDuration(ve *ical.VEvent, start time.Time, allDay bool, loc *time.Location) (time.Duration, error) {
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		end, _, err := parseTimeProp(p.Value, p.ICalParameters, loc)
		if err != nil {
			return 0, fmt.Errorf("DTEND: %w", err)
		}
		return end.Sub(start), nil
	}
	if p := ve.GetProperty(ical.ComponentProperty("DURATION")); p != nil {
		d, err := parseDuration(p.Value)
		if err != nil {
			return 0, fmt.Errorf("DURATION: %w", err)
		}
		return d, nil
	}
	if allDay {
		return 24 * time.Hour, nil
	}
	return 0, errors.New("missing DTEND and DURATION")
}

// parseTimeProp parses an iCalendar DATE or DATE-TIME value, honoring the
// VALUE and TZID parameters. Date-only values become midnight in loc; a
// floating date-time is interpreted in loc as well.
func parseTimeProp(value string, params map[string][]string, loc *time.Location) (t time.Time, allDay bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	if hasParam(params, "VALUE", "DATE") || !strings.Contains(value, "T") {
		t, err = time.ParseInLocation("20060102", value, loc)
		return t, true, err
	}

	if strings.HasSuffix(value, "Z") {
		t, err = time.Parse("20060102T150405Z", value)
		return t, false, err
	}

	if tzid := firstParam(params, "TZID"); tzid != "" {
		zone, zerr := time.LoadLocation(strings.Trim(tzid, `"`))
		if zerr != nil {
			return time.Time{}, false, fmt.Errorf("unknown TZID %q: %w", tzid, zerr)
		}
		t, err = time.ParseInLocation("20060102T150405", value, zone)
		return t, false, err
	}

	t, err = time.ParseInLocation("20060102T150405", value, loc)
	return t, false, err
}

func firstParam(params map[string][]string, key string) string {
	if params == nil {
		return ""
	}
	if vs, ok := params[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func hasParam(params map[string][]string, key, want string) bool {
	return strings.EqualFold(strings.Trim(firstParam(params, key), `"`), want)
}

// normalizeRRule rewrites a floating UNTIL bound as an absolute UTC instant.
// A rule authored "UNTIL=20200426T000000" inside a zoned event means that
// wall clock in the event's own zone; evaluating it unconverted would shift
// the final occurrence by the zone offset.
func normalizeRRule(raw string, loc *time.Location) string {
	parts := strings.Split(raw, ";")
	for i, part := range parts {
		if !strings.HasPrefix(part, "UNTIL=") {
			continue
		}
		val := strings.TrimPrefix(part, "UNTIL=")
		if strings.HasSuffix(val, "Z") {
			continue
		}
		var t time.Time
		var err error
		if strings.Contains(val, "T") {
			t, err = time.ParseInLocation("20060102T150405", val, loc)
		} else {
			t, err = time.ParseInLocation("20060102", val, loc)
		}
		if err != nil {
			continue
		}
		parts[i] = "UNTIL=" + t.UTC().Format("20060102T150405Z")
	}
	return strings.Join(parts, ";")
}

// parseDuration parses an RFC 5545 duration such as "PT3H", "-PT15M",
// "P2DT1H" or "P1W". The format has no nominal year or month components.
func parseDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := 0
	digits := false
	components := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			digits = true
		case r == 'T':
			if inTime {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			inTime = true
		default:
			if !digits {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			var unit time.Duration
			switch {
			case r == 'W' && !inTime:
				unit = 7 * 24 * time.Hour
			case r == 'D' && !inTime:
				unit = 24 * time.Hour
			case r == 'H' && inTime:
				unit = time.Hour
			case r == 'M' && inTime:
				unit = time.Minute
			case r == 'S' && inTime:
				unit = time.Second
			default:
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			total += time.Duration(num) * unit
			num = 0
			digits = false
			components++
		}
	}
	if digits || components == 0 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if neg {
		total = -total
	}
	return total, nil
}

// unescapeText reverses iCalendar TEXT escaping: \n becomes a newline and
// escaped separators become literal.
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
