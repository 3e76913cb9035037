package ics

import (
	"fmt"

	"github.com/teambition/rrule-go"

	appLog "orgagenda/internal/log"
	"orgagenda/internal/model"
)

const defaultMaxOccurrences = 5000

// ExpandConfig controls one merge/expansion pass.
type ExpandConfig struct {
	// Window is the half-open range occurrences must fall into.
	Window model.Window

	// MaxOccurrences caps how many instants one series may produce, as a
	// guard against runaway rules. Zero means defaultMaxOccurrences.
	MaxOccurrences int
}

// Merge partitions records into series, expands each base rule inside the
// window and reconciles overrides.
//
// Per series the output is one entry for the base record carrying every
// interval the rule still produces (overridden and excluded instants
// removed), followed by one single-interval entry per override that lands in
// the window. Series keep payload discovery order; within a series the base
// comes first.
//
// Malformed series are reported through the returned error slice and
// skipped; the remaining series still produce entries.
func Merge(records []model.EventRecord, cfg ExpandConfig) ([]model.AgendaEntry, []error) {
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	var order []string
	parts := make(map[string][]model.EventRecord)
	for i, rec := range records {
		key := rec.SeriesID
		if key == "" {
			// No UID: the record is its own singleton series.
			key = fmt.Sprintf("\x00singleton-%d", i)
		}
		if _, seen := parts[key]; !seen {
			order = append(order, key)
		}
		parts[key] = append(parts[key], rec)
	}

	var entries []model.AgendaEntry
	var errs []error
	for _, key := range order {
		got, err := mergeSeries(parts[key], cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, got...)
	}
	return entries, errs
}

func mergeSeries(series []model.EventRecord, cfg ExpandConfig) ([]model.AgendaEntry, error) {
	var bases, overrides []model.EventRecord
	for _, rec := range series {
		if rec.OverrideOf == nil {
			bases = append(bases, rec)
		} else {
			overrides = append(overrides, rec)
		}
	}

	if len(bases) == 0 && len(series) > 1 {
		return nil, &model.MalformedSeriesError{
			SeriesID: series[0].SeriesID,
			Reason:   "overrides without a base record",
		}
	}

	var entries []model.AgendaEntry
	for _, base := range bases {
		entry, err := expandBase(base, overrides, cfg)
		if err != nil {
			return nil, err
		}
		if len(entry.Occurrences) > 0 {
			entries = append(entries, entry)
		}
	}

	// Overrides always materialize on their own interval, even when the
	// edited base rule no longer produces their declared instant. Only an
	// explicit cancellation removes them.
	for _, ov := range overrides {
		if ov.Cancelled {
			continue
		}
		if !cfg.Window.Intersects(ov.Start, ov.Duration) {
			continue
		}
		entries = append(entries, model.AgendaEntry{
			Record:      ov,
			Occurrences: []model.Occurrence{{Start: ov.Start, Duration: ov.Duration}},
		})
	}

	return entries, nil
}

func expandBase(base model.EventRecord, overrides []model.EventRecord, cfg ExpandConfig) (model.AgendaEntry, error) {
	if base.RRule == "" {
		return expandSingle(base, overrides, cfg), nil
	}
	return expandRecurring(base, overrides, cfg)
}

// expandSingle handles a non-recurring base: one occurrence if its interval
// intersects the window, suppressed entirely when an override replaces it.
func expandSingle(base model.EventRecord, overrides []model.EventRecord, cfg ExpandConfig) model.AgendaEntry {
	entry := model.AgendaEntry{Record: base}
	if !cfg.Window.Intersects(base.Start, base.Duration) {
		return entry
	}
	for _, ov := range overrides {
		if ov.OverrideOf.Equal(base.Start) {
			return entry
		}
	}
	entry.Occurrences = []model.Occurrence{{Start: base.Start, Duration: base.Duration}}
	return entry
}

// expandRecurring evaluates the base rule inside the window. Excluded
// instants and the overrides' declared original instants are removed from
// the expansion so no occurrence is emitted twice.
func expandRecurring(base model.EventRecord, overrides []model.EventRecord, cfg ExpandConfig) (model.AgendaEntry, error) {
	entry := model.AgendaEntry{Record: base}

	r, err := rrule.StrToRRule(base.RRule)
	if err != nil {
		return entry, &model.MalformedSeriesError{
			SeriesID: base.SeriesID,
			Reason:   fmt.Sprintf("unparsable recurrence rule %q: %v", base.RRule, err),
		}
	}
	r.DTStart(base.Start)

	var set rrule.Set
	set.RRule(r)
	// Exclusion is by exact instant; align zones with the series start so
	// equal instants compare equal.
	for _, ex := range base.ExDates {
		set.ExDate(ex.In(base.Start.Location()))
	}
	for _, ov := range overrides {
		set.ExDate(ov.OverrideOf.In(base.Start.Location()))
	}

	wStart := cfg.Window.Start.In(base.Start.Location())
	wEnd := cfg.Window.End.In(base.Start.Location())
	starts := set.Between(wStart, wEnd, true)

	if len(starts) > cfg.MaxOccurrences {
		starts = starts[:cfg.MaxOccurrences]
		appLog.Warn("expand: occurrence cap reached", "uid", base.SeriesID, "cap", cfg.MaxOccurrences)
	}

	for _, start := range starts {
		// The window is half-open; Between treats both ends inclusively.
		if !start.Before(wEnd) {
			continue
		}
		entry.Occurrences = append(entry.Occurrences, model.Occurrence{
			Start:    start,
			Duration: base.Duration,
		})
	}
	return entry, nil
}
