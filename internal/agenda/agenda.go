// Package agenda assembles rendered agenda blocks out of raw calendar
// payloads.
package agenda

import (
	"strings"
	"time"

	"orgagenda/internal/ics"
	appLog "orgagenda/internal/log"
	"orgagenda/internal/model"
	"orgagenda/internal/org"
)

// Events turns fetched calendar payloads into rendered agenda blocks for the
// given window.
//
// Records are grouped by series across all payloads, so a base event and its
// overrides may live in different calendars. Identical rendered blocks,
// which arise when the same calendar is subscribed through more than one
// source, collapse to their first occurrence; block order otherwise follows
// payload and series discovery order.
//
// Series-level problems (malformed series, unrenderable entries) are logged
// and skipped; the remaining series still render.
func Events(calendars []ics.FetchResult, window model.Window, loc *time.Location) []string {
	var records []model.EventRecord
	for _, cal := range calendars {
		recs, err := ics.Parse(cal.Source, cal.Body, loc)
		if err != nil {
			appLog.Error("agenda: calendar skipped", err, "id", cal.Source.ID)
			continue
		}
		records = append(records, recs...)
	}

	entries, errs := ics.Merge(records, ics.ExpandConfig{Window: window})
	for _, err := range errs {
		appLog.Error("agenda: series skipped", err)
	}

	blocks := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		ev, err := org.NewEvent(entry, loc)
		if err != nil {
			appLog.Error("agenda: entry skipped", err, "uid", entry.Record.SeriesID)
			continue
		}
		block := org.Render(ev)
		if _, dup := seen[block]; dup {
			continue
		}
		seen[block] = struct{}{}
		blocks = append(blocks, block)
	}
	return blocks
}

// Document joins blocks into the final file content: blank-line separated,
// with a trailing newline.
func Document(blocks []string) string {
	return strings.Join(blocks, "\n\n") + "\n"
}
