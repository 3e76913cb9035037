// Package org renders agenda entries and contacts into org-mode outline
// blocks: a heading with inline tags, an optional property drawer, timestamp
// lines and a free-form body.
package org

import (
	"strings"

	"orgagenda/internal/model"
)

// Entry is one renderable outline node. Events and contacts implement it;
// the renderer never inspects the underlying record.
type Entry interface {
	Heading() string
	Tags() []string
	Properties() []model.Property
	// Timestamps returns pre-rendered interval lines, newline-terminated,
	// or "" for entries without a time dimension.
	Timestamps() string
	Body() string
}

// Render produces the final text block for one entry.
func Render(e Entry) string {
	var b strings.Builder
	b.WriteString("* ")
	b.WriteString(e.Heading())
	b.WriteString(TagSuffix(e.Tags()))
	b.WriteString("\n")
	b.WriteString(PropertyBox(e.Properties()))
	b.WriteString(e.Timestamps())
	b.WriteString(e.Body())
	return strings.TrimSpace(b.String())
}

// TagSuffix renders the inline heading tag list, e.g. "  :pets:dragons:".
// Duplicates are dropped, first occurrence wins. Empty input renders
// nothing.
func TagSuffix(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		kept = append(kept, tag)
	}
	if len(kept) == 0 {
		return ""
	}
	return "  :" + strings.Join(kept, ":") + ":"
}

// PropertyBox renders the property drawer. Keys are upper-cased and embedded
// newlines in values collapse to ", " (org treats a newline as a block
// boundary). Properties with empty values are skipped; an empty drawer is
// never emitted.
func PropertyBox(props []model.Property) string {
	lines := make([]string, 0, len(props))
	for _, p := range props {
		val := strings.ReplaceAll(p.Value, "\n", ", ")
		if val == "" {
			continue
		}
		lines = append(lines, ":"+strings.ToUpper(p.Key)+": "+val)
	}
	if len(lines) == 0 {
		return ""
	}
	return ":PROPERTIES:\n" + strings.Join(lines, "\n") + "\n:END:\n"
}
