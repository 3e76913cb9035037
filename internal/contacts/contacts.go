// Package contacts renders CardDAV address books as org-contacts blocks.
// Contacts are the non-recurring sibling of agenda events: same outline
// grammar, no time dimension.
package contacts

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-vcard"

	"orgagenda/internal/ics"
	appLog "orgagenda/internal/log"
	"orgagenda/internal/model"
	"orgagenda/internal/org"
)

// Contact adapts one vCard to the org renderer.
type Contact struct {
	card vcard.Card
}

func (c Contact) Heading() string { return c.card.PreferredValue(vcard.FieldFormattedName) }

func (c Contact) Tags() []string {
	var tags []string
	for _, f := range c.card[vcard.FieldCategories] {
		for _, tag := range strings.Split(f.Value, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// Properties extracts the drawer entries in a fixed key order so rendering
// is deterministic regardless of card map iteration. TYPE parameters are
// appended in parentheses; administrative fields (VERSION, PRODID, X-*) and
// fields rendered elsewhere (FN, NOTE, CATEGORIES) are skipped.
func (c Contact) Properties() []model.Property {
	var props []model.Property
	add := func(key string, f *vcard.Field, value string) {
		if value == "" {
			return
		}
		if types := f.Params["TYPE"]; len(types) > 0 {
			value += " (" + strings.Join(types, ", ") + ")"
		}
		props = append(props, model.Property{Key: key, Value: value})
	}

	for _, n := range c.card.Names() {
		parts := []string{n.FamilyName, n.GivenName, n.AdditionalName, n.HonorificPrefix, n.HonorificSuffix}
		joined := strings.Join(parts, ";")
		if strings.Trim(joined, ";") == "" {
			continue
		}
		add("N", n.Field, joined)
	}
	for _, a := range c.card.Addresses() {
		add("ADDRESS", a.Field, formatAddress(a))
	}
	for _, f := range c.card[vcard.FieldTelephone] {
		add("PHONE", f, f.Value)
	}
	for _, f := range c.card[vcard.FieldEmail] {
		add("EMAIL", f, f.Value)
	}
	for _, f := range c.card[vcard.FieldOrganization] {
		add("ORG", f, f.Value)
	}
	for _, f := range c.card[vcard.FieldBirthday] {
		add("BDAY", f, f.Value)
	}
	for _, f := range c.card[vcard.FieldURL] {
		add("URL", f, f.Value)
	}
	for _, f := range c.card[vcard.FieldRevision] {
		add("REV", f, revTimestamp(f.Value))
	}
	return props
}

func (c Contact) Timestamps() string { return "" }

func (c Contact) Body() string { return c.card.PreferredValue(vcard.FieldNote) }

func formatAddress(a *vcard.Address) string {
	parts := []string{
		a.StreetAddress,
		strings.TrimSpace(a.PostalCode + " " + a.Locality),
		a.Region,
		a.Country,
		a.ExtendedAddress,
		a.PostOfficeBox,
	}
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// revTimestamp renders a REV instant as an inactive org timestamp; the raw
// value is kept when it does not parse.
func revTimestamp(v string) string {
	for _, layout := range []string{"20060102T150405Z", time.RFC3339, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("[2006-01-02 Mon 15:04]")
		}
	}
	return v
}

// Blocks renders every contact in the given address book payloads, keeping
// payload and card order. Undecodable cards are logged and skipped.
func Blocks(books []ics.FetchResult) []string {
	var blocks []string
	for _, book := range books {
		dec := vcard.NewDecoder(bytes.NewReader(book.Body))
		for {
			card, err := dec.Decode()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					appLog.Error("contacts: card decode failed", err, "id", book.Source.ID)
				}
				break
			}
			c := Contact{card: card}
			if c.Heading() == "" {
				appLog.Warn("contacts: card without FN skipped", "id", book.Source.ID)
				continue
			}
			blocks = append(blocks, org.Render(c))
		}
	}
	return blocks
}
