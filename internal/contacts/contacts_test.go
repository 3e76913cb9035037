package contacts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgagenda/internal/ics"
)

func book(body string) ics.FetchResult {
	return ics.FetchResult{
		Source: ics.Source{ID: "test", URL: "https://carddav.example.com/book.vcf"},
		Body:   []byte(strings.ReplaceAll(body, "\n", "\r\n")),
	}
}

func TestBlocksSingleContact(t *testing.T) {
	blocks := Blocks([]ics.FetchResult{book(`BEGIN:VCARD
VERSION:3.0
FN:John Smith
N:Smith;John;;;
TEL;TYPE=CELL:+1 234 567
ADR;TYPE=HOME:;;42 Plantation St.;Baytown;LA;30314;United States of America
CATEGORIES:friends,work
NOTE:Likes dragons
REV:20200319T103000Z
END:VCARD
`)})

	require.Len(t, blocks, 1)
	assert.Equal(t, `* John Smith  :friends:work:
:PROPERTIES:
:N: Smith;John;;;
:ADDRESS: 42 Plantation St., 30314 Baytown, LA, United States of America (HOME)
:PHONE: +1 234 567 (CELL)
:REV: [2020-03-19 Thu 10:30]
:END:
Likes dragons`, blocks[0])
}

func TestBlocksMinimalContact(t *testing.T) {
	blocks := Blocks([]ics.FetchResult{book(`BEGIN:VCARD
VERSION:3.0
FN:Ada Lovelace
END:VCARD
`)})

	require.Len(t, blocks, 1)
	assert.Equal(t, "* Ada Lovelace", blocks[0])
}

func TestBlocksSkipsCardsWithoutName(t *testing.T) {
	blocks := Blocks([]ics.FetchResult{book(`BEGIN:VCARD
VERSION:3.0
TEL:+1 234
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:Kept
END:VCARD
`)})

	require.Len(t, blocks, 1)
	assert.Equal(t, "* Kept", blocks[0])
}

func TestBlocksMultipleBooksKeepOrder(t *testing.T) {
	first := book(`BEGIN:VCARD
VERSION:3.0
FN:Alpha
END:VCARD
`)
	second := book(`BEGIN:VCARD
VERSION:3.0
FN:Beta
END:VCARD
`)

	blocks := Blocks([]ics.FetchResult{first, second})
	assert.Equal(t, []string{"* Alpha", "* Beta"}, blocks)
}

func TestRevTimestamp(t *testing.T) {
	assert.Equal(t, "[2020-03-19 Thu 10:30]", revTimestamp("20200319T103000Z"))
	assert.Equal(t, "[2020-03-19 Thu 10:30]", revTimestamp("2020-03-19T10:30:00Z"))
	assert.Equal(t, "not a date", revTimestamp("not a date"))
}
