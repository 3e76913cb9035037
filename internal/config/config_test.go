package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Back)
	assert.Equal(t, 50, cfg.Ahead)
	assert.Equal(t, "~/org/agenda.org", cfg.AgendaFile)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{
		Timezone: "Europe/Berlin",
		Back:     7,
		Ahead:    30,
		Sources: []SourceConfig{{
			ID:            "personal",
			URL:           "https://dav.example.com/{}/",
			User:          "me",
			Passwordstore: "dav/me",
			Calendars:     []string{"work", "home"},
			Addressbooks:  []string{"people"},
		}},
	}
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", got.Timezone)
	assert.Equal(t, 7, got.Back)
	assert.Equal(t, 30, got.Ahead)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, []string{"work", "home"}, got.Sources[0].Calendars)
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := &Config{Back: -1}
	cfg.Normalize()
	assert.Equal(t, 0, cfg.Back)
	assert.Equal(t, 50, cfg.Ahead)
	assert.Equal(t, "*/30 * * * *", cfg.RefreshCron)
	assert.NotNil(t, cfg.Sources)
}

func TestSourceURLTemplates(t *testing.T) {
	src := SourceConfig{
		URL:          "https://dav.example.com/{}/feed.ics",
		Calendars:    []string{"work", "home"},
		Addressbooks: []string{"people"},
	}

	assert.Equal(t, []string{
		"https://dav.example.com/work/feed.ics",
		"https://dav.example.com/home/feed.ics",
	}, src.CalendarURLs())
	assert.Equal(t, []string{"https://dav.example.com/people/feed.ics"}, src.AddressbookURLs())
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Europe/Berlin"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	cfg.Timezone = ""
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
