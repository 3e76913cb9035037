// Package config loads and saves the YAML configuration file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes one CalDAV/CardDAV account. URL is a template in
// which "{}" is replaced by each entry of Calendars or Addressbooks.
type SourceConfig struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`

	// User plus the secret behind Passwordstore form the basic-auth
	// credentials; both optional for public feeds.
	User          string `yaml:"user,omitempty"`
	Passwordstore string `yaml:"passwordstore,omitempty"`

	Calendars    []string `yaml:"calendars,omitempty"`
	Addressbooks []string `yaml:"addressbooks,omitempty"`
}

// CalendarURLs expands the URL template for every configured calendar.
func (s SourceConfig) CalendarURLs() []string {
	return expandURLs(s.URL, s.Calendars)
}

// AddressbookURLs expands the URL template for every configured addressbook.
func (s SourceConfig) AddressbookURLs() []string {
	return expandURLs(s.URL, s.Addressbooks)
}

func expandURLs(tmpl string, entries []string) []string {
	urls := make([]string, 0, len(entries))
	for _, entry := range entries {
		urls = append(urls, strings.ReplaceAll(tmpl, "{}", entry))
	}
	return urls
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA display zone; empty means the system zone.
	Timezone string `yaml:"timezone,omitempty"`

	// Back/Ahead bound the agenda window in days around the invocation
	// instant.
	Back  int `yaml:"back"`
	Ahead int `yaml:"ahead"`

	AgendaFile   string `yaml:"agenda_file"`
	ContactsFile string `yaml:"contacts_file"`

	// RefreshCron drives watch mode, e.g. "*/30 * * * *".
	RefreshCron string `yaml:"refresh"`

	CacheDir string `yaml:"cache_dir,omitempty"`

	Sources []SourceConfig `yaml:"sources"`
}

// DefaultConfig returns the in-memory defaults.
func DefaultConfig() *Config {
	return &Config{
		Back:         14,
		Ahead:        50,
		AgendaFile:   "~/org/agenda.org",
		ContactsFile: "~/org/contacts.org",
		RefreshCron:  "*/30 * * * *",
		Sources:      []SourceConfig{},
	}
}

// Normalize fills missing values so partially filled configs behave.
func (c *Config) Normalize() {
	if c.Back < 0 {
		c.Back = 0
	}
	if c.Ahead <= 0 {
		c.Ahead = 50
	}
	if c.AgendaFile == "" {
		c.AgendaFile = "~/org/agenda.org"
	}
	if c.ContactsFile == "" {
		c.ContactsFile = "~/org/contacts.org"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
}

// Location resolves the display timezone. Failure here is fatal to the whole
// run: every rendered interval depends on it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads the YAML config at path. A missing file is created with
// defaults (0600) and the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if serr := Save(path, cfg); serr != nil {
				return cfg, serr
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions, creating parent
// directories as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".orgagenda-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ExpandUser substitutes a leading "~" with the current home directory.
func ExpandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
