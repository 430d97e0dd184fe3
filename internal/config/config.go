package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the feed server.
// PasswordHash is an Argon2id hash as produced by the hash-password
// subcommand, never a plaintext password.
type BasicAuthConfig struct {
	Username     string `yaml:"username" json:"username"`
	PasswordHash string `yaml:"password_hash" json:"password_hash"`
}

// OpenHolidaysConfig configures the external holiday/vacation data source.
type OpenHolidaysConfig struct {
	// BaseURL is the API root, e.g. "https://openholidaysapi.org".
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Country is the ISO 3166-1 country code used for lookups.
	Country string `yaml:"country" json:"country"`

	// CacheDir is the disk cache directory for conditional HTTP fetches.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// WindowDays bounds the date range of a single school-vacation query.
	// Longer ranges are fetched in consecutive windows and deduplicated.
	WindowDays int `yaml:"window_days" json:"window_days"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule for regenerating the served
	// calendars (so DTSTAMP et al. stay fresh).
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// OutputDir is where one-shot generation writes the .ics files.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// ProdID and URL are emitted verbatim into every calendar document.
	ProdID string `yaml:"prodid" json:"prodid"`
	URL    string `yaml:"url" json:"url"`

	// States restricts generation to a subset of Bundesländer.
	// Empty means all 16.
	States []string `yaml:"states" json:"states"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	OpenHolidays OpenHolidaysConfig `yaml:"openholidays" json:"openholidays"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		RefreshCron: "0 3 * * *",
		OutputDir:   "Feiertage",
		ProdID:      "ics.tools skjerns patch",
		URL:         "https://ics.tools",
		States:      []string{},
		BasicAuth:   nil,
		OpenHolidays: OpenHolidaysConfig{
			BaseURL:    "https://openholidaysapi.org",
			Country:    "DE",
			CacheDir:   "./var/openholidays-cache",
			WindowDays: 365,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 3 * * *"
	}
	if c.OutputDir == "" {
		c.OutputDir = "Feiertage"
	}
	if c.ProdID == "" {
		c.ProdID = "ics.tools skjerns patch"
	}
	if c.URL == "" {
		c.URL = "https://ics.tools"
	}
	if c.States == nil {
		c.States = []string{}
	}
	if c.OpenHolidays.BaseURL == "" {
		c.OpenHolidays.BaseURL = "https://openholidaysapi.org"
	}
	if c.OpenHolidays.Country == "" {
		c.OpenHolidays.Country = "DE"
	}
	if c.OpenHolidays.CacheDir == "" {
		c.OpenHolidays.CacheDir = "./var/openholidays-cache"
	}
	if c.OpenHolidays.WindowDays <= 0 {
		c.OpenHolidays.WindowDays = 365
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there
// (parent directory created, 0600 perms) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
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

// Save writes the given configuration to the specified path.
// The write is atomic (temp file + rename) and ends up with 0600 perms.
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

	tmp, err := os.CreateTemp(dir, ".feiertagskal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
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

// Save is a convenience method that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
