package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"staycal/internal/axis"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// ErrEmptyPath is returned when no config path is given.
var ErrEmptyPath = errors.New("config path is empty")

// ListingConfig describes one calendar row and the booking feeds behind it.
type ListingConfig struct {
	// ID is the stable listing identifier, also used in /properties/{id}.
	ID string `yaml:"id" json:"id"`
	// Name is the label shown in the pinned row-label column.
	Name string `yaml:"name" json:"name"`
	// Feeds are ICS export URLs (Airbnb, VRBO, ...) for this listing.
	Feeds []string `yaml:"feeds" json:"feeds"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// TimelineConfig holds the axis tuning for one host. Widths are in the
// host's units (pixels for the web view, cells for the terminal).
type TimelineConfig struct {
	StartDays       int `yaml:"start_days" json:"start_days"`
	ExtendDays      int `yaml:"extend_days" json:"extend_days"`
	DayWidth        int `yaml:"day_width" json:"day_width"`
	InitialPastDays int `yaml:"initial_past_days" json:"initial_past_days"`
	MinColumnWidth  int `yaml:"min_column_width" json:"min_column_width"`
	VisibleColumns  int `yaml:"visible_columns" json:"visible_columns"`
	MinThreshold    int `yaml:"min_threshold" json:"min_threshold"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone bookings are converted to before their
	// calendar days are taken. Empty means the process's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds the ICS body cache. "~" is expanded.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// HorizonDays bounds recurring-event expansion around today.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// Timeline tunes the web (pixel) axis.
	Timeline TimelineConfig `yaml:"timeline" json:"timeline"`

	// Terminal tunes the TUI (cell) axis. Start/extend/past days that are
	// left zero are taken from Timeline.
	Terminal TimelineConfig `yaml:"terminal" json:"terminal"`

	Listings []ListingConfig `yaml:"listings" json:"listings"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultRefreshCron = "*/15 * * * *"
	defaultCacheDir    = "~/.cache/staycal"
	defaultLogLevel    = "info"
	defaultHorizonDays = 365
)

func defaultTimeline() TimelineConfig {
	o := axis.DefaultOptions()
	return TimelineConfig{
		StartDays:       o.StartDays,
		ExtendDays:      o.ExtendDays,
		DayWidth:        o.ColumnWidth,
		InitialPastDays: o.InitialPastDays,
		MinColumnWidth:  o.MinColumnWidth,
		VisibleColumns:  o.VisibleColumns,
		MinThreshold:    o.MinThreshold,
	}
}

func defaultTerminal() TimelineConfig {
	return TimelineConfig{
		DayWidth:       6,
		MinColumnWidth: 4,
		VisibleColumns: 14,
		MinThreshold:   8,
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Listen:      defaultListen,
		RefreshCron: defaultRefreshCron,
		CacheDir:    defaultCacheDir,
		LogLevel:    defaultLogLevel,
		HorizonDays: defaultHorizonDays,
		Timeline:    defaultTimeline(),
		Terminal:    defaultTerminal(),
		Listings:    []ListingConfig{},
	}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}

	c.Timeline.fill(defaultTimeline())
	term := defaultTerminal()
	term.StartDays = c.Timeline.StartDays
	term.ExtendDays = c.Timeline.ExtendDays
	term.InitialPastDays = c.Timeline.InitialPastDays
	c.Terminal.fill(term)

	if c.Listings == nil {
		c.Listings = []ListingConfig{}
	}
	for i := range c.Listings {
		l := &c.Listings[i]
		l.ID = strings.TrimSpace(l.ID)
		if l.Name == "" {
			l.Name = l.ID
		}
	}
}

func (t *TimelineConfig) fill(def TimelineConfig) {
	if t.StartDays <= 0 {
		t.StartDays = def.StartDays
	}
	if t.ExtendDays <= 0 {
		t.ExtendDays = def.ExtendDays
	}
	if t.DayWidth <= 0 {
		t.DayWidth = def.DayWidth
	}
	if t.InitialPastDays <= 0 {
		t.InitialPastDays = def.InitialPastDays
	}
	if t.MinColumnWidth <= 0 {
		t.MinColumnWidth = def.MinColumnWidth
	}
	if t.VisibleColumns <= 0 {
		t.VisibleColumns = def.VisibleColumns
	}
	if t.MinThreshold <= 0 {
		t.MinThreshold = def.MinThreshold
	}
}

// AxisOptions converts the section into axis.Options.
func (t TimelineConfig) AxisOptions() axis.Options {
	return axis.Options{
		StartDays:       t.StartDays,
		ExtendDays:      t.ExtendDays,
		ColumnWidth:     t.DayWidth,
		InitialPastDays: t.InitialPastDays,
		MinColumnWidth:  t.MinColumnWidth,
		VisibleColumns:  t.VisibleColumns,
		MinThreshold:    t.MinThreshold,
	}
}

// Validate reports configuration that cannot be served.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Listings))
	for _, l := range c.Listings {
		if l.ID == "" {
			return errors.New("config: listing with empty id")
		}
		if strings.ContainsAny(l.ID, "/?#") {
			return errors.New("config: listing id " + l.ID + " contains a reserved URL character")
		}
		if seen[l.ID] {
			return errors.New("config: duplicate listing id " + l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

// ExpandPath resolves a leading "~" against the user's home directory.
func ExpandPath(p string) (string, error) {
	return homedir.Expand(p)
}

// LoadEnv reads an optional .env file and applies STAYCAL_* overrides:
// STAYCAL_LISTEN, STAYCAL_LOG_LEVEL, STAYCAL_CACHE_DIR. A missing .env file
// is not an error.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if v := strings.TrimSpace(os.Getenv("STAYCAL_LISTEN")); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("STAYCAL_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("STAYCAL_CACHE_DIR")); v != "" {
		c.CacheDir = v
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
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
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".staycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
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

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
