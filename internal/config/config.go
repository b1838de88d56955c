// Package config loads pitlane settings from a YAML file, an optional .env
// file and PITLANE_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside the config directory.
const FileName = "config.yaml"

// Server holds HTTP API settings.
type Server struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Fetch holds provider transport settings.
type Fetch struct {
	UserAgent string        `yaml:"user_agent"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second per provider, 0 disables
	Burst     int           `yaml:"burst"`
	Retries   int           `yaml:"retries"`
	Backoff   time.Duration `yaml:"backoff"`
}

// Ergast configures the Jolpica/Ergast provider.
type Ergast struct {
	Enabled bool     `yaml:"enabled"`
	BaseURL string   `yaml:"base_url"`
	Series  []string `yaml:"series"`
}

// SportsDB configures TheSportsDB provider.
type SportsDB struct {
	Enabled bool     `yaml:"enabled"`
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Leagues []string `yaml:"leagues"`
}

// OpenF1 configures the OpenF1 provider.
type OpenF1 struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

// Providers groups per-provider settings.
type Providers struct {
	Ergast   Ergast   `yaml:"ergast"`
	SportsDB SportsDB `yaml:"sportsdb"`
	OpenF1   OpenF1   `yaml:"openf1"`
	Fixtures []string `yaml:"fixtures"`
}

// Config is the complete pitlane configuration.
type Config struct {
	Season    int           `yaml:"season"` // 0 means the current year
	Timeout   time.Duration `yaml:"timeout"`
	Timezone  string        `yaml:"timezone"`
	Log       Log           `yaml:"log"`
	Server    Server        `yaml:"server"`
	Fetch     Fetch         `yaml:"fetch"`
	Providers Providers     `yaml:"providers"`

	// APIURL points every HTTP provider at one base URL (PITLANE_API_URL).
	APIURL string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	c := Config{
		Fetch: Fetch{Retries: 2},
		Providers: Providers{
			Ergast:   Ergast{Enabled: true, Series: []string{"f1"}},
			SportsDB: SportsDB{Enabled: true, Leagues: []string{"4407", "4371", "4373", "4393"}},
		},
	}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "pitlane"
	}
	if c.Fetch.Burst == 0 {
		c.Fetch.Burst = 1
	}
	if c.Fetch.Backoff == 0 {
		c.Fetch.Backoff = 500 * time.Millisecond
	}
	if c.Providers.SportsDB.APIKey == "" {
		c.Providers.SportsDB.APIKey = "3"
	}
}

// Dir returns the configuration directory path.
func Dir() string {
	if dir := os.Getenv("PITLANE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pitlane")
}

// Load reads dir/config.yaml over the defaults, loads .env files from dir and
// the working directory, then applies environment overrides. A missing config
// file is not an error.
func Load(dir string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	}
	c.applyDefaults()

	if err := loadDotEnv(filepath.Join(dir, ".env"), ".env"); err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// loadDotEnv loads the files that exist. Variables already set are kept.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PITLANE_SEASON"); v != "" {
		season, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PITLANE_SEASON %q: %w", v, err)
		}
		c.Season = season
	}
	if v := os.Getenv("PITLANE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PITLANE_TIMEOUT %q: %w", v, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("PITLANE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PITLANE_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("PITLANE_SPORTSDB_KEY"); v != "" {
		c.Providers.SportsDB.APIKey = v
	}
	if v := os.Getenv("PITLANE_API_URL"); v != "" {
		c.APIURL = strings.TrimRight(v, "/")
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Season < 0 {
		return fmt.Errorf("season must not be negative, got %d", c.Season)
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit must not be negative, got %g", c.Fetch.RateLimit)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone, or time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BaseURL returns override when PITLANE_API_URL is set, else configured, else "".
func (c *Config) BaseURL(configured string) string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return configured
}
