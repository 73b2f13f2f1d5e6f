// Package config loads the service configuration from a YAML file and lets
// environment variables override individual fields.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"calendar-assistant/internal/cache"
	"calendar-assistant/internal/scheduling"
)

const (
	defaultListen   = ":8080"
	defaultTimezone = "Local"
	defaultAltCount = 3
	defaultLogLevel = "info"
)

// AuthConfig configures the bearer token middleware. Either list may be
// empty; with both empty every /api request is rejected.
type AuthConfig struct {
	StaticTokens []string `yaml:"static_tokens" json:"-"`
	JWTSecret    string   `yaml:"jwt_hmac_secret" json:"-"`
}

// GoogleConfig holds the OAuth2 client used for Google Calendar.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"-"`
	RedirectURL  string `yaml:"redirect_url" json:"redirect_url"`
}

// Enabled reports whether the OAuth flow can run.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

// CalDAVConfig points at a CalDAV calendar used when a request carries no
// Google token.
type CalDAVConfig struct {
	URL          string `yaml:"url" json:"url"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"-"`
	CalendarPath string `yaml:"calendar_path" json:"calendar_path"`
}

func (c CalDAVConfig) Enabled() bool {
	return c.URL != "" && c.CalendarPath != ""
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone every local date and time is expressed in.
	// "Local" uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	Slots            scheduling.SlotOptions   `yaml:"slots" json:"slots"`
	Windows          scheduling.WindowOptions `yaml:"windows" json:"windows"`
	AlternativeCount int                      `yaml:"alternative_count" json:"alternative_count"`

	// SweepCron is the cron spec of the cache sweep.
	SweepCron string `yaml:"sweep_cron" json:"sweep_cron"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Auth   AuthConfig   `yaml:"auth" json:"-"`
	Google GoogleConfig `yaml:"google" json:"google"`
	CalDAV CalDAVConfig `yaml:"caldav" json:"caldav"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           defaultListen,
		Timezone:         defaultTimezone,
		Slots:            scheduling.DefaultSlotOptions(),
		Windows:          scheduling.DefaultWindowOptions(),
		AlternativeCount: defaultAltCount,
		SweepCron:        cache.DefaultSweepSpec,
		LogLevel:         defaultLogLevel,
	}
}

// Normalize fills in missing or invalid values so that partially filled
// files still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}

	def := scheduling.DefaultSlotOptions()
	if c.Slots.StartHour < 0 || c.Slots.StartHour > 23 {
		c.Slots.StartHour = def.StartHour
	}
	if c.Slots.EndHour <= c.Slots.StartHour || c.Slots.EndHour > 24 {
		c.Slots.StartHour, c.Slots.EndHour = def.StartHour, def.EndHour
	}
	if c.Slots.BufferMinutes < 0 {
		c.Slots.BufferMinutes = def.BufferMinutes
	}

	if c.Windows.HorizonDays <= 0 {
		c.Windows.HorizonDays = scheduling.DefaultWindowOptions().HorizonDays
	}
	if c.Windows.MinGapMinutes <= 0 {
		c.Windows.MinGapMinutes = scheduling.DefaultWindowOptions().MinGapMinutes
	}
	if c.AlternativeCount <= 0 {
		c.AlternativeCount = defaultAltCount
	}
	if c.SweepCron == "" {
		c.SweepCron = cache.DefaultSweepSpec
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = defaultLogLevel
	}

	tokens := c.Auth.StaticTokens[:0]
	for _, t := range c.Auth.StaticTokens {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	c.Auth.StaticTokens = tokens
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == defaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads the YAML file at path, applies environment overrides and
// normalizes the result. An empty path or a missing file yields the
// defaults plus the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		c.Listen = ":" + strings.TrimSpace(v)
	}
	str("LISTEN_ADDR", &c.Listen)
	str("TIMEZONE", &c.Timezone)
	str("LOG_LEVEL", &c.LogLevel)
	str("SWEEP_CRON", &c.SweepCron)

	str("JWT_HMAC_SECRET", &c.Auth.JWTSecret)
	if v, ok := lookup("STATIC_TOKENS"); ok && strings.TrimSpace(v) != "" {
		c.Auth.StaticTokens = strings.Split(v, ",")
	}

	str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("GOOGLE_REDIRECT_URL", &c.Google.RedirectURL)

	str("CALDAV_URL", &c.CalDAV.URL)
	str("CALDAV_USERNAME", &c.CalDAV.Username)
	str("CALDAV_PASSWORD", &c.CalDAV.Password)
	str("CALDAV_CALENDAR_PATH", &c.CalDAV.CalendarPath)

	for key, dst := range map[string]*int{
		"WORK_START_HOUR":     &c.Slots.StartHour,
		"WORK_END_HOUR":       &c.Slots.EndHour,
		"SLOT_BUFFER_MINUTES": &c.Slots.BufferMinutes,
		"HORIZON_DAYS":        &c.Windows.HorizonDays,
		"MIN_GAP_MINUTES":     &c.Windows.MinGapMinutes,
		"ALTERNATIVE_COUNT":   &c.AlternativeCount,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}
