package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Olyame/tg-meditation/assets"
	"github.com/Olyame/tg-meditation/internal/domain"
	"github.com/Olyame/tg-meditation/internal/scheduler"
	"github.com/Olyame/tg-meditation/internal/store"
)

// ErrConfiguration marks a missing or invalid setting; the process must not
// start.
var ErrConfiguration = errors.New("configuration error")

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken     string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	TZ           string `envconfig:"TZ_NAME" default:"Europe/Berlin"`
	ReminderTime string `envconfig:"REMINDER_TIME" default:"10:40"`              // HH:MM
	ReminderText string `envconfig:"REMINDER_TEXT"`                              // empty: built-in text
	Policy       string `envconfig:"POLICY" default:"fixed"`                     // fixed|per_user
	EvictMode    string `envconfig:"EVICT_MODE" default:"permanent"`             // any|permanent|never
	StoreDriver  string `envconfig:"STORE_DRIVER" default:"sqlite"`              // memory|json|sqlite
	StorePath    string `envconfig:"STORE_PATH" default:"./data/subscribers.db"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"` // healthz

	// Resolved by Load.
	Location    *time.Location `ignored:"true"`
	DefaultTime domain.Clock   `ignored:"true"`
}

// Load reads an optional .env file and then environment variables into
// Config. Every failure wraps ErrConfiguration.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: .env: %v", ErrConfiguration, err)
	}
	return FromEnv()
}

// FromEnv reads environment variables only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.resolve(); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	if c.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is empty")
	}

	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return fmt.Errorf("TZ_NAME %q: %v", c.TZ, err)
	}
	c.Location = loc

	def, err := domain.ParseClock(c.ReminderTime)
	if err != nil {
		return fmt.Errorf("REMINDER_TIME: %v", err)
	}
	c.DefaultTime = def

	switch scheduler.Policy(c.Policy) {
	case scheduler.PolicyFixed, scheduler.PolicyPerUser:
	default:
		return fmt.Errorf("POLICY %q: want fixed or per_user", c.Policy)
	}

	switch scheduler.EvictMode(c.EvictMode) {
	case scheduler.EvictAny, scheduler.EvictPermanent, scheduler.EvictNever:
	default:
		return fmt.Errorf("EVICT_MODE %q: want any, permanent or never", c.EvictMode)
	}

	switch c.StoreDriver {
	case store.DriverMemory:
	case store.DriverJSON, store.DriverSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q: want memory, json or sqlite", c.StoreDriver)
	}

	if c.ReminderText == "" {
		c.ReminderText = assets.ReminderText()
	}
	return nil
}
