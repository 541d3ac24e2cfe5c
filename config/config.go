package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrParsingConfig = errors.New("config: failed to parse environment")

// Config holds runtime settings read from FSM_* environment variables.
type Config struct {
	LogLevel  string `env:"FSM_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FSM_LOG_FORMAT" envDefault:"text"`

	FixedStep     time.Duration `env:"FSM_FIXED_STEP" envDefault:"20ms"`
	MaxFixedSteps int           `env:"FSM_MAX_FIXED_STEPS" envDefault:"5"`

	MachinesDir string `env:"FSM_MACHINES_DIR" envDefault:"machines"`
	Watch       bool   `env:"FSM_WATCH" envDefault:"false"`

	MaxChainedTransitions int `env:"FSM_MAX_CHAINED_TRANSITIONS" envDefault:"32"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.FixedStep <= 0 {
		return fmt.Errorf("config: FSM_FIXED_STEP must be positive, got %s", c.FixedStep)
	}
	if c.MaxFixedSteps <= 0 {
		return fmt.Errorf("config: FSM_MAX_FIXED_STEPS must be positive, got %d", c.MaxFixedSteps)
	}
	if c.MaxChainedTransitions <= 0 {
		return fmt.Errorf("config: FSM_MAX_CHAINED_TRANSITIONS must be positive, got %d", c.MaxChainedTransitions)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown FSM_LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Logger builds the slog logger described by the config, writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown FSM_LOG_LEVEL %q", s)
	}
	return level, nil
}
