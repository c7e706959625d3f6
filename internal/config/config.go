package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is read from the environment
type Config struct {
	Addr            string `env:"CANASTA_ADDR,default=:8000"`
	LogLevel        string `env:"CANASTA_LOG_LEVEL,default=info"`
	LogFormat       string `env:"CANASTA_LOG_FORMAT,default=console"`
	CanastasToGoOut int    `env:"CANASTA_CANASTAS_TO_GO_OUT,default=1"`
	FullGame        bool   `env:"CANASTA_FULL_GAME,default=false"`
	// comma separated
	AllowedOrigins string `env:"CANASTA_ALLOWED_ORIGINS,default=*"`
}

func Default() Config {
	return Config{
		Addr:            ":8000",
		LogLevel:        "info",
		LogFormat:       "console",
		CanastasToGoOut: 1,
		AllowedOrigins:  "*",
	}
}

// Load decodes the environment over the defaults
func Load() (Config, error) {
	var cfg Config
	err := envdecode.Decode(&cfg)
	if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CanastasToGoOut < 0 {
		return fmt.Errorf("%w: CANASTA_CANASTAS_TO_GO_OUT must not be negative", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: CANASTA_LOG_FORMAT must be json or console, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Origins splits AllowedOrigins
func (c Config) Origins() []string {
	origins := []string{}
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
