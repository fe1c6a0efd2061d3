package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

var ErrMissingSecret = errors.New("JWT_SECRET_KEY must be set in production environment")

type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	Env         string        `env:"ENV" envDefault:"development"`
	DatabaseDSN string        `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/daybook?parseTime=true"`
	JWTSecret   string        `env:"JWT_SECRET_KEY"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"12"`

	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"true"`

	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// StreakTimezone names the location used to decide whether two
	// timestamps fall on the same calendar day.
	StreakTimezone string `env:"STREAK_TIMEZONE" envDefault:"Local"`
	StreakLocation *time.Location `env:"-"`
}

// Load reads configuration from the environment. Call godotenv.Load first
// if a .env file should be honoured.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return Config{}, ErrMissingSecret
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("config: SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	loc, err := time.LoadLocation(cfg.StreakTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("config: STREAK_TIMEZONE: %w", err)
	}
	cfg.StreakLocation = loc

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
