// Package config loads and validates service configuration from the
// environment. Misconfiguration fails at startup, never at call time.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// Bounds for the bcrypt work factor. Below the floor the hash is too
	// cheap to brute-force-resist; above the ceiling login latency becomes
	// unacceptable.
	MinBcryptCost = 10
	MaxBcryptCost = 20

	minSecretLength = 32
)

// Config carries every runtime knob of the service.
type Config struct {
	Stage string `env:"APP_STAGE" envDefault:"dev"`
	Addr  string `env:"TEAMSPACE_ADDR" envDefault:":8080"`
	PGDSN string `env:"TEAMSPACE_PG_DSN"`

	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	CookieDomain   string `env:"COOKIE_DOMAIN"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"lax"`

	RateLimitBurst     int `env:"RATE_LIMIT_BURST" envDefault:"20"`
	RateLimitPerSecond int `env:"RATE_LIMIT_PER_SECOND" envDefault:"10"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every invariant the rest of the service relies on.
func (c Config) Validate() error {
	var problems []string
	switch c.Stage {
	case "dev", "test", "prod":
	default:
		problems = append(problems, fmt.Sprintf("APP_STAGE must be dev, test or prod, got %q", c.Stage))
	}
	if len(c.AccessSecret) < minSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_ACCESS_SECRET must be at least %d characters", minSecretLength))
	}
	if len(c.RefreshSecret) < minSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_REFRESH_SECRET must be at least %d characters", minSecretLength))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		problems = append(problems, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.AccessTTL <= 0 {
		problems = append(problems, "JWT_ACCESS_TTL must be positive")
	}
	if c.RefreshTTL <= c.AccessTTL {
		problems = append(problems, "JWT_REFRESH_TTL must exceed JWT_ACCESS_TTL")
	}
	if c.BcryptCost < MinBcryptCost || c.BcryptCost > MaxBcryptCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", MinBcryptCost, MaxBcryptCost))
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "strict", "lax", "none":
	default:
		problems = append(problems, fmt.Sprintf("COOKIE_SAME_SITE must be strict, lax or none, got %q", c.CookieSameSite))
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// IsProd reports whether the service runs in the production stage.
func (c Config) IsProd() bool { return c.Stage == "prod" }

// SameSite maps the configured cookie policy to the http constant.
func (c Config) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
