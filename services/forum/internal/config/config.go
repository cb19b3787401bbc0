package config

import (
	"errors"
	"os"
	"strings"
	"time"

	platform "github.com/example/forum-platform/internal/platform/config"
)

type Config struct {
	App platform.AppConfig
	Env string

	DatabaseURL string
	NATSURL     string
	RedisURL    string

	JWTSecret string
	TokenTTL  time.Duration

	// TTL for the front-page sample cache.
	CacheTTL time.Duration
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (Config, error) {
	app, err := platform.Load()
	if err != nil {
		return Config{}, err
	}
	env := strings.TrimSpace(os.Getenv("APP_ENV"))

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		if strings.EqualFold(env, "production") {
			return Config{}, errors.New("JWT_SECRET is required in production")
		}
		jwtSecret = "dev-secret"
	}

	return Config{
		App:         app,
		Env:         env,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		NATSURL:     strings.TrimSpace(os.Getenv("NATS_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:   jwtSecret,
		TokenTTL:    envDuration("TOKEN_TTL", 24*time.Hour),
		CacheTTL:    envDuration("CACHE_TTL", 30*time.Second),
	}, nil
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
