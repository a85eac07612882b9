package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/gradebook-api/internal/grading"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseDriver  string
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	NATSChannelBase string
	JWTSecret       string
	SummaryCacheTTL time.Duration
	WriteRateLimit  int
	WriteRateWindow time.Duration
	Grading         grading.Rules
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from GRADEBOOK_ prefixed environment variables and an optional
// .env file in the working directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADEBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := grading.DefaultRules()
	v.SetDefault("app.name", "Gradebook API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.channel", "gradebook")
	v.SetDefault("summary.cache_ttl", "5m")
	v.SetDefault("http.write_rate_limit", 30)
	v.SetDefault("http.write_rate_window", "1m")
	v.SetDefault("grading.zone_unit_ceiling", defaults.ZoneUnitCeiling)
	v.SetDefault("grading.partial_ceiling", defaults.PartialCeiling)
	v.SetDefault("grading.max_activities", defaults.MaxActivities)

	ttl, err := parseDuration(v.GetString("summary.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid summary cache ttl: %w", err)
	}
	window, err := parseDuration(v.GetString("http.write_rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid write rate window: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseDriver:  strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		NATSChannelBase: v.GetString("nats.channel"),
		JWTSecret:       v.GetString("jwt.secret"),
		SummaryCacheTTL: ttl,
		WriteRateLimit:  v.GetInt("http.write_rate_limit"),
		WriteRateWindow: window,
		Grading: grading.Rules{
			ZoneUnitCeiling: v.GetFloat64("grading.zone_unit_ceiling"),
			PartialCeiling:  v.GetFloat64("grading.partial_ceiling"),
			MaxActivities:   v.GetInt("grading.max_activities"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if cfg.Grading.ZoneUnitCeiling <= 0 || cfg.Grading.PartialCeiling <= 0 || cfg.Grading.MaxActivities <= 0 {
		return Config{}, fmt.Errorf("grading limits must be positive")
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
