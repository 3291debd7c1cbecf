// Package config holds the engine's runtime configuration. Values come from
// viper, so they may be set in a config file, STRIKER_* environment
// variables or command-line flags.
package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/nstehr/striker/model"
	"github.com/spf13/viper"
)

// Config is the full engine configuration.
type Config struct {
	Socket   string      `mapstructure:"socket"`
	Playbook string      `mapstructure:"playbook"`
	Watch    bool        `mapstructure:"watch"`
	Goalie   int         `mapstructure:"goalie"`
	Log      LogConfig   `mapstructure:"log"`
	Redis    RedisConfig `mapstructure:"redis"`
	Field    model.Field `mapstructure:"field"`
}

// LogConfig controls the process-wide slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// RedisConfig controls play-change telemetry.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	// Prefix namespaces every key and channel written by the publisher.
	Prefix string `mapstructure:"prefix"`
	Buffer int    `mapstructure:"buffer"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Socket: "/tmp/striker.sock",
		Goalie: -1,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "striker",
			Buffer: 64,
		},
		Field: model.DefaultField(),
	}
}

// SetDefaults registers every default with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("socket", defaults.Socket)
	viper.SetDefault("playbook", defaults.Playbook)
	viper.SetDefault("watch", defaults.Watch)
	viper.SetDefault("goalie", defaults.Goalie)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.format", defaults.Log.Format)

	viper.SetDefault("redis.enabled", defaults.Redis.Enabled)
	viper.SetDefault("redis.addr", defaults.Redis.Addr)
	viper.SetDefault("redis.prefix", defaults.Redis.Prefix)
	viper.SetDefault("redis.buffer", defaults.Redis.Buffer)

	viper.SetDefault("field.length", defaults.Field.Length)
	viper.SetDefault("field.width", defaults.Field.Width)
	viper.SetDefault("field.border", defaults.Field.Border)
	viper.SetDefault("field.goal_width", defaults.Field.GoalWidth)
	viper.SetDefault("field.goal_depth", defaults.Field.GoalDepth)
	viper.SetDefault("field.penalty_dist", defaults.Field.PenaltyDist)
	viper.SetDefault("field.arc_radius", defaults.Field.ArcRadius)
	viper.SetDefault("field.center_radius", defaults.Field.CenterRadius)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Logger builds the slog logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Log.Level)}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
