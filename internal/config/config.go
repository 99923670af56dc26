// Package config loads Voice Social settings from defaults, an optional TOML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Server contains HTTP listener settings.
type Server struct {
	Addr                   string   `toml:"addr"`
	Mode                   string   `toml:"mode"` // gin mode: debug, release, test
	TrustedProxies         []string `toml:"trusted_proxies"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
}

// Database selects the gorm dialector and pool sizing.
type Database struct {
	Driver                 string `toml:"driver"` // postgres or sqlite
	DSN                    string `toml:"dsn"`
	MaxOpenConns           int    `toml:"max_open_conns"`
	MaxIdleConns           int    `toml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `toml:"conn_max_lifetime_minutes"`
	LogLevel               string `toml:"log_level"` // silent, error, warn, info
}

// Storage selects where uploaded audio bytes live.
type Storage struct {
	Backend            string  `toml:"backend"` // blob or file
	Dir                string  `toml:"dir"`
	MinUploadBytes     int64   `toml:"min_upload_bytes"`
	MaxUploadBytes     int64   `toml:"max_upload_bytes"`
	MaxDurationSeconds float64 `toml:"max_duration_seconds"`
}

// Points holds the score granted to a voice owner per interaction.
type Points struct {
	View    int `toml:"view"`
	Like    int `toml:"like"`
	Comment int `toml:"comment"`
}

// Feed controls voice selection and rotation history.
type Feed struct {
	DefaultLimit          int `toml:"default_limit"`
	MaxLimit              int `toml:"max_limit"`
	RotationWindowHours   int `toml:"rotation_window_hours"`
	HistoryRetentionHours int `toml:"history_retention_hours"`
}

type Notifications struct {
	PageSize int  `toml:"page_size"`
	Welcome  bool `toml:"welcome"`
}

type Leaderboard struct {
	DefaultLimit    int `toml:"default_limit"`
	MaxLimit        int `toml:"max_limit"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
	CacheSize       int `toml:"cache_size"`
}

// Privacy holds the key used to hash anonymous client addresses.
type Privacy struct {
	ClientHashKey string `toml:"client_hash_key"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json or text
}

// Config is the full service configuration.
type Config struct {
	Server        Server        `toml:"server"`
	Database      Database      `toml:"database"`
	Storage       Storage       `toml:"storage"`
	Points        Points        `toml:"points"`
	Feed          Feed          `toml:"feed"`
	Notifications Notifications `toml:"notifications"`
	Leaderboard   Leaderboard   `toml:"leaderboard"`
	Privacy       Privacy       `toml:"privacy"`
	Log           Log           `toml:"log"`
}

// Load builds the configuration. An empty path falls back to $VOICE_SOCIAL_CONFIG;
// a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOICE_SOCIAL_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) RotationWindow() time.Duration {
	return time.Duration(c.Feed.RotationWindowHours) * time.Hour
}

func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.Feed.HistoryRetentionHours) * time.Hour
}

func (c *Config) LeaderboardCacheTTL() time.Duration {
	return time.Duration(c.Leaderboard.CacheTTLSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.Database.ConnMaxLifetimeMinutes) * time.Minute
}
