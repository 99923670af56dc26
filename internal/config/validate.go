package config

import (
	"errors"
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.Server.Mode = strings.ToLower(strings.TrimSpace(c.Server.Mode))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Database.LogLevel = strings.ToLower(strings.TrimSpace(c.Database.LogLevel))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	// postgresql is accepted as an alias
	if c.Database.Driver == "postgresql" {
		c.Database.Driver = "postgres"
	}
	if c.Leaderboard.MaxLimit < c.Leaderboard.DefaultLimit {
		c.Leaderboard.MaxLimit = c.Leaderboard.DefaultLimit
	}
	if c.Feed.MaxLimit < c.Feed.DefaultLimit {
		c.Feed.MaxLimit = c.Feed.DefaultLimit
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validatePoints(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if c.Notifications.PageSize <= 0 {
		return errors.New("notifications.page_size must be positive")
	}
	if c.Leaderboard.DefaultLimit <= 0 {
		return errors.New("leaderboard.default_limit must be positive")
	}
	if c.Leaderboard.CacheTTLSeconds < 0 {
		return errors.New("leaderboard.cache_ttl_seconds must not be negative")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Database.LogLevel {
	case "", "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("database.log_level %q is not recognized", c.Database.LogLevel)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "blob":
	case "file":
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return errors.New("storage.dir is required when storage.backend is file")
		}
	default:
		return fmt.Errorf("storage.backend must be blob or file, got %q", c.Storage.Backend)
	}
	if c.Storage.MinUploadBytes < 0 {
		return errors.New("storage.min_upload_bytes must not be negative")
	}
	if c.Storage.MaxUploadBytes <= c.Storage.MinUploadBytes {
		return errors.New("storage.max_upload_bytes must exceed storage.min_upload_bytes")
	}
	if c.Storage.MaxDurationSeconds <= 0 {
		return errors.New("storage.max_duration_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePoints() error {
	if c.Points.View < 0 || c.Points.Like < 0 || c.Points.Comment < 0 {
		return errors.New("points values must not be negative")
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.DefaultLimit <= 0 {
		return errors.New("feed.default_limit must be positive")
	}
	if c.Feed.RotationWindowHours <= 0 {
		return errors.New("feed.rotation_window_hours must be positive")
	}
	if c.Feed.HistoryRetentionHours < c.Feed.RotationWindowHours {
		return errors.New("feed.history_retention_hours must cover feed.rotation_window_hours")
	}
	return nil
}
