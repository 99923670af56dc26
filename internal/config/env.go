package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv overrides file values with environment variables. Variables that
// are unset or empty leave the current value alone.
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	setString(&c.Server.Addr, "LISTEN_ADDR")
	setString(&c.Server.Mode, "GIN_MODE")
	if proxies := os.Getenv("TRUSTED_PROXIES"); proxies != "" {
		c.Server.TrustedProxies = splitList(proxies)
	}

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setInt(&c.Database.MaxOpenConns, "DATABASE_MAX_OPEN_CONNS")
	setString(&c.Database.LogLevel, "DATABASE_LOG_LEVEL")

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.Dir, "AUDIO_DIR")

	setInt(&c.Points.View, "POINTS_VIEW")
	setInt(&c.Points.Like, "POINTS_LIKE")
	setInt(&c.Points.Comment, "POINTS_COMMENT")

	setString(&c.Privacy.ClientHashKey, "CLIENT_HASH_KEY")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
