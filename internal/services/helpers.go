package services

import (
	"log/slog"
	"strings"
)

func clean(s string) string {
	return strings.TrimSpace(s)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
