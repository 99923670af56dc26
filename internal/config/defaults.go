package config

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:                   ":8080",
			Mode:                   "release",
			ShutdownTimeoutSeconds: 10,
		},
		Database: Database{
			Driver:                 "postgres",
			DSN:                    "host=localhost user=postgres password=postgres dbname=voicesocial port=5432 sslmode=disable TimeZone=UTC",
			MaxOpenConns:           20,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
			LogLevel:               "warn",
		},
		Storage: Storage{
			Backend:            "blob",
			Dir:                "./data/audio",
			MinUploadBytes:     1024,
			MaxUploadBytes:     10 << 20,
			MaxDurationSeconds: 60,
		},
		Points: Points{
			View:    1,
			Like:    5,
			Comment: 10,
		},
		Feed: Feed{
			DefaultLimit:          10,
			MaxLimit:              50,
			RotationWindowHours:   24,
			HistoryRetentionHours: 72,
		},
		Notifications: Notifications{
			PageSize: 50,
			Welcome:  true,
		},
		Leaderboard: Leaderboard{
			DefaultLimit:    50,
			MaxLimit:        100,
			CacheTTLSeconds: 30,
			CacheSize:       64,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}
