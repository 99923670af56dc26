package db

import (
	"fmt"
	"log/slog"
	"time"

	"voicesocial/internal/config"
	"voicesocial/internal/logging"
	"voicesocial/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to the configured database. The caller owns the returned
// handle and must Close it on shutdown.
func Open(cfg config.Database, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormCfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if logger != nil {
		gormCfg.Logger = logging.Gorm(logger, cfg.LogLevel)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite 只允许单写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if logger != nil {
		logger.Info("database connection established", "driver", cfg.Driver)
	}
	return conn, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.UserPoints{},
		&models.Voice{},
		&models.VoiceAudio{},
		&models.VoiceLike{},
		&models.VoiceComment{},
		&models.VoiceView{},
		&models.Notification{},
		&models.VoiceHistory{},
		&models.PointLog{},
	}
}

// Migrate creates or updates the schema.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
