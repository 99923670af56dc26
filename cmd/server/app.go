package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"voicesocial/internal/config"
	"voicesocial/internal/db"
	"voicesocial/internal/logging"
	"voicesocial/internal/metrics"
	"voicesocial/internal/services"
	"voicesocial/internal/storage"
	"voicesocial/internal/utils"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// app 在子命令之间共享配置、日志和数据库连接，按需初始化
type app struct {
	configPath *string
	cfg        *config.Config
	logger     *slog.Logger
	conn       *gorm.DB
}

func newApp(configPath *string) *app {
	return &app{configPath: configPath}
}

func (a *app) settings() (*config.Config, *slog.Logger, error) {
	if a.cfg != nil {
		return a.cfg, a.logger, nil
	}

	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(*a.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	a.cfg, a.logger = cfg, logger
	return cfg, logger, nil
}

func (a *app) database() (*gorm.DB, error) {
	if a.conn != nil {
		return a.conn, nil
	}
	cfg, logger, err := a.settings()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.conn = conn
	return conn, nil
}

func (a *app) close() {
	if a.conn == nil {
		return
	}
	if err := db.Close(a.conn); err != nil && a.logger != nil {
		a.logger.Warn("close database failed", "error", err)
	}
	a.conn = nil
}

// serviceSet 所有业务服务
type serviceSet struct {
	store       storage.AudioStore
	notifier    *services.NotificationService
	identity    *services.IdentityService
	ledger      *services.Ledger
	voices      *services.VoiceService
	rotation    *services.RotationService
	leaderboard *services.LeaderboardService
}

func (a *app) buildServices(m *metrics.Metrics) (*serviceSet, error) {
	cfg, logger, err := a.settings()
	if err != nil {
		return nil, err
	}
	conn, err := a.database()
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.Storage, conn)
	if err != nil {
		return nil, err
	}
	if cfg.Privacy.ClientHashKey == "" {
		logger.Warn("privacy.client_hash_key is empty, anonymous client hashes are unkeyed")
	}

	notifier := services.NewNotificationService(conn, cfg.Notifications.PageSize)
	identity := services.NewIdentityService(conn, notifier, cfg.Notifications.Welcome, logger)
	hasher := utils.NewClientHasher(cfg.Privacy.ClientHashKey)
	leaderboard, err := services.NewLeaderboardService(conn, cfg.Leaderboard)
	if err != nil {
		return nil, err
	}

	return &serviceSet{
		store:       store,
		notifier:    notifier,
		identity:    identity,
		ledger:      services.NewLedger(conn, identity, notifier, leaderboard, cfg.Points, hasher, m, logger),
		voices:      services.NewVoiceService(conn, store, identity, cfg.Storage, m, logger),
		rotation:    services.NewRotationService(conn, cfg.RotationWindow(), logger),
		leaderboard: leaderboard,
	}, nil
}
