// Package testsupport holds fixtures shared by package tests.
package testsupport

import (
	"fmt"
	"testing"
	"time"

	"voicesocial/internal/config"
	"voicesocial/internal/db"
	"voicesocial/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	conn, err := db.Open(config.Database{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() { _ = db.Close(conn) })
	return conn
}

// Config returns the default configuration with caching disabled so reads
// observe writes immediately.
func Config() *config.Config {
	cfg := config.Default()
	cfg.Leaderboard.CacheTTLSeconds = 0
	cfg.Notifications.Welcome = false
	return &cfg
}

// CreateUser inserts a user together with its zeroed points row.
func CreateUser(t *testing.T, conn *gorm.DB, fid models.FID) *models.User {
	t.Helper()

	user := &models.User{FID: fid, Username: fid.DefaultUsername()}
	require.NoError(t, conn.Omit("Points").Create(user).Error)
	require.NoError(t, conn.Create(&models.UserPoints{UserFID: fid}).Error)
	return user
}

// CreateVoice inserts a voice owned by fid with the given creation time.
func CreateVoice(t *testing.T, conn *gorm.DB, fid models.FID, createdAt time.Time) *models.Voice {
	t.Helper()

	voice := &models.Voice{
		UserFID:       fid,
		AudioMimeType: "audio/webm",
		AudioSize:     2048,
		Duration:      12.5,
		Title:         "test voice",
		CreatedAt:     createdAt.UTC(),
	}
	require.NoError(t, conn.Omit("User").Create(voice).Error)
	return voice
}

// Points loads the points row for fid.
func Points(t *testing.T, conn *gorm.DB, fid models.FID) models.UserPoints {
	t.Helper()

	var points models.UserPoints
	require.NoError(t, conn.Where("user_fid = ?", fid).First(&points).Error)
	return points
}
