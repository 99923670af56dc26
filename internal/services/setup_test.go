package services

import (
	"testing"

	"voicesocial/internal/config"
	"voicesocial/internal/storage"
	"voicesocial/internal/testsupport"
	"voicesocial/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	identity    *IdentityService
	notifier    *NotificationService
	ledger      *Ledger
	voices      *VoiceService
	rotation    *RotationService
	leaderboard *LeaderboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testsupport.NewDB(t)
	cfg := testsupport.Config()

	notifier := NewNotificationService(conn, cfg.Notifications.PageSize)
	identity := NewIdentityService(conn, notifier, cfg.Notifications.Welcome, nil)
	leaderboard, err := NewLeaderboardService(conn, cfg.Leaderboard)
	require.NoError(t, err)
	ledger := NewLedger(conn, identity, notifier, leaderboard, cfg.Points, utils.NewClientHasher("test-key"), nil, nil)
	voices := NewVoiceService(conn, storage.NewBlobStore(conn), identity, cfg.Storage, nil, nil)
	rotation := NewRotationService(conn, cfg.RotationWindow(), nil)

	return &testEnv{
		db:          conn,
		cfg:         cfg,
		identity:    identity,
		notifier:    notifier,
		ledger:      ledger,
		voices:      voices,
		rotation:    rotation,
		leaderboard: leaderboard,
	}
}
