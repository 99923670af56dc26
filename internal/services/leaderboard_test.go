package services

import (
	"context"
	"testing"
	"time"

	"voicesocial/internal/models"
	"voicesocial/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPoints(t *testing.T, env *testEnv, fid models.FID, total int) {
	t.Helper()
	require.NoError(t, env.db.Model(&models.UserPoints{}).Where("user_fid = ?", fid).
		Updates(map[string]interface{}{"like_points": total, "total_points": total}).Error)
}

func TestLeaderboardAllTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for fid, pts := range map[models.FID]int{1: 30, 2: 80, 3: 10} {
		testsupport.CreateUser(t, env.db, fid)
		setPoints(t, env, fid, pts)
	}
	testsupport.CreateVoice(t, env.db, 2, time.Now())
	testsupport.CreateVoice(t, env.db, 2, time.Now())

	entries, err := env.leaderboard.Leaderboard(ctx, TimeframeAll, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.FID(2), entries[0].User.FID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 80, entries[0].Points.TotalPoints)
	assert.Equal(t, int64(2), entries[0].VoiceCount)
	assert.Equal(t, "Performer", entries[0].Level)
	assert.Equal(t, models.FID(1), entries[1].User.FID)
	assert.Equal(t, 3, entries[2].Rank)
	assert.Zero(t, entries[2].VoiceCount)

	top, err := env.leaderboard.Leaderboard(ctx, TimeframeAll, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestLeaderboardWeeklyFiltersByRecentVoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for fid, pts := range map[models.FID]int{1: 500, 2: 20, 3: 40} {
		testsupport.CreateUser(t, env.db, fid)
		setPoints(t, env, fid, pts)
	}
	// 1 只有旧语音，2 和 3 在本周发过
	testsupport.CreateVoice(t, env.db, 1, time.Now().Add(-10*24*time.Hour))
	testsupport.CreateVoice(t, env.db, 2, time.Now().Add(-2*24*time.Hour))
	testsupport.CreateVoice(t, env.db, 3, time.Now().Add(-time.Hour))

	weekly, err := env.leaderboard.Leaderboard(ctx, TimeframeWeekly, 10)
	require.NoError(t, err)
	require.Len(t, weekly, 2)
	assert.Equal(t, models.FID(3), weekly[0].User.FID)
	assert.Equal(t, 40, weekly[0].Points.TotalPoints, "ranked by all-time points")
	assert.Equal(t, models.FID(2), weekly[1].User.FID)

	monthly, err := env.leaderboard.Leaderboard(ctx, TimeframeMonthly, 10)
	require.NoError(t, err)
	require.Len(t, monthly, 3)
	assert.Equal(t, models.FID(1), monthly[0].User.FID)
}

func TestLeaderboardCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cfg := env.cfg.Leaderboard
	cfg.CacheTTLSeconds = 60
	svc, err := NewLeaderboardService(env.db, cfg)
	require.NoError(t, err)

	testsupport.CreateUser(t, env.db, 1)
	first, err := svc.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	testsupport.CreateUser(t, env.db, 2)
	cached, err := svc.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	svc.Invalidate()
	fresh, err := svc.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestLeaderboardRefreshesAfterPointChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cfg := env.cfg.Leaderboard
	cfg.CacheTTLSeconds = 30
	board, err := NewLeaderboardService(env.db, cfg)
	require.NoError(t, err)
	ledger := NewLedger(env.db, env.identity, env.notifier, board, env.cfg.Points, nil, nil, nil)

	testsupport.CreateUser(t, env.db, 1)
	testsupport.CreateUser(t, env.db, 2)
	voice := testsupport.CreateVoice(t, env.db, 1, time.Now())

	before, err := board.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Zero(t, before[0].Points.TotalPoints)

	_, err = ledger.ToggleLike(ctx, 2, voice.ID)
	require.NoError(t, err)

	after, err := board.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	require.NotEmpty(t, after)
	assert.Equal(t, models.FID(1), after[0].User.FID)
	assert.Equal(t, 5, after[0].Points.TotalPoints)
	assert.Equal(t, testsupport.Points(t, env.db, 1).TotalPoints, after[0].Points.TotalPoints)

	_, err = ledger.AddComment(ctx, CommentInput{VoiceID: voice.ID, UserFID: 2, Content: "nice"})
	require.NoError(t, err)
	after, err = board.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, after[0].Points.TotalPoints)
}

func TestRank(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for fid, pts := range map[models.FID]int{1: 10, 2: 10, 3: 30} {
		testsupport.CreateUser(t, env.db, fid)
		setPoints(t, env, fid, pts)
	}

	rank, err := env.leaderboard.Rank(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = env.leaderboard.Rank(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank, "ties share a rank")

	_, err = env.leaderboard.Rank(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("")
	require.NoError(t, err)
	assert.Equal(t, TimeframeAll, tf)

	tf, err = ParseTimeframe("Weekly")
	require.NoError(t, err)
	assert.Equal(t, TimeframeWeekly, tf)

	_, err = ParseTimeframe("daily")
	assert.ErrorIs(t, err, ErrValidation)
}
