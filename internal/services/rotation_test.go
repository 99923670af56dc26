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

func seedVoices(t *testing.T, env *testEnv, n int) []*models.Voice {
	t.Helper()
	testsupport.CreateUser(t, env.db, 1)
	base := time.Now().UTC().Add(-time.Duration(n) * time.Minute)
	voices := make([]*models.Voice, 0, n)
	for i := 0; i < n; i++ {
		voices = append(voices, testsupport.CreateVoice(t, env.db, 1, base.Add(time.Duration(i)*time.Minute)))
	}
	return voices
}

func ids(voices []models.Voice) []string {
	out := make([]string, 0, len(voices))
	for _, v := range voices {
		out = append(out, v.ID)
	}
	return out
}

func TestSelectVoicesAnonymousRecency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seeded := seedVoices(t, env, 5)

	first, err := env.rotation.SelectVoices(ctx, 2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[4].ID, seeded[3].ID}, ids(first))
	assert.Equal(t, "user_1", first[0].User.Username)

	second, err := env.rotation.SelectVoices(ctx, 2, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[2].ID, seeded[1].ID}, ids(second))

	again, err := env.rotation.SelectVoices(ctx, 2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(again), "anonymous selection keeps no history")

	var history int64
	require.NoError(t, env.db.Model(&models.VoiceHistory{}).Count(&history).Error)
	assert.Zero(t, history)
}

func TestSelectVoicesExcludesRecentlyShown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedVoices(t, env, 5)
	fid := models.FID(2)

	first, err := env.rotation.SelectVoices(ctx, 3, 1, &fid)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := env.rotation.SelectVoices(ctx, 3, 1, &fid)
	require.NoError(t, err)
	require.Len(t, second, 2, "fewer than requested once the pool runs low")
	assert.Empty(t, intersect(ids(first), ids(second)))

	third, err := env.rotation.SelectVoices(ctx, 3, 1, &fid)
	require.NoError(t, err)
	assert.Empty(t, third)

	other := models.FID(3)
	fresh, err := env.rotation.SelectVoices(ctx, 3, 1, &other)
	require.NoError(t, err)
	assert.Len(t, fresh, 3, "history is per user")

	env.rotation.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	later, err := env.rotation.SelectVoices(ctx, 10, 1, &fid)
	require.NoError(t, err)
	assert.Len(t, later, 5, "voices return after the rotation window")
}

func TestSelectVoicesPagesShowEachVoiceOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seeded := seedVoices(t, env, 6)
	fid := models.FID(2)

	seen := make(map[string]int)
	for page := 1; page <= 4; page++ {
		voices, err := env.rotation.SelectVoices(ctx, 2, page, &fid)
		require.NoError(t, err)
		if page <= 3 {
			assert.Len(t, voices, 2, "page %d", page)
		} else {
			assert.Empty(t, voices, "pool exhausted")
		}
		for _, id := range ids(voices) {
			seen[id]++
		}
	}

	require.Len(t, seen, len(seeded))
	for _, v := range seeded {
		assert.Equal(t, 1, seen[v.ID], "voice %s", v.ID)
	}
}

func TestSelectVoicesRejectsBadCount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rotation.SelectVoices(context.Background(), 0, 1, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPruneHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seeded := seedVoices(t, env, 2)
	now := time.Now().UTC()

	rows := []models.VoiceHistory{
		{UserFID: 2, VoiceID: seeded[0].ID, ShownAt: now.Add(-100 * time.Hour)},
		{UserFID: 2, VoiceID: seeded[1].ID, ShownAt: now.Add(-80 * time.Hour)},
		{UserFID: 2, VoiceID: seeded[1].ID, ShownAt: now.Add(-time.Hour)},
	}
	require.NoError(t, env.db.Omit("Voice").Create(&rows).Error)

	_, err := env.rotation.PruneHistory(ctx, time.Hour)
	assert.ErrorIs(t, err, ErrValidation)

	deleted, err := env.rotation.PruneHistory(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var left int64
	require.NoError(t, env.db.Model(&models.VoiceHistory{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	var out []string
	for _, v := range b {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}
