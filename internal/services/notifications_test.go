package services

import (
	"context"
	"testing"
	"time"

	"voicesocial/internal/models"
	"voicesocial/internal/testsupport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNotificationCreateSkipsSelf(t *testing.T) {
	env := newTestEnv(t)
	testsupport.CreateUser(t, env.db, 1)

	var n *models.Notification
	err := env.db.Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = env.notifier.Create(tx, 1, 1, models.NotificationTypeLike, NotificationTarget{})
		return err
	})
	require.NoError(t, err)
	assert.Nil(t, n)

	count, err := env.notifier.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationListAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testsupport.CreateUser(t, env.db, 1)
	testsupport.CreateUser(t, env.db, 2)
	testsupport.CreateUser(t, env.db, 3)
	voice := testsupport.CreateVoice(t, env.db, 1, time.Now())

	base := time.Now().UTC().Add(-time.Hour)
	var ids []uint
	for i := 0; i < 3; i++ {
		sender := models.FID(2)
		n := models.Notification{
			RecipientFID: 1,
			SenderFID:    &sender,
			Type:         models.NotificationTypeLike,
			VoiceID:      &voice.ID,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, env.db.Omit("Recipient", "Sender", "Voice").Create(&n).Error)
		ids = append(ids, n.ID)
	}

	list, unread, err := env.notifier.List(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID, "newest first")
	assert.Equal(t, int64(3), unread)
	require.NotNil(t, list[0].Sender)
	assert.Equal(t, models.FID(2), list[0].Sender.FID)

	// 别人的通知不会被标记
	updated, err := env.notifier.MarkRead(ctx, 3, ids)
	require.NoError(t, err)
	assert.Zero(t, updated)

	updated, err = env.notifier.MarkRead(ctx, 1, []uint{ids[0]})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	updated, err = env.notifier.MarkRead(ctx, 1, []uint{ids[0]})
	require.NoError(t, err)
	assert.Zero(t, updated, "marking twice is a no-op")

	unreadList, unread, err := env.notifier.List(ctx, 1, true)
	require.NoError(t, err)
	assert.Len(t, unreadList, 2)
	assert.Equal(t, int64(2), unread)

	updated, err = env.notifier.MarkRead(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	unread, err = env.notifier.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationListPageSize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testsupport.CreateUser(t, env.db, 1)
	notifier := NewNotificationService(env.db, 2)

	for i := 0; i < 4; i++ {
		require.NoError(t, notifier.Welcome(ctx, 1))
	}

	list, unread, err := notifier.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(4), unread, "unread count is not limited by page size")
}
