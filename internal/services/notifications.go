package services

import (
	"context"

	"voicesocial/internal/models"

	"gorm.io/gorm"
)

// NotificationService 通知的创建与读取
type NotificationService struct {
	db       *gorm.DB
	pageSize int
}

func NewNotificationService(conn *gorm.DB, pageSize int) *NotificationService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &NotificationService{db: conn, pageSize: pageSize}
}

// NotificationTarget 通知关联的语音或评论
type NotificationTarget struct {
	VoiceID   string
	CommentID string
}

// Create 在调用方的事务内创建互动通知。发送者与接收者相同时跳过，返回 nil
func (s *NotificationService) Create(tx *gorm.DB, recipient, sender models.FID, typ models.NotificationType, target NotificationTarget) (*models.Notification, error) {
	if recipient == sender {
		return nil, nil
	}

	n := models.Notification{
		RecipientFID: recipient,
		SenderFID:    &sender,
		Type:         typ,
	}
	if target.VoiceID != "" {
		n.VoiceID = &target.VoiceID
	}
	if target.CommentID != "" {
		n.CommentID = &target.CommentID
	}
	if err := tx.Omit("Recipient", "Sender", "Voice").Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Welcome 给新用户发一条系统通知
func (s *NotificationService) Welcome(ctx context.Context, recipient models.FID) error {
	n := models.Notification{
		RecipientFID: recipient,
		Type:         models.NotificationTypeWelcome,
	}
	return s.db.WithContext(ctx).Omit("Recipient", "Sender", "Voice").Create(&n).Error
}

// List 返回最近的通知（最多 pageSize 条，新的在前）以及未读总数
func (s *NotificationService) List(ctx context.Context, fid models.FID, unreadOnly bool) ([]models.Notification, int64, error) {
	if fid <= 0 {
		return nil, 0, validationError("user fid is required")
	}

	query := s.db.WithContext(ctx).
		Preload("Sender").
		Where("recipient_fid = ?", fid)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Order("id DESC").Limit(s.pageSize).Find(&notifications).Error; err != nil {
		return nil, 0, storageError("failed to fetch notifications", err)
	}

	unread, err := s.UnreadCount(ctx, fid)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// UnreadCount 未读通知数，不受分页限制
func (s *NotificationService) UnreadCount(ctx context.Context, fid models.FID) (int64, error) {
	if fid <= 0 {
		return 0, validationError("user fid is required")
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_fid = ? AND is_read = ?", fid, false).
		Count(&count).Error
	if err != nil {
		return 0, storageError("failed to count notifications", err)
	}
	return count, nil
}

// MarkRead 标记已读。ids 为 nil 时标记该用户全部未读通知。
// 只会修改属于该用户的通知，重复标记不报错。返回实际更新条数
func (s *NotificationService) MarkRead(ctx context.Context, fid models.FID, ids []uint) (int64, error) {
	if fid <= 0 {
		return 0, validationError("user fid is required")
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_fid = ? AND is_read = ?", fid, false)
	if ids != nil {
		if len(ids) == 0 {
			return 0, nil
		}
		query = query.Where("id IN ?", ids)
	}

	res := query.Update("is_read", true)
	if res.Error != nil {
		return 0, storageError("failed to mark notifications as read", res.Error)
	}
	return res.RowsAffected, nil
}
