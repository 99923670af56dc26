package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeLike    NotificationType = "like"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeFollow  NotificationType = "follow"
	NotificationTypeWelcome NotificationType = "welcome" // 系统通知，无发送者
)

type Notification struct {
	ID           uint             `gorm:"primaryKey"`
	RecipientFID FID              `gorm:"column:recipient_fid;not null;index:idx_notification_recipient"`
	Recipient    User             `gorm:"foreignKey:RecipientFID;references:FID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SenderFID    *FID             `gorm:"column:sender_fid;index"`
	Sender       *User            `gorm:"foreignKey:SenderFID;references:FID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Type         NotificationType `gorm:"type:varchar(20);not null"`
	VoiceID      *string          `gorm:"size:36;index"`
	Voice        *Voice           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CommentID    *string          `gorm:"size:36"`
	Read         bool             `gorm:"column:is_read;not null;default:false;index:idx_notification_recipient"`
	CreatedAt    time.Time        `gorm:"index"`
}
