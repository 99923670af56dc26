package models

import (
	"time"
)

// 积分动作
const (
	PointActionView    = "view"
	PointActionLike    = "like"
	PointActionUnlike  = "unlike"
	PointActionComment = "comment"
)

// PointLog 积分明细，Amount 为正表示增加，为负表示扣除
type PointLog struct {
	ID        uint      `gorm:"primaryKey"`
	UserFID   FID       `gorm:"column:user_fid;not null;index"`
	Amount    int       `gorm:"not null"`
	Action    string    `gorm:"size:20;not null"`
	VoiceID   string    `gorm:"size:36"`
	ActorFID  *FID      `gorm:"column:actor_fid"`
	CreatedAt time.Time `gorm:"index"`
}
