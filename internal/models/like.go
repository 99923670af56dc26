package models

import (
	"time"
)

// VoiceLike 点赞，(user_fid, voice_id) 唯一
type VoiceLike struct {
	ID        uint   `gorm:"primaryKey"`
	UserFID   FID    `gorm:"column:user_fid;not null;uniqueIndex:idx_like_user_voice"`
	User      User   `gorm:"foreignKey:UserFID;references:FID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	VoiceID   string `gorm:"size:36;not null;uniqueIndex:idx_like_user_voice;index"`
	CreatedAt time.Time
}

// VoiceView 播放记录。匿名访问 UserFID 为空，用 ClientHash 区分。
// (voice_id, user_fid) 唯一，NULL 之间不冲突，所以匿名记录可以有多条
type VoiceView struct {
	ID         uint   `gorm:"primaryKey"`
	VoiceID    string `gorm:"size:36;not null;uniqueIndex:idx_view_voice_user"`
	Voice      Voice  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserFID    *FID   `gorm:"column:user_fid;uniqueIndex:idx_view_voice_user"`
	ClientHash string `gorm:"size:64"`
	CreatedAt  time.Time
}
