package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Voice 语音动态
type Voice struct {
	ID            string    `gorm:"primaryKey;size:36"`
	UserFID       FID       `gorm:"column:user_fid;not null;index"`
	User          User      `gorm:"foreignKey:UserFID;references:FID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AudioMimeType string    `gorm:"size:64"`
	AudioSize     int64     `gorm:"not null;default:0"`
	AudioURL      string    `gorm:"size:512"` // 旧数据只有文件路径
	Duration      float64   `gorm:"not null"`
	Title         string    `gorm:"size:200"`
	Description   string    `gorm:"type:text"`
	IsAnonymous   bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"index"`

	Likes []VoiceLike `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (v *Voice) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VoiceAudio 内联存储的音频数据，单独建表避免列表查询时加载大字段
type VoiceAudio struct {
	VoiceID   string `gorm:"primaryKey;size:36"`
	Voice     Voice  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	MimeType  string `gorm:"size:64;not null"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
}

// VoiceHistory 记录某条语音已推送给某个用户，用于 24 小时内去重
type VoiceHistory struct {
	ID      uint      `gorm:"primaryKey"`
	UserFID FID       `gorm:"column:user_fid;not null;index:idx_history_user_shown"`
	VoiceID string    `gorm:"size:36;not null;index"`
	Voice   Voice     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ShownAt time.Time `gorm:"not null;index:idx_history_user_shown;index"`
}
