package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentKind string

const (
	CommentKindText  CommentKind = "text"
	CommentKindVoice CommentKind = "voice"
)

// Valid reports whether k is one of the known comment kinds.
func (k CommentKind) Valid() bool {
	return k == CommentKindText || k == CommentKindVoice
}

type VoiceComment struct {
	ID        string      `gorm:"primaryKey;size:36"`
	VoiceID   string      `gorm:"size:36;not null;index"`
	Voice     Voice       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserFID   FID         `gorm:"column:user_fid;not null;index"`
	User      User        `gorm:"foreignKey:UserFID;references:FID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Kind      CommentKind `gorm:"type:varchar(10);not null;default:'text'"`
	Content   string      `gorm:"type:text"`
	AudioURL  string      `gorm:"size:512"`
	CreatedAt time.Time   `gorm:"index"`
}

func (c *VoiceComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
