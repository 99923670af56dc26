package models

import (
	"time"
)

type User struct {
	ID          uint       `gorm:"primaryKey"`
	FID         FID        `gorm:"column:fid;uniqueIndex;not null"`
	Username    string     `gorm:"size:64;not null"`
	DisplayName string     `gorm:"size:128"`
	PfpURL      string     `gorm:"size:512"`
	Bio         string     `gorm:"size:500"`
	Points      UserPoints `gorm:"foreignKey:UserFID;references:FID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Name 返回用于展示的名字，优先 DisplayName
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// UserPoints 用户积分汇总，与 User 一对一
// TotalPoints 始终等于三个分项之和
type UserPoints struct {
	ID            uint `gorm:"primaryKey"`
	UserFID       FID  `gorm:"column:user_fid;uniqueIndex;not null"`
	TotalPoints   int  `gorm:"not null;default:0;index"`
	ViewPoints    int  `gorm:"not null;default:0"`
	LikePoints    int  `gorm:"not null;default:0"`
	CommentPoints int  `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
