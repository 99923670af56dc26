package services

import (
	"context"
	"errors"
	"log/slog"

	"voicesocial/internal/models"
	"voicesocial/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileFields 可选的资料字段，空字符串表示未提供，不会覆盖已有值
type ProfileFields struct {
	Username    string
	DisplayName string
	PfpURL      string
	Bio         string
}

func (p ProfileFields) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if v := utils.StripHTML(p.Username); v != "" {
		updates["username"] = v
	}
	if v := utils.StripHTML(p.DisplayName); v != "" {
		updates["display_name"] = v
	}
	if v := clean(p.PfpURL); v != "" {
		updates["pfp_url"] = v
	}
	if v := utils.StripHTML(p.Bio); v != "" {
		updates["bio"] = v
	}
	return updates
}

// IdentityService 保证 FID 对应的用户和积分记录存在
type IdentityService struct {
	db       *gorm.DB
	notifier *NotificationService
	welcome  bool
	logger   *slog.Logger
}

func NewIdentityService(conn *gorm.DB, notifier *NotificationService, welcome bool, logger *slog.Logger) *IdentityService {
	return &IdentityService{db: conn, notifier: notifier, welcome: welcome, logger: loggerOrDefault(logger)}
}

// EnsureUser 按 FID upsert 用户：不存在则创建，存在则只更新传入的字段。
// 同时保证积分记录存在。新用户会收到一条欢迎通知（失败不影响结果）
func (s *IdentityService) EnsureUser(ctx context.Context, fid models.FID, fields ProfileFields) (*models.User, error) {
	if fid <= 0 {
		return nil, validationError("user fid is required")
	}

	var (
		user    *models.User
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, created, err = ensureUser(tx, fid, fields)
		return err
	})
	if err != nil {
		return nil, storageError("failed to save user", err)
	}

	if created {
		s.greet(ctx, fid)
	}
	return user, nil
}

// greet 发送欢迎通知，失败只记日志
func (s *IdentityService) greet(ctx context.Context, fid models.FID) {
	if s == nil || !s.welcome || s.notifier == nil {
		return
	}
	if err := s.notifier.Welcome(ctx, fid); err != nil {
		s.logger.Warn("welcome notification failed", "fid", fid, "error", err)
	}
}

// GetUser 查询用户及其积分
func (s *IdentityService) GetUser(ctx context.Context, fid models.FID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Points").Where("fid = ?", fid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("user %s not found", fid)
	}
	if err != nil {
		return nil, storageError("failed to load user", err)
	}
	return &user, nil
}

// ensureUser 在给定事务内执行 upsert，返回是否新建
func ensureUser(tx *gorm.DB, fid models.FID, fields ProfileFields) (*models.User, bool, error) {
	updates := fields.updates()

	var existing models.User
	err := tx.Where("fid = ?", fid).First(&existing).Error
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user := models.User{FID: fid, Username: fid.DefaultUsername()}
		applyUpdates(&user, updates)
		// 唯一索引兜底并发插入，冲突时退化为更新
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "fid"}}, DoNothing: true}).
			Create(&user)
		if res.Error != nil {
			return nil, false, res.Error
		}
		created = res.RowsAffected == 1
	case err != nil:
		return nil, false, err
	}

	if !created && len(updates) > 0 {
		if err := tx.Model(&models.User{}).Where("fid = ?", fid).Updates(updates).Error; err != nil {
			return nil, false, err
		}
	}

	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_fid"}}, DoNothing: true}).
		Create(&models.UserPoints{UserFID: fid}).Error; err != nil {
		return nil, false, err
	}

	var user models.User
	if err := tx.Preload("Points").Where("fid = ?", fid).First(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, created, nil
}

func applyUpdates(user *models.User, updates map[string]interface{}) {
	if v, ok := updates["username"].(string); ok {
		user.Username = v
	}
	if v, ok := updates["display_name"].(string); ok {
		user.DisplayName = v
	}
	if v, ok := updates["pfp_url"].(string); ok {
		user.PfpURL = v
	}
	if v, ok := updates["bio"].(string); ok {
		user.Bio = v
	}
}
