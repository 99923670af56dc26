package services

import (
	"context"

	"voicesocial/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 积分分项对应的列
const (
	columnViewPoints    = "view_points"
	columnLikePoints    = "like_points"
	columnCommentPoints = "comment_points"
)

// pointChange 一次积分变动
type pointChange struct {
	owner   models.FID
	actor   *models.FID
	column  string
	action  string
	amount  int
	voiceID string
}

// applyPoints 在事务内用相对更新调整分项和总分，并记录积分明细，返回实际变动的分数。
// 扣减时先锁住积分行读出分项，最多扣到 0，总分同步扣除同样的数，保证 total = view + like + comment。
// 明细里记录的是实际扣除的分数，所以明细之和始终等于总分
func applyPoints(tx *gorm.DB, change pointChange) (int, error) {
	if change.amount == 0 {
		return 0, nil
	}

	// 正常情况下积分记录在用户创建时已存在
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_fid"}}, DoNothing: true}).
		Create(&models.UserPoints{UserFID: change.owner}).Error; err != nil {
		return 0, err
	}

	col := change.column
	applied := change.amount
	var updates map[string]interface{}
	if change.amount > 0 {
		updates = map[string]interface{}{
			col:            gorm.Expr(col+" + ?", applied),
			"total_points": gorm.Expr("total_points + ?", applied),
		}
	} else {
		var current []int
		if err := tx.Model(&models.UserPoints{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_fid = ?", change.owner).
			Pluck(col, &current).Error; err != nil {
			return 0, err
		}
		n := -change.amount
		if len(current) == 0 || current[0] <= 0 {
			return 0, nil
		}
		if current[0] < n {
			n = current[0]
		}
		applied = -n
		updates = map[string]interface{}{
			col:            gorm.Expr("CASE WHEN "+col+" >= ? THEN "+col+" - ? ELSE 0 END", n, n),
			"total_points": gorm.Expr("total_points - CASE WHEN "+col+" >= ? THEN ? ELSE "+col+" END", n, n),
		}
	}
	if err := tx.Model(&models.UserPoints{}).Where("user_fid = ?", change.owner).Updates(updates).Error; err != nil {
		return 0, err
	}

	err := tx.Create(&models.PointLog{
		UserFID:  change.owner,
		Amount:   applied,
		Action:   change.action,
		VoiceID:  change.voiceID,
		ActorFID: change.actor,
	}).Error
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// PointHistory 返回用户最近的积分明细
func (l *Ledger) PointHistory(ctx context.Context, fid models.FID, limit int) ([]models.PointLog, error) {
	if fid <= 0 {
		return nil, validationError("user fid is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var logs []models.PointLog
	err := l.db.WithContext(ctx).
		Where("user_fid = ?", fid).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, storageError("failed to fetch point history", err)
	}
	return logs, nil
}
