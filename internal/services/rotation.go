package services

import (
	"context"
	"log/slog"
	"time"

	"voicesocial/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RotationService 为用户挑选语音，24 小时内已推送过的不再出现
type RotationService struct {
	db     *gorm.DB
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRotationService(conn *gorm.DB, window time.Duration, logger *slog.Logger) *RotationService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &RotationService{db: conn, window: window, logger: loggerOrDefault(logger), now: time.Now}
}

// SelectVoices 按时间倒序返回 count 条语音，page 从 1 开始。
// 传入 fid 时排除窗口期内已推送给该用户的语音，并记录本次推送（记录失败不影响返回）。
// 此时已看过的语音不在候选集中，page 被忽略，始终从头取。
// 剩余不足 count 条时有多少返回多少
func (r *RotationService) SelectVoices(ctx context.Context, count, page int, fid *models.FID) ([]models.Voice, error) {
	if count <= 0 {
		return nil, validationError("count must be positive")
	}
	if page < 1 {
		page = 1
	}
	if fid != nil && *fid <= 0 {
		fid = nil
	}
	offset := (page - 1) * count
	if fid != nil {
		offset = 0
	}

	conn := r.db.WithContext(ctx)
	now := r.now().UTC()

	query := conn.Preload("User")
	if fid != nil {
		shown := conn.Model(&models.VoiceHistory{}).
			Select("voice_id").
			Where("user_fid = ? AND shown_at >= ?", *fid, now.Add(-r.window))
		query = query.Where("id NOT IN (?)", shown)
	}

	var voices []models.Voice
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(count).
		Find(&voices).Error
	if err != nil {
		return nil, storageError("failed to fetch voices", err)
	}

	if fid != nil && len(voices) > 0 {
		r.remember(ctx, *fid, voices, now)
	}
	return voices, nil
}

func (r *RotationService) remember(ctx context.Context, fid models.FID, voices []models.Voice, shownAt time.Time) {
	history := make([]models.VoiceHistory, 0, len(voices))
	for _, v := range voices {
		history = append(history, models.VoiceHistory{UserFID: fid, VoiceID: v.ID, ShownAt: shownAt})
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&history).Error; err != nil {
		r.logger.Warn("record voice history failed", "fid", fid, "count", len(history), "error", err)
	}
}

// PruneHistory 删除早于 olderThan 的推送记录，返回删除条数。
// olderThan 不能小于轮换窗口，否则会让用户重新看到刚推送过的语音
func (r *RotationService) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan < r.window {
		return 0, validationError("retention %s is shorter than the rotation window %s", olderThan, r.window)
	}
	cutoff := r.now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).Where("shown_at < ?", cutoff).Delete(&models.VoiceHistory{})
	if res.Error != nil {
		return 0, storageError("failed to prune voice history", res.Error)
	}
	if res.RowsAffected > 0 {
		r.logger.Info("voice history pruned", "rows", res.RowsAffected, "cutoff", cutoff)
	}
	return res.RowsAffected, nil
}
