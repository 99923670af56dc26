package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"voicesocial/internal/config"
	"voicesocial/internal/metrics"
	"voicesocial/internal/models"
	"voicesocial/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCommentLength = 1000

// Ledger 记录点赞、评论、播放，并给语音作者加减积分
type Ledger struct {
	db          *gorm.DB
	identity    *IdentityService
	notifier    *NotificationService
	leaderboard *LeaderboardService
	points      config.Points
	hasher      *utils.ClientHasher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewLedger 创建互动账本。leaderboard 可为 nil，非 nil 时积分变动提交后清空排行榜缓存
func NewLedger(conn *gorm.DB, identity *IdentityService, notifier *NotificationService, leaderboard *LeaderboardService, points config.Points, hasher *utils.ClientHasher, m *metrics.Metrics, logger *slog.Logger) *Ledger {
	return &Ledger{
		db:          conn,
		identity:    identity,
		notifier:    notifier,
		leaderboard: leaderboard,
		points:      points,
		hasher:      hasher,
		metrics:     m,
		logger:      loggerOrDefault(logger),
	}
}

type LikeResult struct {
	Liked     bool
	LikeCount int64
}

type ViewResult struct {
	Recorded bool
}

// CommentInput 新评论
type CommentInput struct {
	VoiceID  string
	UserFID  models.FID
	Kind     models.CommentKind
	Content  string
	AudioURL string
}

// ToggleLike 切换点赞状态：未赞则点赞并给作者加分，已赞则取消并扣分（不低于 0）
func (l *Ledger) ToggleLike(ctx context.Context, fid models.FID, voiceID string) (*LikeResult, error) {
	if fid <= 0 {
		return nil, validationError("user fid is required")
	}
	voiceID = clean(voiceID)

	var (
		result  LikeResult
		created bool
		scored  bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if _, created, err = ensureUser(tx, fid, ProfileFields{}); err != nil {
			return err
		}

		voice, err := findVoice(tx, voiceID)
		if err != nil {
			return err
		}

		var existing models.VoiceLike
		err = tx.Where("user_fid = ? AND voice_id = ?", fid, voiceID).First(&existing).Error
		switch {
		case err == nil:
			res := tx.Delete(&existing)
			if res.Error != nil {
				return res.Error
			}
			// 并发取消时只有一方真正删除，只扣一次分
			if res.RowsAffected == 1 {
				if err := l.award(tx, voice, fid, columnLikePoints, models.PointActionUnlike, -l.points.Like); err != nil {
					return err
				}
				scored = true
			}
			result.Liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.VoiceLike{UserFID: fid, VoiceID: voiceID}
			res := tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_fid"}, {Name: "voice_id"}}, DoNothing: true}).
				Create(&like)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				if err := l.award(tx, voice, fid, columnLikePoints, models.PointActionLike, l.points.Like); err != nil {
					return err
				}
				scored = true
				if _, err := l.notifier.Create(tx, voice.UserFID, fid, models.NotificationTypeLike, NotificationTarget{VoiceID: voice.ID}); err != nil {
					return err
				}
			}
			result.Liked = true
		default:
			return err
		}

		return tx.Model(&models.VoiceLike{}).Where("voice_id = ?", voiceID).Count(&result.LikeCount).Error
	})
	if err != nil {
		l.metrics.Interaction("like", "error")
		return nil, storageError("failed to toggle like", err)
	}

	if result.Liked {
		l.metrics.Interaction("like", "liked")
	} else {
		l.metrics.Interaction("like", "unliked")
	}
	l.pointsChanged(scored || created)
	if created {
		l.identity.greet(ctx, fid)
	}
	return &result, nil
}

// AddComment 发表文字或语音评论。评论他人的语音时给作者加分并通知
func (l *Ledger) AddComment(ctx context.Context, in CommentInput) (*models.VoiceComment, error) {
	if in.UserFID <= 0 {
		return nil, validationError("user fid is required")
	}
	if in.Kind == "" {
		in.Kind = models.CommentKindText
	}
	if !in.Kind.Valid() {
		return nil, validationError("unknown comment type %q", in.Kind)
	}

	content := utils.StripHTML(in.Content)
	audioURL := clean(in.AudioURL)
	switch in.Kind {
	case models.CommentKindText:
		if content == "" {
			return nil, validationError("comment content is required")
		}
		audioURL = ""
	case models.CommentKindVoice:
		if !isAudioReference(audioURL) {
			return nil, validationError("voice comment requires a valid audio url")
		}
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, validationError("comment must be at most %d characters", maxCommentLength)
	}

	var (
		comment models.VoiceComment
		created bool
		scored  bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		voice, err := findVoice(tx, clean(in.VoiceID))
		if err != nil {
			return err
		}
		if _, created, err = ensureUser(tx, in.UserFID, ProfileFields{}); err != nil {
			return err
		}

		comment = models.VoiceComment{
			VoiceID:  voice.ID,
			UserFID:  in.UserFID,
			Kind:     in.Kind,
			Content:  content,
			AudioURL: audioURL,
		}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return err
		}

		// 评论自己的语音不加分，也不通知
		if voice.UserFID != in.UserFID {
			if err := l.award(tx, voice, in.UserFID, columnCommentPoints, models.PointActionComment, l.points.Comment); err != nil {
				return err
			}
			scored = true
			target := NotificationTarget{VoiceID: voice.ID, CommentID: comment.ID}
			if _, err := l.notifier.Create(tx, voice.UserFID, in.UserFID, models.NotificationTypeComment, target); err != nil {
				return err
			}
		}

		return tx.Preload("User").Where("id = ?", comment.ID).First(&comment).Error
	})
	if err != nil {
		l.metrics.Interaction("comment", "error")
		return nil, storageError("failed to add comment", err)
	}

	l.metrics.Interaction("comment", string(in.Kind))
	l.pointsChanged(scored || created)
	if created {
		l.identity.greet(ctx, in.UserFID)
	}
	return &comment, nil
}

// ListComments 按时间正序返回评论及作者
func (l *Ledger) ListComments(ctx context.Context, voiceID string) ([]models.VoiceComment, error) {
	conn := l.db.WithContext(ctx)
	voice, err := findVoice(conn, clean(voiceID))
	if err != nil {
		return nil, storageError("failed to load voice", err)
	}

	var comments []models.VoiceComment
	err = conn.Preload("User").
		Where("voice_id = ?", voice.ID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, storageError("failed to fetch comments", err)
	}
	return comments, nil
}

// RecordView 记录一次播放。
// 匿名播放每次都记录但不计分；登录用户对同一语音只记一次，非作者本人时给作者加分
func (l *Ledger) RecordView(ctx context.Context, voiceID string, fid *models.FID, clientAddr string) (*ViewResult, error) {
	if fid != nil && *fid <= 0 {
		fid = nil
	}

	var (
		result  ViewResult
		created bool
		scored  bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		voice, err := findVoice(tx, clean(voiceID))
		if err != nil {
			return err
		}

		if fid == nil {
			view := models.VoiceView{VoiceID: voice.ID, ClientHash: l.hashClient(clientAddr)}
			if err := tx.Omit(clause.Associations).Create(&view).Error; err != nil {
				return err
			}
			result.Recorded = true
			return nil
		}

		if _, created, err = ensureUser(tx, *fid, ProfileFields{}); err != nil {
			return err
		}

		viewer := *fid
		view := models.VoiceView{VoiceID: voice.ID, UserFID: &viewer}
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "voice_id"}, {Name: "user_fid"}}, DoNothing: true}).
			Create(&view)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		result.Recorded = true

		if voice.UserFID == viewer {
			return nil
		}
		if err := l.award(tx, voice, viewer, columnViewPoints, models.PointActionView, l.points.View); err != nil {
			return err
		}
		scored = true
		return nil
	})
	if err != nil {
		l.metrics.Interaction("view", "error")
		return nil, storageError("failed to record view", err)
	}

	switch {
	case fid == nil:
		l.metrics.Interaction("view", "anonymous")
	case result.Recorded:
		l.metrics.Interaction("view", "recorded")
	default:
		l.metrics.Interaction("view", "duplicate")
	}
	l.pointsChanged(scored || created)
	if created {
		l.identity.greet(ctx, *fid)
	}
	return &result, nil
}

func (l *Ledger) award(tx *gorm.DB, voice *models.Voice, actor models.FID, column, action string, amount int) error {
	applied, err := applyPoints(tx, pointChange{
		owner:   voice.UserFID,
		actor:   &actor,
		column:  column,
		action:  action,
		amount:  amount,
		voiceID: voice.ID,
	})
	if err != nil {
		return err
	}
	l.metrics.Points(action, applied)
	return nil
}

// pointsChanged 事务提交后调用，积分或用户集合变化时让排行榜缓存失效
func (l *Ledger) pointsChanged(changed bool) {
	if changed && l.leaderboard != nil {
		l.leaderboard.Invalidate()
	}
}

func (l *Ledger) hashClient(addr string) string {
	if l.hasher == nil {
		return ""
	}
	return l.hasher.Hash(addr)
}

// findVoice 查询语音，不存在时返回 not_found
func findVoice(tx *gorm.DB, id string) (*models.Voice, error) {
	if id == "" {
		return nil, validationError("voice id is required")
	}
	var voice models.Voice
	err := tx.Where("id = ?", id).First(&voice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("voice %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &voice, nil
}

// isAudioReference 语音评论的音频地址必须是 http(s) 绝对地址或站内绝对路径
func isAudioReference(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
