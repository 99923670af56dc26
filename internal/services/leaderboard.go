package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"voicesocial/internal/config"
	"voicesocial/internal/models"
	"voicesocial/internal/utils"

	"gorm.io/gorm"
)

type Timeframe string

const (
	TimeframeAll     Timeframe = "all"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ParseTimeframe 空字符串视为 all
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(clean(s))); tf {
	case "":
		return TimeframeAll, nil
	case TimeframeAll, TimeframeWeekly, TimeframeMonthly:
		return tf, nil
	default:
		return "", validationError("unknown timeframe %q", s)
	}
}

// window 返回活跃窗口，all 为 0
func (t Timeframe) window() time.Duration {
	switch t {
	case TimeframeWeekly:
		return 7 * 24 * time.Hour
	case TimeframeMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// LeaderboardEntry 排行榜中的一行
type LeaderboardEntry struct {
	Rank       int
	User       models.User
	Points     models.UserPoints
	VoiceCount int64
	Level      string
}

// LeaderboardService 按总积分排名。weekly/monthly 只筛选窗口内发过语音的用户，排序仍按总积分
type LeaderboardService struct {
	db    *gorm.DB
	cfg   config.Leaderboard
	cache *utils.Cache[[]LeaderboardEntry]
	now   func() time.Time
}

func NewLeaderboardService(conn *gorm.DB, cfg config.Leaderboard) (*LeaderboardService, error) {
	cache, err := utils.NewCache[[]LeaderboardEntry](cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("create leaderboard cache: %w", err)
	}
	return &LeaderboardService{db: conn, cfg: cfg, cache: cache, now: time.Now}, nil
}

// Leaderboard 返回排行榜，limit 非正时使用默认值，超过上限时截断
func (s *LeaderboardService) Leaderboard(ctx context.Context, timeframe Timeframe, limit int) ([]LeaderboardEntry, error) {
	if timeframe == "" {
		timeframe = TimeframeAll
	}
	if _, err := ParseTimeframe(string(timeframe)); err != nil {
		return nil, err
	}
	limit = utils.ClampLimit(limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)

	key := fmt.Sprintf("%s:%d", timeframe, limit)
	if entries, ok := s.cache.Get(key); ok {
		return entries, nil
	}

	conn := s.db.WithContext(ctx)
	query := conn.Model(&models.UserPoints{})
	if w := timeframe.window(); w > 0 {
		active := conn.Model(&models.Voice{}).
			Select("user_fid").
			Where("created_at >= ?", s.now().UTC().Add(-w))
		query = query.Where("user_fid IN (?)", active)
	}

	var points []models.UserPoints
	if err := query.Order("total_points DESC").Order("id ASC").Limit(limit).Find(&points).Error; err != nil {
		return nil, storageError("failed to fetch leaderboard", err)
	}

	entries := make([]LeaderboardEntry, 0, len(points))
	if len(points) == 0 {
		s.cache.Set(key, entries)
		return entries, nil
	}

	fids := make([]models.FID, 0, len(points))
	for _, p := range points {
		fids = append(fids, p.UserFID)
	}

	var users []models.User
	if err := conn.Where("fid IN ?", fids).Find(&users).Error; err != nil {
		return nil, storageError("failed to fetch leaderboard users", err)
	}
	byFID := make(map[models.FID]models.User, len(users))
	for _, u := range users {
		byFID[u.FID] = u
	}

	var counts []struct {
		UserFID models.FID
		Total   int64
	}
	if err := conn.Model(&models.Voice{}).
		Select("user_fid, COUNT(*) AS total").
		Where("user_fid IN ?", fids).
		Group("user_fid").
		Scan(&counts).Error; err != nil {
		return nil, storageError("failed to count voices", err)
	}
	voiceCounts := make(map[models.FID]int64, len(counts))
	for _, c := range counts {
		voiceCounts[c.UserFID] = c.Total
	}

	for i, p := range points {
		user, ok := byFID[p.UserFID]
		if !ok {
			user = models.User{FID: p.UserFID, Username: p.UserFID.DefaultUsername()}
		}
		level, _ := utils.Level(p.TotalPoints)
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			User:       user,
			Points:     p,
			VoiceCount: voiceCounts[p.UserFID],
			Level:      level,
		})
	}

	s.cache.Set(key, entries)
	return entries, nil
}

// Rank 返回用户的全站排名，积分相同的用户名次相同
func (s *LeaderboardService) Rank(ctx context.Context, fid models.FID) (int64, error) {
	if fid <= 0 {
		return 0, validationError("user fid is required")
	}
	var points models.UserPoints
	err := s.db.WithContext(ctx).Where("user_fid = ?", fid).First(&points).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, notFoundError("user %s not found", fid)
	}
	if err != nil {
		return 0, storageError("failed to load points", err)
	}
	rank, err := rankOf(s.db.WithContext(ctx), points.TotalPoints)
	if err != nil {
		return 0, storageError("failed to compute rank", err)
	}
	return rank, nil
}

// Invalidate 清空排行榜缓存，积分变动后由 Ledger 调用
func (s *LeaderboardService) Invalidate() {
	if s == nil {
		return
	}
	s.cache.Purge()
}
