package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"voicesocial/internal/config"
	"voicesocial/internal/metrics"
	"voicesocial/internal/models"
	"voicesocial/internal/storage"
	"voicesocial/internal/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// LegacyAudioError 旧数据只保存了文件地址，没有音频内容
type LegacyAudioError struct {
	URL string
}

func (e *LegacyAudioError) Error() string {
	return "audio is only available at " + e.URL
}

// UploadInput 上传语音的参数
type UploadInput struct {
	UserFID     models.FID
	Data        []byte
	MimeType    string // 客户端声明的类型，可能为空
	Duration    float64
	Title       string
	Description string
	IsAnonymous bool
	Profile     ProfileFields
}

// VoiceSummary 语音的互动统计
type VoiceSummary struct {
	LikeCount    int64
	CommentCount int64
	ViewCount    int64
	LikerFIDs    []models.FID
}

// Profile 用户主页数据
type Profile struct {
	User          models.User
	TotalVoices   int64
	TotalViews    int64
	TotalLikes    int64
	TotalComments int64
	Rank          int64
	Level         string
	LevelIcon     string
	Voices        []models.Voice
}

// VoiceService 语音上传、读取与统计
type VoiceService struct {
	db       *gorm.DB
	store    storage.AudioStore
	identity *IdentityService
	cfg      config.Storage
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewVoiceService(conn *gorm.DB, store storage.AudioStore, identity *IdentityService, cfg config.Storage, m *metrics.Metrics, logger *slog.Logger) *VoiceService {
	return &VoiceService{
		db:       conn,
		store:    store,
		identity: identity,
		cfg:      cfg,
		metrics:  m,
		logger:   loggerOrDefault(logger),
	}
}

// Upload 校验并保存一条语音。音频写入失败时删除已创建的语音记录
func (s *VoiceService) Upload(ctx context.Context, in UploadInput) (*models.Voice, error) {
	voice, err := s.upload(ctx, in)
	if err != nil {
		if KindOf(err) == KindValidation {
			s.metrics.Upload("rejected")
		} else {
			s.metrics.Upload("error")
		}
		return nil, err
	}
	s.metrics.Upload("ok")
	return voice, nil
}

func (s *VoiceService) upload(ctx context.Context, in UploadInput) (*models.Voice, error) {
	if in.UserFID <= 0 {
		return nil, validationError("user fid is required")
	}
	if len(in.Data) == 0 {
		return nil, validationError("audio file is required")
	}
	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) || in.Duration <= 0 {
		return nil, validationError("duration must be a positive number of seconds")
	}
	if s.cfg.MaxDurationSeconds > 0 && in.Duration > s.cfg.MaxDurationSeconds {
		return nil, validationError("voice must be at most %g seconds", s.cfg.MaxDurationSeconds)
	}
	size := int64(len(in.Data))
	if size < s.cfg.MinUploadBytes {
		return nil, validationError("audio file too small, minimum %d bytes required", s.cfg.MinUploadBytes)
	}
	if s.cfg.MaxUploadBytes > 0 && size > s.cfg.MaxUploadBytes {
		return nil, validationError("audio file too large, maximum %d bytes allowed", s.cfg.MaxUploadBytes)
	}

	mimeType, ok := detectAudioType(in.MimeType, in.Data)
	if !ok {
		return nil, validationError("invalid audio file type")
	}

	title := utils.StripHTML(in.Title)
	if title == "" {
		title = in.UserFID.String()
	}
	description := utils.StripHTML(in.Description)
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, validationError("title must be at most %d characters", maxTitleLength)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, validationError("description must be at most %d characters", maxDescriptionLength)
	}

	if _, err := s.identity.EnsureUser(ctx, in.UserFID, in.Profile); err != nil {
		return nil, err
	}

	voice := models.Voice{
		ID:            uuid.NewString(),
		UserFID:       in.UserFID,
		AudioMimeType: mimeType,
		AudioSize:     size,
		Duration:      in.Duration,
		Title:         title,
		Description:   description,
		IsAnonymous:   in.IsAnonymous,
	}
	conn := s.db.WithContext(ctx)
	if err := conn.Omit(clause.Associations).Create(&voice).Error; err != nil {
		return nil, storageError("failed to save voice", err)
	}

	url, err := s.store.Put(ctx, voice.ID, in.Data, mimeType)
	if err == nil {
		err = conn.Model(&voice).Update("audio_url", url).Error
	}
	if err != nil {
		s.discard(ctx, voice.ID)
		return nil, storageError("failed to store audio", err)
	}
	voice.AudioURL = url

	s.logger.Info("voice uploaded", "voice_id", voice.ID, "fid", in.UserFID, "bytes", size, "mime", mimeType, "store", s.store.Kind())
	return &voice, nil
}

// discard 上传失败后清理，尽力而为
func (s *VoiceService) discard(ctx context.Context, voiceID string) {
	if err := s.store.Delete(ctx, voiceID); err != nil {
		s.logger.Warn("cleanup audio failed", "voice_id", voiceID, "error", err)
	}
	if err := s.db.WithContext(ctx).Where("id = ?", voiceID).Delete(&models.Voice{}).Error; err != nil {
		s.logger.Warn("cleanup voice failed", "voice_id", voiceID, "error", err)
	}
}

// detectAudioType 优先信任声明的 audio/* 类型，否则根据内容判断。
// webm/ogg 容器会被识别为 video/*，按音频处理
func detectAudioType(declared string, data []byte) (string, bool) {
	declared = strings.ToLower(clean(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if strings.HasPrefix(declared, "audio/") {
		return declared, true
	}
	if declared != "" && declared != "application/octet-stream" {
		return "", false
	}

	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		t := m.String()
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		switch {
		case strings.HasPrefix(t, "audio/"):
			return t, true
		case t == "video/webm":
			return "audio/webm", true
		case t == "video/ogg", t == "application/ogg":
			return "audio/ogg", true
		case t == "video/mp4":
			return "audio/mp4", true
		}
	}
	return "", false
}

// Get 查询语音及作者
func (s *VoiceService) Get(ctx context.Context, id string) (*models.Voice, error) {
	id = clean(id)
	if id == "" {
		return nil, validationError("voice id is required")
	}
	var voice models.Voice
	err := s.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&voice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("voice %s not found", id)
	}
	if err != nil {
		return nil, storageError("failed to load voice", err)
	}
	return &voice, nil
}

// Audio 返回语音的音频内容。
// 没有内容但保存了外部地址的旧记录返回 *LegacyAudioError
func (s *VoiceService) Audio(ctx context.Context, id string) (*storage.Audio, error) {
	conn := s.db.WithContext(ctx)
	voice, err := findVoice(conn, clean(id))
	if err != nil {
		return nil, storageError("failed to load voice", err)
	}

	audio, err := s.store.Get(ctx, voice.ID)
	switch {
	case err == nil:
		if audio.MimeType == "" {
			audio.MimeType = voice.AudioMimeType
		}
		if audio.MimeType == "" {
			audio.MimeType = "audio/mpeg"
		}
		return audio, nil
	case errors.Is(err, storage.ErrAudioNotFound):
		if voice.AudioURL != "" && voice.AudioURL != storage.AudioURL(voice.ID) {
			return nil, &LegacyAudioError{URL: voice.AudioURL}
		}
		return nil, notFoundError("audio for voice %s not found", voice.ID)
	default:
		return nil, storageError("failed to load audio", err)
	}
}

// Summaries 批量统计语音的点赞、评论、播放数和点赞用户
func (s *VoiceService) Summaries(ctx context.Context, voiceIDs []string) (map[string]*VoiceSummary, error) {
	result := make(map[string]*VoiceSummary, len(voiceIDs))
	if len(voiceIDs) == 0 {
		return result, nil
	}
	for _, id := range voiceIDs {
		result[id] = &VoiceSummary{LikerFIDs: []models.FID{}}
	}

	conn := s.db.WithContext(ctx)

	var likes []models.VoiceLike
	if err := conn.Select("voice_id", "user_fid").
		Where("voice_id IN ?", voiceIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&likes).Error; err != nil {
		return nil, storageError("failed to count likes", err)
	}
	for _, like := range likes {
		if sum := result[like.VoiceID]; sum != nil {
			sum.LikeCount++
			sum.LikerFIDs = append(sum.LikerFIDs, like.UserFID)
		}
	}

	counts := []struct {
		model any
		set   func(*VoiceSummary, int64)
	}{
		{&models.VoiceComment{}, func(v *VoiceSummary, n int64) { v.CommentCount = n }},
		{&models.VoiceView{}, func(v *VoiceSummary, n int64) { v.ViewCount = n }},
	}
	for _, c := range counts {
		var rows []struct {
			VoiceID string
			Total   int64
		}
		if err := conn.Model(c.model).
			Select("voice_id, COUNT(*) AS total").
			Where("voice_id IN ?", voiceIDs).
			Group("voice_id").
			Scan(&rows).Error; err != nil {
			return nil, storageError("failed to count interactions", err)
		}
		for _, row := range rows {
			if sum := result[row.VoiceID]; sum != nil {
				c.set(sum, row.Total)
			}
		}
	}
	return result, nil
}

// Profile 用户主页：资料、积分、收到的互动总数、排名和全部语音
func (s *VoiceService) Profile(ctx context.Context, fid models.FID) (*Profile, error) {
	if fid <= 0 {
		return nil, validationError("user fid is required")
	}
	user, err := s.identity.GetUser(ctx, fid)
	if err != nil {
		return nil, err
	}

	conn := s.db.WithContext(ctx)
	profile := Profile{User: *user}

	if err := conn.Where("user_fid = ?", fid).Order("created_at DESC").Find(&profile.Voices).Error; err != nil {
		return nil, storageError("failed to fetch voices", err)
	}
	profile.TotalVoices = int64(len(profile.Voices))

	totals := []struct {
		model any
		dst   *int64
	}{
		{&models.VoiceView{}, &profile.TotalViews},
		{&models.VoiceLike{}, &profile.TotalLikes},
		{&models.VoiceComment{}, &profile.TotalComments},
	}
	for _, t := range totals {
		owned := conn.Model(&models.Voice{}).Select("id").Where("user_fid = ?", fid)
		if err := conn.Model(t.model).Where("voice_id IN (?)", owned).Count(t.dst).Error; err != nil {
			return nil, storageError("failed to count interactions", err)
		}
	}

	if profile.Rank, err = rankOf(conn, user.Points.TotalPoints); err != nil {
		return nil, storageError("failed to compute rank", err)
	}
	profile.Level, profile.LevelIcon = utils.Level(user.Points.TotalPoints)
	return &profile, nil
}

// rankOf 排名 = 积分严格高于自己的人数 + 1
func rankOf(conn *gorm.DB, points int) (int64, error) {
	var higher int64
	if err := conn.Model(&models.UserPoints{}).Where("total_points > ?", points).Count(&higher).Error; err != nil {
		return 0, err
	}
	return higher + 1, nil
}
