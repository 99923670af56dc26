package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voicesocial/internal/config"
	"voicesocial/internal/middleware"
	"voicesocial/internal/models"
	"voicesocial/internal/services"
	"voicesocial/internal/utils"

	"github.com/gin-gonic/gin"
)

// 上传表单保留在内存中的上限，超出部分写临时文件
const multipartMemory = 32 << 20

// VoiceHandler 语音相关接口
type VoiceHandler struct {
	voices   *services.VoiceService
	ledger   *services.Ledger
	rotation *services.RotationService
	feed     config.Feed
	storage  config.Storage
}

func NewVoiceHandler(voices *services.VoiceService, ledger *services.Ledger, rotation *services.RotationService, cfg *config.Config) *VoiceHandler {
	return &VoiceHandler{
		voices:   voices,
		ledger:   ledger,
		rotation: rotation,
		feed:     cfg.Feed,
		storage:  cfg.Storage,
	}
}

// Upload 上传语音 (POST /api/voices/upload)，multipart 表单
func (h *VoiceHandler) Upload(c *gin.Context) {
	// 表单其余字段的余量
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.storage.MaxUploadBytes+1<<20)

	// 先解析整个表单，超限时 PostForm 会静默返回空值
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "audio file too large")
			return
		}
		badRequest(c, "invalid multipart form")
		return
	}

	fid, err := models.ParseFID(c.PostForm("userFid"))
	if err != nil {
		badRequest(c, "userFid is required")
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		badRequest(c, "audio file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(c, "failed to read audio file")
		return
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("duration")), 64)
	if err != nil {
		badRequest(c, "duration must be a number")
		return
	}

	voice, err := h.voices.Upload(c.Request.Context(), services.UploadInput{
		UserFID:     fid,
		Data:        data,
		MimeType:    header.Header.Get("Content-Type"),
		Duration:    duration,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		IsAnonymous: c.PostForm("isAnonymous") == "true",
		Profile: services.ProfileFields{
			Username:    c.PostForm("username"),
			DisplayName: c.PostForm("displayName"),
			PfpURL:      c.PostForm("pfpUrl"),
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, gin.H{"voice": newVoiceDTO(voice, nil)})
}

// Random 语音流 (GET /api/voices/random?limit=&page=&userFid=)
// 带 userFid 时 24 小时内推送过的语音不再出现
func (h *VoiceHandler) Random(c *gin.Context) {
	limit := utils.ClampLimit(utils.StringToInt(c.Query("limit"), 0), h.feed.DefaultLimit, h.feed.MaxLimit)
	page := utils.StringToInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}

	var viewer *models.FID
	if raw := c.Query("userFid"); raw != "" {
		fid, err := models.ParseFID(raw)
		if err != nil {
			badRequest(c, "invalid userFid")
			return
		}
		viewer = &fid
	}

	voices, err := h.rotation.SelectVoices(c.Request.Context(), limit, page, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	dtos, err := h.withSummaries(c, voices)
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, gin.H{
		"voices": dtos,
		"pagination": gin.H{
			"page":    page,
			"limit":   limit,
			"hasMore": len(voices) == limit,
		},
	})
}

// Get 单条语音 (GET /api/voices/:id)
func (h *VoiceHandler) Get(c *gin.Context) {
	voice, err := h.voices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dtos, err := h.withSummaries(c, []models.Voice{*voice})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"voice": dtos[0]})
}

type userFidBody struct {
	UserFID fidValue `json:"userFid"`
}

// Like 点赞/取消点赞 (POST /api/voices/:id/like)
func (h *VoiceHandler) Like(c *gin.Context) {
	var body userFidBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}
	fid, err := body.UserFID.parse()
	if err != nil {
		badRequest(c, "userFid is required")
		return
	}

	res, err := h.ledger.ToggleLike(c.Request.Context(), fid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, gin.H{
		"liked":     res.Liked,
		"isLiked":   res.Liked,
		"likeCount": res.LikeCount,
	})
}

// View 记录播放 (POST /api/voices/:id/view)，userFid 可选
func (h *VoiceHandler) View(c *gin.Context) {
	var body userFidBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	var viewer *models.FID
	if body.UserFID.present() {
		fid, err := body.UserFID.parse()
		if err != nil {
			badRequest(c, "invalid userFid")
			return
		}
		viewer = &fid
	}

	res, err := h.ledger.RecordView(c.Request.Context(), c.Param("id"), viewer, middleware.ClientAddr(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"recorded": res.Recorded}
	if !res.Recorded {
		resp["message"] = "View already recorded"
	}
	ok(c, resp)
}

// Comments 评论列表 (GET /api/voices/:id/comments)
func (h *VoiceHandler) Comments(c *gin.Context) {
	comments, err := h.ledger.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	dtos := make([]commentDTO, 0, len(comments))
	for i := range comments {
		dtos = append(dtos, newCommentDTO(&comments[i]))
	}
	ok(c, gin.H{"comments": dtos})
}

type commentBody struct {
	UserFID  fidValue `json:"userFid"`
	Content  string   `json:"content"`
	AudioURL string   `json:"audioUrl"`
	Type     string   `json:"type"`
}

// CreateComment 发表评论 (POST /api/voices/:id/comments)，type 为 text 或 voice
func (h *VoiceHandler) CreateComment(c *gin.Context) {
	var body commentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fid, err := body.UserFID.parse()
	if err != nil {
		badRequest(c, "userFid is required")
		return
	}

	comment, err := h.ledger.AddComment(c.Request.Context(), services.CommentInput{
		VoiceID:  c.Param("id"),
		UserFID:  fid,
		Kind:     models.CommentKind(strings.ToLower(strings.TrimSpace(body.Type))),
		Content:  body.Content,
		AudioURL: body.AudioURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, gin.H{"comment": newCommentDTO(comment)})
}

// Audio 输出音频内容 (GET /api/voices/:id/audio)，支持 Range
func (h *VoiceHandler) Audio(c *gin.Context) {
	audio, err := h.voices.Audio(c.Request.Context(), c.Param("id"))
	if err != nil {
		var legacy *services.LegacyAudioError
		if errors.As(err, &legacy) {
			respondErrorWith(c,
				&services.Error{Kind: services.KindNotFound, Message: "audio not stored, please re-upload", Err: err},
				gin.H{"fallbackUrl": legacy.URL})
			return
		}
		respondError(c, err)
		return
	}

	c.Header("Content-Type", audio.MimeType)
	c.Header("Cache-Control", "public, max-age=31536000")
	http.ServeContent(c.Writer, c.Request, "", time.Time{}, bytes.NewReader(audio.Data))
}

func (h *VoiceHandler) withSummaries(c *gin.Context, voices []models.Voice) ([]voiceDTO, error) {
	ids := make([]string, 0, len(voices))
	for _, v := range voices {
		ids = append(ids, v.ID)
	}
	sums, err := h.voices.Summaries(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}

	dtos := make([]voiceDTO, 0, len(voices))
	for i := range voices {
		dtos = append(dtos, newVoiceDTO(&voices[i], sums[voices[i].ID]))
	}
	return dtos, nil
}
