package handlers

import (
	"time"

	"voicesocial/internal/models"
	"voicesocial/internal/services"
	"voicesocial/internal/utils"

	"github.com/gin-gonic/gin"
)

const defaultPointHistoryLimit = 50

type UserHandler struct {
	identity *services.IdentityService
	voices   *services.VoiceService
	ledger   *services.Ledger
}

func NewUserHandler(identity *services.IdentityService, voices *services.VoiceService, ledger *services.Ledger) *UserHandler {
	return &UserHandler{identity: identity, voices: voices, ledger: ledger}
}

type profileStats struct {
	TotalVoices   int64 `json:"totalVoices"`
	TotalViews    int64 `json:"totalViews"`
	TotalLikes    int64 `json:"totalLikes"`
	TotalComments int64 `json:"totalComments"`
	pointsDTO
	Rank int64 `json:"rank"`
}

type profileDTO struct {
	userDTO
	CreatedAt time.Time    `json:"createdAt"`
	Level     string       `json:"level"`
	LevelIcon string       `json:"levelIcon"`
	Stats     profileStats `json:"stats"`
	Voices    []voiceDTO   `json:"voices"`
}

// Profile 用户主页 (GET /api/users/:fid)。匿名发布的语音不出现在公开主页
func (h *UserHandler) Profile(c *gin.Context) {
	fid, err := models.ParseFID(c.Param("fid"))
	if err != nil {
		badRequest(c, "invalid fid")
		return
	}

	profile, err := h.voices.Profile(c.Request.Context(), fid)
	if err != nil {
		respondError(c, err)
		return
	}

	public := make([]models.Voice, 0, len(profile.Voices))
	ids := make([]string, 0, len(profile.Voices))
	for _, v := range profile.Voices {
		if v.IsAnonymous {
			continue
		}
		public = append(public, v)
		ids = append(ids, v.ID)
	}
	sums, err := h.voices.Summaries(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	voices := make([]voiceDTO, 0, len(public))
	for i := range public {
		dto := newVoiceDTO(&public[i], sums[public[i].ID])
		dto.User = nil
		voices = append(voices, dto)
	}

	user := newUserDTO(&profile.User)
	ok(c, gin.H{"user": profileDTO{
		userDTO:   *user,
		CreatedAt: profile.User.CreatedAt,
		Level:     profile.Level,
		LevelIcon: profile.LevelIcon,
		Stats: profileStats{
			TotalVoices:   profile.TotalVoices,
			TotalViews:    profile.TotalViews,
			TotalLikes:    profile.TotalLikes,
			TotalComments: profile.TotalComments,
			pointsDTO:     newPointsDTO(profile.User.Points),
			Rank:          profile.Rank,
		},
		Voices: voices,
	}})
}

// Points 积分汇总与明细 (GET /api/users/:fid/points?limit=)
func (h *UserHandler) Points(c *gin.Context) {
	fid, err := models.ParseFID(c.Param("fid"))
	if err != nil {
		badRequest(c, "invalid fid")
		return
	}

	user, err := h.identity.GetUser(c.Request.Context(), fid)
	if err != nil {
		respondError(c, err)
		return
	}

	limit := utils.StringToInt(c.Query("limit"), defaultPointHistoryLimit)
	logs, err := h.ledger.PointHistory(c.Request.Context(), fid, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	history := make([]pointLogDTO, 0, len(logs))
	for i := range logs {
		history = append(history, newPointLogDTO(&logs[i]))
	}
	level, icon := utils.Level(user.Points.TotalPoints)
	ok(c, gin.H{
		"points":    newPointsDTO(user.Points),
		"level":     level,
		"levelIcon": icon,
		"history":   history,
	})
}

type saveUserBody struct {
	FID         fidValue `json:"fid"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	PfpURL      string   `json:"pfpUrl"`
	Bio         string   `json:"bio"`
}

// Save 保存 Farcaster 资料 (POST /api/users/save)，只更新传入的字段
func (h *UserHandler) Save(c *gin.Context) {
	var body saveUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fid, err := body.FID.parse()
	if err != nil {
		badRequest(c, "fid is required")
		return
	}

	user, err := h.identity.EnsureUser(c.Request.Context(), fid, services.ProfileFields{
		Username:    body.Username,
		DisplayName: body.DisplayName,
		PfpURL:      body.PfpURL,
		Bio:         body.Bio,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, gin.H{"user": newUserDTO(user)})
}
