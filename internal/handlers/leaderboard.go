package handlers

import (
	"voicesocial/internal/models"
	"voicesocial/internal/services"
	"voicesocial/internal/utils"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	leaderboard *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// List 排行榜 (GET /api/leaderboard?timeframe=all|weekly|monthly&limit=&userFid=)。
// 传入 userFid 时附带该用户的全站排名
func (h *LeaderboardHandler) List(c *gin.Context) {
	timeframe, err := services.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		respondError(c, err)
		return
	}
	limit := utils.StringToInt(c.Query("limit"), 0)

	entries, err := h.leaderboard.Leaderboard(c.Request.Context(), timeframe, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	dtos := make([]leaderboardEntryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, newLeaderboardEntryDTO(&entries[i]))
	}
	resp := gin.H{
		"leaderboard": dtos,
		"timeframe":   timeframe,
	}
	if raw := c.Query("userFid"); raw != "" {
		fid, err := models.ParseFID(raw)
		if err != nil {
			badRequest(c, "invalid userFid")
			return
		}
		rank, err := h.leaderboard.Rank(c.Request.Context(), fid)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["userRank"] = rank
	}
	ok(c, resp)
}
