package router

import (
	"voicesocial/internal/handlers"
	"voicesocial/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的全部 handler
type Handlers struct {
	Voice        *handlers.VoiceHandler
	User         *handlers.UserHandler
	Notification *handlers.NotificationHandler
	Leaderboard  *handlers.LeaderboardHandler
	Health       *handlers.HealthHandler
}

// RegisterRoutes 注册 API 路由。gatherer 为空时不暴露 /metrics
func RegisterRoutes(r *gin.Engine, h Handlers, gatherer prometheus.Gatherer) {
	r.GET("/healthz", h.Health.Check)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(middleware.ClientAddress())

	// 语音 (Voices)
	voices := api.Group("/voices")
	{
		voices.POST("/upload", h.Voice.Upload)              // 上传语音
		voices.GET("/random", h.Voice.Random)               // 语音流
		voices.GET("/:id", h.Voice.Get)                     // 单条语音
		voices.POST("/:id/like", h.Voice.Like)              // 点赞/取消点赞
		voices.POST("/:id/view", h.Voice.View)              // 记录播放
		voices.GET("/:id/comments", h.Voice.Comments)       // 评论列表
		voices.POST("/:id/comments", h.Voice.CreateComment) // 发表评论
		voices.GET("/:id/audio", h.Voice.Audio)             // 音频内容
	}

	// 用户 (Users)
	users := api.Group("/users")
	{
		users.POST("/save", h.User.Save)         // 保存资料
		users.GET("/:fid", h.User.Profile)       // 用户主页
		users.GET("/:fid/points", h.User.Points) // 积分明细
	}

	api.GET("/notifications", h.Notification.List)      // 通知列表
	api.POST("/notifications", h.Notification.MarkRead) // 标记已读
	api.GET("/leaderboard", h.Leaderboard.List)         // 排行榜
}
