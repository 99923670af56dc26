package handlers

import (
	"voicesocial/internal/models"
	"voicesocial/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifier *services.NotificationService
}

func NewNotificationHandler(notifier *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// List 通知列表 (GET /api/notifications?userFid=&unreadOnly=true)
func (h *NotificationHandler) List(c *gin.Context) {
	fid, err := models.ParseFID(c.Query("userFid"))
	if err != nil {
		badRequest(c, "userFid is required")
		return
	}
	unreadOnly := c.Query("unreadOnly") == "true"

	notifications, unread, err := h.notifier.List(c.Request.Context(), fid, unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	dtos := make([]notificationDTO, 0, len(notifications))
	for i := range notifications {
		dtos = append(dtos, newNotificationDTO(&notifications[i]))
	}
	resp := gin.H{
		"notifications": dtos,
		"unreadCount":   unread,
	}
	if unreadOnly {
		// 只要未读数的旧客户端读取 count
		resp["count"] = unread
	}
	ok(c, resp)
}

type markReadBody struct {
	UserFID         fidValue `json:"userFid"`
	NotificationIDs []uint   `json:"notificationIds"`
}

// MarkRead 标记已读 (POST /api/notifications)。不传 notificationIds 时全部标记
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var body markReadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fid, err := body.UserFID.parse()
	if err != nil {
		badRequest(c, "userFid is required")
		return
	}

	updated, err := h.notifier.MarkRead(c.Request.Context(), fid, body.NotificationIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	ok(c, gin.H{
		"updated": updated,
		"message": "Notifications marked as read",
	})
}
