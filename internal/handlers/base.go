package handlers

import (
	"errors"
	"net/http"

	"voicesocial/internal/services"

	"github.com/gin-gonic/gin"
)

// statusFor 将服务层错误类型映射为 HTTP 状态码
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一的失败响应 {success:false, error:<kind>, message}
func respondError(c *gin.Context, err error) {
	respondErrorWith(c, err, nil)
}

func respondErrorWith(c *gin.Context, err error, extra gin.H) {
	kind := services.KindOf(err)
	message := "internal error"
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	// 交给请求日志中间件输出
	_ = c.Error(err)

	body := gin.H{
		"success": false,
		"error":   string(kind),
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(statusFor(kind), body)
}

// badRequest 请求参数本身不合法（解析失败等）
func badRequest(c *gin.Context, message string) {
	respondError(c, &services.Error{Kind: services.KindValidation, Message: message})
}

// ok 成功响应，自动带上 success:true
func ok(c *gin.Context, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	obj["success"] = true
	c.JSON(http.StatusOK, obj)
}
