package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const ClientAddrKey = "client_addr"

// ClientAddress 解析访问者地址并写入 context，用于匿名播放记录。
// 优先取 X-Forwarded-For 的第一跳，其次 X-Real-IP，最后是 gin 的 ClientIP
func ClientAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ClientAddrKey, resolveClientAddr(c))
		c.Next()
	}
}

// ClientAddr 读取 ClientAddress 写入的地址，未经过中间件时现场解析
func ClientAddr(c *gin.Context) string {
	if v, ok := c.Get(ClientAddrKey); ok {
		if addr, ok := v.(string); ok {
			return addr
		}
	}
	return resolveClientAddr(c)
}

func resolveClientAddr(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
