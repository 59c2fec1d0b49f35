package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware 为每个请求分配 ID 并回写响应头；
// 上游已带 ID 时透传，便于跨服务关联日志.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 取出当前请求的 ID.
func GetRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
