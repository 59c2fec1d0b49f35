// Package middleware 提供中间件功能.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/storage"
)

// StorageMiddleware 将存储 Manager 注入到每个请求的 context 中，
// 下游 service 通过 context 访问器获取各类客户端.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
