package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/handle"
)

// RegisterPublicRoutes 注册无需身份的公共读取路由.
func RegisterPublicRoutes(g *gin.RouterGroup) {
	contentRoutes := g.Group("/content")
	{
		// 按 (slug, post_type, locale) 读取 published 内容
		contentRoutes.GET("", handle.GetPublicContent)
		// 轻量头信息：etag/version，不携带内容体
		contentRoutes.GET("/head", handle.GetPublicContentHead)
	}
}
