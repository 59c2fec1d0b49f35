// Package api 将路由组装配到 gin 引擎，定义对外的 HTTP 面.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/router"
)

// RegisterGroup 注册全部路由组到传入的 gin 引擎.
// /api/v1 下是需要身份的管理接口；/public 下是匿名公共读取.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	v1 := e.Group("/api/v1")
	{
		router.RegisterFilesRoutes(v1)
		router.RegisterCmsRoutes(v1)
		router.RegisterHealthCheckRoute(v1)
	}

	public := e.Group("/public")
	{
		router.RegisterPublicRoutes(public)
	}

	return e
}
