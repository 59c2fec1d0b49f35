package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/types"
)

// 身份由前置网关（oauth2-proxy 等）认证后经请求头传入，
// 服务本身不做凭证校验，只消费网关注入的结果.
const (
	HeaderUser = "X-User"
	HeaderRole = "X-Role"

	RoleAdmin = "admin"
)

type actorKey struct{}

// ActorMiddleware 解析请求方身份并注入到 request context.
// 未携带身份头时注入匿名 Actor（UserUID 为空），由 service 层决定是否放行.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(HeaderUser))
		if user == "" {
			user = strings.TrimSpace(c.Query("user"))
		}

		// 便于本地调试：非 release 模式给一个默认身份
		if user == "" && gin.Mode() != gin.ReleaseMode {
			user = "dev-user"
		}

		actor := types.Actor{
			UserUID: user,
			IsAdmin: strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderRole)), RoleAdmin),
		}

		c.Set("actor", actor)

		ctx := context.WithValue(c.Request.Context(), actorKey{}, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetActor 从 context 中取出请求方身份；未经过中间件时返回匿名 Actor.
func GetActor(ctx context.Context) types.Actor {
	if a, ok := ctx.Value(actorKey{}).(types.Actor); ok {
		return a
	}

	return types.Actor{}
}
