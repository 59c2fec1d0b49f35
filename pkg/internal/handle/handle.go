// Package handle 提供请求处理器的实现，用于处理HTTP请求.
// 处理器只做绑定、调用 service 与序列化；鉴权决策与业务规则都在 service 层.
package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/middleware"
)

// currentActor 取出认证中间件注入的请求方身份.
func currentActor(c *gin.Context) types.Actor {
	return middleware.GetActor(c.Request.Context())
}

// ifMatchHeader 读取并发控制令牌，容忍弱校验前缀与引号包裹.
func ifMatchHeader(c *gin.Context) string {
	v := strings.TrimSpace(c.GetHeader("If-Match"))
	v = strings.TrimPrefix(v, "W/")

	return strings.Trim(v, `"`)
}

// setETag 将资源 etag 回写到响应头，供后续 If-Match 使用.
func setETag(c *gin.Context, etag string) {
	if etag != "" {
		c.Header("ETag", `"`+etag+`"`)
	}
}

// statusOf 错误类别到 HTTP 状态码的映射.
func statusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindAuthentication:
		return http.StatusUnauthorized
	case errs.KindAuthorization:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case errs.KindPreconditionRequired:
		return http.StatusPreconditionRequired
	case errs.KindLocked:
		return http.StatusLocked
	case errs.KindStorage:
		return http.StatusBadGateway
	case errs.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError 统一序列化 service 层错误.
func writeError(c *gin.Context, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		log.Logger().Error().Err(err).Str("path", c.Request.URL.Path).Msg("unclassified error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	status := statusOf(e.Kind)
	if status >= http.StatusInternalServerError {
		log.Logger().Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	c.JSON(status, gin.H{"error": e.Message, "code": e.Code})
}

// bindJSON 绑定请求体，失败时直接响应 400 并返回 false.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		log.Logger().Warn().Err(err).Str("path", c.Request.URL.Path).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return false
	}

	return true
}

// bindQuery 绑定查询参数，失败时直接响应 400 并返回 false.
func bindQuery(c *gin.Context, out any) bool {
	if err := c.ShouldBindQuery(out); err != nil {
		log.Logger().Warn().Err(err).Str("path", c.Request.URL.Path).Msg("invalid query")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return false
	}

	return true
}
