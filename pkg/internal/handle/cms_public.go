package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// GetPublicContent 公共读取：按 (slug, post_type, locale) 返回 published 内容体.
// 不暴露草稿与回收站内容的存在性.
func GetPublicContent(c *gin.Context) {
	var req types.PublicQuery
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	payload, err := svc.GetPublicPayload(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, payload)
}

// GetPublicContentHead 公共读取的轻量头信息，不携带内容体，
// 供客户端做条件请求与缓存判断.
func GetPublicContentHead(c *gin.Context) {
	var req types.PublicQuery
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	head, err := svc.GetPublicHead(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, head.ETag)
	c.JSON(http.StatusOK, head)
}
