package handle

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// ResolveContentAccess 解析文件或衍生形态的访问地址.
// 默认模式由可见性决定：public 文件走公共读 URL，private 走限时签名 URL.
func ResolveContentAccess(c *gin.Context) {
	var req types.ContentAccessRequest
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewFmService(c.Request.Context())

	resp, err := svc.ResolveContentAccess(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadContent 经服务端回源下载文件内容.
func DownloadContent(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	info, rc, err := svc.OpenContent(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close() //nolint:errcheck

	setETag(c, info.ETag)
	c.DataFromReader(http.StatusOK, info.ByteSize, info.MimeType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", info.OriginalFilename),
	})
}
