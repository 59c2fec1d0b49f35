package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/log"
)

// revisionID 解析路径里的快照 ID.
func revisionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("rid"), 10, 64)
	if err != nil {
		log.Logger().Warn().Err(err).Msg("invalid revision id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid revision id"})

		return 0, false
	}

	return uint(id), true
}

// ListRevisions 列出内容的历史快照，新到旧.
func ListRevisions(c *gin.Context) {
	var req types.ListRevisionsRequest
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	resp, err := svc.ListRevisions(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RestoreRevision 将历史快照恢复为当前内容；恢复本身是一次普通写入.
func RestoreRevision(c *gin.Context) {
	rid, ok := revisionID(c)
	if !ok {
		return
	}

	req := types.RestoreRevisionRequest{
		IfMatch:    ifMatchHeader(c),
		RevisionID: rid,
	}

	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.RestoreRevision(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// RedactRevision 软删快照（内容不再可读，占位保留），仅管理员.
func RedactRevision(c *gin.Context) {
	rid, ok := revisionID(c)
	if !ok {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	if err := svc.RedactRevision(c.Request.Context(), currentActor(c), c.Param("uid"), rid); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redacted": true})
}

// PurgeRevision 硬删快照，仅管理员.
func PurgeRevision(c *gin.Context) {
	rid, ok := revisionID(c)
	if !ok {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	if err := svc.PurgeRevision(c.Request.Context(), currentActor(c), c.Param("uid"), rid); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purged": true})
}
