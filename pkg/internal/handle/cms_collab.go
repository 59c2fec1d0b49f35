package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// ReplaceCollaborators 原子替换内容的协作者集合，仅创建者或管理员.
func ReplaceCollaborators(c *gin.Context) {
	var req types.ReplaceCollaboratorsRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	collabs, err := svc.ReplaceCollaborators(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collaborators": collabs})
}

// ListCollaborators 列出内容的协作者.
func ListCollaborators(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	collabs, err := svc.ListCollaborators(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collaborators": collabs})
}
