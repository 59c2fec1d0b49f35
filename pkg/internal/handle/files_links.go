package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/log"
)

// CreateLink 建立文件与外部实体的引用关系.
func CreateLink(c *gin.Context) {
	var req types.CreateLinkRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewFmService(c.Request.Context())

	link, err := svc.CreateLink(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListLinks 列出指向某文件的全部引用.
func ListLinks(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	links, err := svc.ListLinks(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"links": links})
}

// DeleteLink 解除引用.
func DeleteLink(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		log.Logger().Warn().Err(err).Msg("invalid link id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})

		return
	}

	svc := service.NewFmService(c.Request.Context())

	if err := svc.DeleteLink(c.Request.Context(), currentActor(c), uint(id)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
