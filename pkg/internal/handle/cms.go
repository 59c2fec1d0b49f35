package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// CreateItem 新建草稿内容.
func CreateItem(c *gin.Context) {
	var req types.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.CreateItem(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusCreated, info)
}

// ListItems 管理侧内容列表，不携带内容体.
func ListItems(c *gin.Context) {
	var req types.ListItemsRequest
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewCmsService(c.Request.Context())

	resp, err := svc.ListItems(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetItem 获取单条内容；非 published 内容仅编辑者可见.
func GetItem(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.GetItem(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// UpdateItem 更新内容，要求 If-Match.
func UpdateItem(c *gin.Context) {
	var req types.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}

	req.IfMatch = ifMatchHeader(c)

	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.UpdateItem(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// PublishItem 发布内容，幂等.
func PublishItem(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.PublishItem(c.Request.Context(), currentActor(c), c.Param("uid"), ifMatchHeader(c))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// UnpublishItem 撤回发布，内容回到 draft.
func UnpublishItem(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.UnpublishItem(c.Request.Context(), currentActor(c), c.Param("uid"), ifMatchHeader(c))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// TrashItem 移入回收站，幂等.
func TrashItem(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.TrashItem(c.Request.Context(), currentActor(c), c.Param("uid"), ifMatchHeader(c))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// RestoreItem 从回收站恢复为 draft.
func RestoreItem(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.RestoreItem(c.Request.Context(), currentActor(c), c.Param("uid"), ifMatchHeader(c))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// DeleteItem 硬删内容，仅允许从 trash 状态发起.
func DeleteItem(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	if err := svc.DeleteItem(c.Request.Context(), currentActor(c), c.Param("uid"), ifMatchHeader(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// EmptyTrash 清空回收站，仅管理员.
func EmptyTrash(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	n, err := svc.EmptyTrash(c.Request.Context(), currentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
