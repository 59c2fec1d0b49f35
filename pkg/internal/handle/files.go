package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// ListFiles 按条件分页列出文件；非管理员只能看到自己的文件.
func ListFiles(c *gin.Context) {
	var req types.ListFilesRequest
	if !bindQuery(c, &req) {
		return
	}

	svc := service.NewFmService(c.Request.Context())

	resp, err := svc.ListFiles(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetFile 获取单个文件元数据.
func GetFile(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	info, err := svc.GetFile(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// PatchFile 部分更新可变元数据，要求 If-Match.
func PatchFile(c *gin.Context) {
	var req types.PatchFileRequest
	if !bindJSON(c, &req) {
		return
	}

	req.IfMatch = ifMatchHeader(c)

	svc := service.NewFmService(c.Request.Context())

	info, err := svc.PatchFile(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// DeleteFile 删除文件：pending 取消、archived 清除字节、有引用时降级归档.
func DeleteFile(c *gin.Context) {
	req := types.DeleteFileRequest{
		IfMatch: ifMatchHeader(c),
		Force:   c.Query("force") == "true",
	}

	svc := service.NewFmService(c.Request.Context())

	info, err := svc.DeleteFile(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// ArchiveFile 软删（归档），幂等.
func ArchiveFile(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	info, err := svc.ArchiveFile(c.Request.Context(), currentActor(c), c.Param("uid"), ifMatchHeader(c))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// RestoreFile 从归档恢复，幂等.
func RestoreFile(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	info, err := svc.RestoreFile(c.Request.Context(), currentActor(c), c.Param("uid"), ifMatchHeader(c))
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// MoveFile 将文件字节迁移到另一个存储后端，仅管理员.
func MoveFile(c *gin.Context) {
	var req types.MoveFileRequest
	if !bindJSON(c, &req) {
		return
	}

	req.IfMatch = ifMatchHeader(c)

	svc := service.NewFmService(c.Request.Context())

	info, err := svc.MoveFile(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}
