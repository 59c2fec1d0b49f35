package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// LockItem 获取协作软锁；已被他人持有时返回 423.
func LockItem(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.LockItem(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// UnlockItem 释放软锁；抢占他人的锁需要 force 且为管理员.
func UnlockItem(c *gin.Context) {
	req := types.UnlockRequest{Force: c.Query("force") == "true"}

	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.UnlockItem(c.Request.Context(), currentActor(c), c.Param("uid"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetLock 查询当前锁状态，过期锁视同无锁.
func GetLock(c *gin.Context) {
	svc := service.NewCmsService(c.Request.Context())

	info, err := svc.GetLock(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
