package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/metrics"
)

// UploadInit 发起两阶段上传：创建 pending 行并返回上传方式.
// 主后端支持预签名时返回 direct + 预签名 PUT，否则回退 proxy.
func UploadInit(c *gin.Context) {
	var req types.UploadInitRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewFmService(c.Request.Context())

	resp, err := svc.UploadInit(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// UploadFinalize direct 直传完成后的回调，校验字节并激活文件.
func UploadFinalize(c *gin.Context) {
	var req types.UploadFinalizeRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewFmService(c.Request.Context())

	info, err := svc.UploadFinalize(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}

// UploadProxied proxy 模式：字节流经服务端写入存储后端并激活文件.
func UploadProxied(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	info, err := svc.UploadProxied(c.Request.Context(), currentActor(c), c.Param("uid"), c.Request.Body)
	if err != nil {
		writeError(c, err)
		return
	}

	metrics.UploadBytes.WithLabelValues(info.StorageLocation).Add(float64(info.ByteSize))

	setETag(c, info.ETag)
	c.JSON(http.StatusOK, info)
}
