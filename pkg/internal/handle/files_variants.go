package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// VariantUploadInit 发起衍生形态上传，沿用父文件的两阶段协议.
func VariantUploadInit(c *gin.Context) {
	var req types.VariantUploadInitRequest
	if !bindJSON(c, &req) {
		return
	}

	svc := service.NewFmService(c.Request.Context())

	resp, err := svc.VariantUploadInit(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// VariantUploadFinalize direct 直传完成后的回调.
func VariantUploadFinalize(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	info, err := svc.VariantUploadFinalize(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// VariantUploadProxied proxy 模式写入衍生形态字节.
func VariantUploadProxied(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	info, err := svc.VariantUploadProxied(c.Request.Context(), currentActor(c), c.Param("uid"), c.Request.Body)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// ListVariants 列出某文件的全部衍生形态.
func ListVariants(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	infos, err := svc.ListVariants(c.Request.Context(), currentActor(c), c.Param("uid"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": infos})
}

// DeleteVariant 删除衍生形态及其字节.
func DeleteVariant(c *gin.Context) {
	svc := service.NewFmService(c.Request.Context())

	if err := svc.DeleteVariant(c.Request.Context(), currentActor(c), c.Param("uid")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
