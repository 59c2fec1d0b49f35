package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件管理相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	filesRoutes := g.Group("/files")
	{
		// 两阶段上传
		uploadGroup := filesRoutes.Group("/upload")
		{
			// 发起上传：创建 pending 行，direct 模式返回预签名 PUT
			uploadGroup.POST("/init", handle.UploadInit)
			// direct 直传完成回调
			uploadGroup.POST("/finalize", handle.UploadFinalize)
		}

		// 内容访问解析（public / signed / canonical）
		filesRoutes.GET("/access", handle.ResolveContentAccess)
		// 列表/过滤
		filesRoutes.GET("", handle.ListFiles)

		// 单个文件操作
		singleGroup := filesRoutes.Group("/:uid")
		{
			singleGroup.GET("", handle.GetFile)
			singleGroup.PATCH("", handle.PatchFile)
			singleGroup.DELETE("", handle.DeleteFile)
			// proxy 模式上传字节
			singleGroup.PUT("/content", handle.UploadProxied)
			// 服务端回源下载
			singleGroup.GET("/content", handle.DownloadContent)
			// 生命周期
			singleGroup.POST("/archive", handle.ArchiveFile)
			singleGroup.POST("/restore", handle.RestoreFile)
			// 跨后端迁移（仅管理员）
			singleGroup.POST("/move", handle.MoveFile)
			// 衍生形态与引用
			singleGroup.GET("/variants", handle.ListVariants)
			singleGroup.GET("/links", handle.ListLinks)
		}

		// 衍生形态上传与删除
		variantGroup := filesRoutes.Group("/variants")
		{
			variantGroup.POST("/init", handle.VariantUploadInit)
			variantGroup.POST("/:uid/finalize", handle.VariantUploadFinalize)
			variantGroup.PUT("/:uid/content", handle.VariantUploadProxied)
			variantGroup.DELETE("/:uid", handle.DeleteVariant)
		}
	}

	// 实体引用
	linksRoutes := g.Group("/links")
	{
		linksRoutes.POST("", handle.CreateLink)
		linksRoutes.DELETE("/:id", handle.DeleteLink)
	}
}
