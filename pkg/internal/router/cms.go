package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/handle"
)

// RegisterCmsRoutes 注册内容管理相关路由.
func RegisterCmsRoutes(g *gin.RouterGroup) {
	cmsRoutes := g.Group("/cms")
	{
		itemsRoutes := cmsRoutes.Group("/items")
		{
			itemsRoutes.POST("", handle.CreateItem)
			itemsRoutes.GET("", handle.ListItems)

			// 单条内容操作
			singleGroup := itemsRoutes.Group("/:uid")
			{
				singleGroup.GET("", handle.GetItem)
				singleGroup.PATCH("", handle.UpdateItem)
				singleGroup.DELETE("", handle.DeleteItem)
				// 生命周期
				singleGroup.POST("/publish", handle.PublishItem)
				singleGroup.POST("/unpublish", handle.UnpublishItem)
				singleGroup.POST("/trash", handle.TrashItem)
				singleGroup.POST("/restore", handle.RestoreItem)

				// 协作软锁
				lockGroup := singleGroup.Group("/lock")
				{
					lockGroup.GET("", handle.GetLock)
					lockGroup.POST("", handle.LockItem)
					lockGroup.DELETE("", handle.UnlockItem)
				}

				// 历史快照
				revGroup := singleGroup.Group("/revisions")
				{
					revGroup.GET("", handle.ListRevisions)
					revGroup.POST("/:rid/restore", handle.RestoreRevision)
					// 软删占位保留；purge 彻底移除
					revGroup.DELETE("/:rid", handle.RedactRevision)
					revGroup.DELETE("/:rid/purge", handle.PurgeRevision)
				}

				// 协作者
				collabGroup := singleGroup.Group("/collaborators")
				{
					collabGroup.GET("", handle.ListCollaborators)
					collabGroup.PUT("", handle.ReplaceCollaborators)
				}
			}
		}

		// 回收站
		cmsRoutes.POST("/trash/empty", handle.EmptyTrash)
	}
}
