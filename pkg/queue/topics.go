// Package queue 定义消息主题常量与分组，供发布/订阅使用.
package queue

// 主题命名规范：mv.<域>.<动作>，尽量稳定且向后兼容.
// 域：file(文件元数据)、variant(衍生形态)、link(实体引用)、cms(内容管理)
// 动作：stored/updated/archived/restored/deleted/moved/published/trashed 等

const (
	// 文件领域.
	TopicFileStored   = "mv.file.stored"   // 上传完成，元数据转入 active
	TopicFileUpdated  = "mv.file.updated"  // 可变元数据更新
	TopicFileArchived = "mv.file.archived" // 归档（软删）
	TopicFileRestored = "mv.file.restored" // 从归档恢复
	TopicFileDeleted  = "mv.file.deleted"  // 物理删除完成
	TopicFileMoved    = "mv.file.moved"    // 存储后端迁移完成

	// 衍生形态领域.
	TopicVariantStored  = "mv.variant.stored"  // 衍生形态上传完成
	TopicVariantDeleted = "mv.variant.deleted" // 衍生形态删除

	// 实体引用领域.
	TopicLinkCreated = "mv.link.created" // 引用建立
	TopicLinkDeleted = "mv.link.deleted" // 引用解除

	// 内容管理领域.
	TopicCmsCreated   = "mv.cms.created"   // 草稿创建
	TopicCmsUpdated   = "mv.cms.updated"   // 内容更新
	TopicCmsPublished = "mv.cms.published" // 发布
	TopicCmsTrashed   = "mv.cms.trashed"   // 移入回收站
	TopicCmsRestored  = "mv.cms.restored"  // 从回收站/历史恢复
	TopicCmsDeleted   = "mv.cms.deleted"   // 硬删除
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 文件相关主题集合.
	FileTopics = []string{
		TopicFileStored, TopicFileUpdated, TopicFileArchived,
		TopicFileRestored, TopicFileDeleted, TopicFileMoved,
		TopicVariantStored, TopicVariantDeleted,
		TopicLinkCreated, TopicLinkDeleted,
	}

	// 内容管理相关主题集合.
	CmsTopics = []string{
		TopicCmsCreated, TopicCmsUpdated, TopicCmsPublished,
		TopicCmsTrashed, TopicCmsRestored, TopicCmsDeleted,
	}
)
