// Package connector 定义元数据持久化接口及其实现.
//
// 服务核心只依赖本包的接口，不感知底层是 GORM 还是内存实现：
//   - 查询未命中统一返回 (nil, nil)，不返回错误
//   - 乐观并发通过 CAS 更新表达：携带期望 etag 的条件更新，
//     返回 false 表示 etag 已过期（或行不存在）
//   - 实现不返回业务错误，错误语义的映射在 service 层完成
package connector

import (
	"context"
	"time"

	"github.com/yeisme/mediavault/pkg/internal/model"
)

// FileFilter 文件列表过滤条件；零值字段不参与过滤.
type FileFilter struct {
	Owner      string
	Status     string
	Purpose    string
	Tag        string
	MimePrefix string
	Page       int
	Size       int
}

// ItemFilter 内容列表过滤条件；零值字段不参与过滤.
type ItemFilter struct {
	PostType   string
	Locale     string
	Status     string
	SlugPrefix string
	Page       int
	Size       int
}

// ItemHead 公共读取的轻量头信息.
type ItemHead struct {
	UID           string
	Slug          string
	ETag          string `gorm:"column:etag"`
	VersionNumber int64
	PublishedAt   *time.Time
	UpdatedAt     time.Time
}

// FileStore 文件元数据持久化.
type FileStore interface {
	CreateFile(ctx context.Context, row *model.StoredObject) error
	GetFile(ctx context.Context, uid string) (*model.StoredObject, error)
	ListFiles(ctx context.Context, filter FileFilter) ([]model.StoredObject, int64, error)
	// UpdateFileCAS 条件更新：仅当行的当前 etag 等于 expectedETag 时整行写入.
	// 返回 false 表示并发冲突或行不存在.
	UpdateFileCAS(ctx context.Context, row *model.StoredObject, expectedETag string) (bool, error)
	// DeleteFile 硬删除元数据行，幂等.
	DeleteFile(ctx context.Context, uid string) error
	// ListPendingBefore 列出在 cutoff 之前创建、仍处于 pending 的行，供 janitor 回收.
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.StoredObject, error)

	CreateVariant(ctx context.Context, row *model.Variant) error
	GetVariant(ctx context.Context, uid string) (*model.Variant, error)
	UpdateVariant(ctx context.Context, row *model.Variant) error
	ListVariants(ctx context.Context, fileUID string) ([]model.Variant, error)
	DeleteVariant(ctx context.Context, uid string) error

	CreateLink(ctx context.Context, row *model.EntityLink) error
	GetLinkByID(ctx context.Context, id uint) (*model.EntityLink, error)
	// FindLink 按 (file, entity_type, entity_uid, field) 四元组查重.
	FindLink(ctx context.Context, fileUID, entityType, entityUID, field string) (*model.EntityLink, error)
	ListLinks(ctx context.Context, fileUID string) ([]model.EntityLink, error)
	DeleteLink(ctx context.Context, id uint) error
	CountLinks(ctx context.Context, fileUID string) (int64, error)
}

// CmsStore 内容元数据持久化.
type CmsStore interface {
	CreateItem(ctx context.Context, row *model.CmsItem) error
	GetItem(ctx context.Context, uid string) (*model.CmsItem, error)
	GetItemBySlug(ctx context.Context, slug, postType, locale string) (*model.CmsItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]model.CmsItem, int64, error)
	// UpdateItemCAS 条件更新，语义同 FileStore.UpdateFileCAS.
	UpdateItemCAS(ctx context.Context, row *model.CmsItem, expectedETag string) (bool, error)
	DeleteItem(ctx context.Context, uid string) error
	ListItemsByStatus(ctx context.Context, status string) ([]model.CmsItem, error)

	// AppendRevision 追加历史快照，永不改写既有行.
	AppendRevision(ctx context.Context, row *model.CmsRevision) error
	GetRevision(ctx context.Context, itemUID string, revisionID uint) (*model.CmsRevision, error)
	ListRevisions(ctx context.Context, itemUID string, includeDeleted bool, page, size int) ([]model.CmsRevision, int64, error)
	// UpdateRevision 仅用于软删标记，不改写快照内容.
	UpdateRevision(ctx context.Context, row *model.CmsRevision) error
	DeleteRevision(ctx context.Context, itemUID string, revisionID uint) error

	// ReplaceCollaborators 整体替换协作者集合，原子生效.
	ReplaceCollaborators(ctx context.Context, itemUID string, rows []model.CmsCollaborator) error
	ListCollaborators(ctx context.Context, itemUID string) ([]model.CmsCollaborator, error)
}

// HeadReader 可选能力：后端若能低成本读取公共头信息则实现本接口，
// 调用方通过类型断言探测，缺失时回退到完整行读取.
type HeadReader interface {
	GetPublicHead(ctx context.Context, slug, postType, locale string) (*ItemHead, error)
}

// Connector 聚合持久化入口.
type Connector interface {
	Files() FileStore
	Cms() CmsStore
	// Migrate 建表/迁移（实现可为 no-op）.
	Migrate(ctx context.Context) error
}
