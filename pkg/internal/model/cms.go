package model

import (
	"time"
)

// CMS 内容状态.
const (
	CmsStatusDraft     = "draft"
	CmsStatusPublished = "published"
	CmsStatusTrash     = "trash"
)

// CmsItem 版本化内容行.
// slug 在 (post_type, locale) 内唯一；etag 在每次成功写入后重算，
// version 单调递增；硬删只允许从 trash 状态发起.
type CmsItem struct {
	ID  uint   `gorm:"primaryKey"          json:"id"`
	UID string `gorm:"size:64;uniqueIndex" json:"uid"`
	// Slug 在 (post_type, locale) 内唯一
	Slug     string `gorm:"size:255;index:idx_slug,unique" json:"slug"`
	PostType string `gorm:"size:128;index:idx_slug,unique" json:"post_type"`
	Locale   string `gorm:"size:32;index:idx_slug,unique"  json:"locale"`
	Status   string `gorm:"size:16;index"                  json:"status"`
	// ContentJSON 任意结构化内容，JSON 字符串
	ContentJSON string `gorm:"type:text"  json:"content_json"`
	ContentType string `gorm:"size:128"   json:"content_type"`
	ETag        string `gorm:"column:etag;size:64;index" json:"etag"`
	// VersionNumber 单调递增的写入计数
	VersionNumber    int64      `json:"version_number"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	FirstPublishedAt *time.Time `json:"first_published_at,omitempty"`
	TrashedAt        *time.Time `json:"trashed_at,omitempty"`
	// LockedBy/LockedAt 仅为 UI 协作提示的软锁，不参与并发正确性
	LockedBy  string     `gorm:"size:255" json:"locked_by"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
	CreatedBy string     `gorm:"size:255" json:"created_by"`
	UpdatedBy string     `gorm:"size:255" json:"updated_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CmsRevision 内容历史快照，追加写入，只软删不改写.
// 记录的是"被离开的状态"：每次成功写入前，把写入前的行快照入库，
// 因此任意一条快照（含首个）都可以被 restore.
type CmsRevision struct {
	ID      uint   `gorm:"primaryKey"    json:"id"`
	ItemUID string `gorm:"size:64;index" json:"item_uid"`
	// VersionNumber 快照时刻的版本号
	VersionNumber int64 `gorm:"index" json:"version_number"`
	// SnapshotJSON 写入前整行的序列化快照
	SnapshotJSON string `gorm:"type:text" json:"snapshot_json"`
	Status       string `gorm:"size:16"   json:"status"`
	// Deleted 软删标记；软删的快照不可 restore 但仍占位
	Deleted   bool      `gorm:"index" json:"deleted"`
	CreatedBy string    `gorm:"size:255" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CmsCollaborator 内容协作者.
type CmsCollaborator struct {
	ID      uint   `gorm:"primaryKey"                       json:"id"`
	ItemUID string `gorm:"size:64;index:idx_collab,unique"  json:"item_uid"`
	UserUID string `gorm:"size:255;index:idx_collab,unique" json:"user_uid"`
	Role    string `gorm:"size:64"                          json:"role"`

	CreatedAt time.Time `json:"created_at"`
}
