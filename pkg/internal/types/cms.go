package types

import "time"

// ItemInfo CMS 内容视图（含并发控制所需的 etag）.
type ItemInfo struct {
	UID              string     `json:"uid"`
	Slug             string     `json:"slug"`
	PostType         string     `json:"post_type"`
	Locale           string     `json:"locale"`
	Status           string     `json:"status"`
	Content          any        `json:"content,omitempty"`
	ContentType      string     `json:"content_type"`
	ETag             string     `json:"etag"`
	VersionNumber    int64      `json:"version_number"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	FirstPublishedAt *time.Time `json:"first_published_at,omitempty"`
	TrashedAt        *time.Time `json:"trashed_at,omitempty"`
	LockedBy         string     `json:"locked_by,omitempty"`
	LockedAt         *time.Time `json:"locked_at,omitempty"`
	CreatedBy        string     `json:"created_by"`
	UpdatedBy        string     `json:"updated_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ListItemsRequest 内容列表过滤条件.
type ListItemsRequest struct {
	PageRequest
	PostType string `form:"post_type" json:"post_type"`
	Locale   string `form:"locale"    json:"locale"`
	Status   string `form:"status"    json:"status" rule:"omitempty,cms_status"`
	// Search 对 slug 的前缀匹配
	Search string `form:"search" json:"search"`
}

// ListItemsResponse 内容列表结果.
type ListItemsResponse struct {
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Items []ItemInfo `json:"items"`
}

// CreateItemRequest 新建草稿.
type CreateItemRequest struct {
	Slug        string `json:"slug"         rule:"required,max=255"`
	PostType    string `json:"post_type"    rule:"required,max=128"`
	Locale      string `json:"locale"       rule:"omitempty,max=32"`
	ContentType string `json:"content_type" rule:"omitempty,max=128"`
	Content     any    `json:"content"      rule:"required"`
}

// UpdateItemRequest 内容更新；nil 字段表示不修改.
type UpdateItemRequest struct {
	IfMatch     string  `json:"-"`
	Slug        *string `json:"slug,omitempty"         rule:"omitempty,max=255"`
	ContentType *string `json:"content_type,omitempty" rule:"omitempty,max=128"`
	Content     any     `json:"content,omitempty"`
}

// LockInfo 协作软锁视图.
type LockInfo struct {
	ItemUID  string     `json:"item_uid"`
	LockedBy string     `json:"locked_by"`
	LockedAt *time.Time `json:"locked_at,omitempty"`
	// ExpiresAt 锁的懒失效时刻
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UnlockRequest 解锁选项.
type UnlockRequest struct {
	// Force 抢占他人持有的锁，需要管理员身份
	Force bool `form:"force" json:"force"`
}

// RevisionInfo 历史快照视图.
type RevisionInfo struct {
	ID            uint      `json:"id"`
	ItemUID       string    `json:"item_uid"`
	VersionNumber int64     `json:"version_number"`
	Snapshot      any       `json:"snapshot,omitempty"`
	Status        string    `json:"status"`
	Deleted       bool      `json:"deleted"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListRevisionsRequest 历史列表参数.
type ListRevisionsRequest struct {
	PageRequest
	// IncludeDeleted 是否包含软删的快照
	IncludeDeleted bool `form:"include_deleted" json:"include_deleted"`
}

// ListRevisionsResponse 历史列表结果.
type ListRevisionsResponse struct {
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	Size      int            `json:"size"`
	Revisions []RevisionInfo `json:"revisions"`
}

// RestoreRevisionRequest 从历史快照恢复内容.
type RestoreRevisionRequest struct {
	IfMatch    string `json:"-"`
	RevisionID uint   `json:"revision_id" rule:"required"`
}

// CollaboratorInfo 协作者视图.
type CollaboratorInfo struct {
	UserUID string `json:"user_uid" rule:"required,max=255"`
	Role    string `json:"role"     rule:"omitempty,max=64"`
}

// ReplaceCollaboratorsRequest 整体替换协作者集合（原子）.
type ReplaceCollaboratorsRequest struct {
	Collaborators []CollaboratorInfo `json:"collaborators" rule:"dive"`
}

// PublicQuery 公共读取定位参数.
type PublicQuery struct {
	Slug     string `form:"slug"      json:"slug"      rule:"required,max=255"`
	PostType string `form:"post_type" json:"post_type" rule:"required,max=128"`
	Locale   string `form:"locale"    json:"locale"    rule:"omitempty,max=32"`
}

// PublicPayload 公共读取结果，仅 published 内容可见.
type PublicPayload struct {
	UID         string     `json:"uid"`
	Slug        string     `json:"slug"`
	PostType    string     `json:"post_type"`
	Locale      string     `json:"locale"`
	Content     any        `json:"content"`
	ContentType string     `json:"content_type"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// PublicHead 公共读取的轻量头信息，不携带内容体.
type PublicHead struct {
	UID           string     `json:"uid"`
	Slug          string     `json:"slug"`
	ETag          string     `json:"etag"`
	VersionNumber int64      `json:"version_number"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
