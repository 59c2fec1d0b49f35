// Package model 定义持久化模型.
package model

import (
	"time"
)

// 文件生命周期状态.
const (
	FileStatusPending  = "pending"  // 上传已发起，字节未确认
	FileStatusActive   = "active"   // finalize 成功，可对外服务
	FileStatusArchived = "archived" // 软删，可恢复
	FileStatusDeleted  = "deleted"  // 终态，字节已清除
)

// 可见性.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// 存储后端位置.
const (
	StorageLocationLocal = "local"
	StorageLocationS3    = "s3"
)

// StoredObject 上传对象的元数据行.
// 同一 uid 至多一条存活（active/archived）记录；字节存在于存储后端当且仅当
// status ∈ {active, archived}.
type StoredObject struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// UID 对外的不透明唯一标识，创建后不可变
	UID string `gorm:"size:64;uniqueIndex" json:"uid"`
	// OwnerUserUID 上传者标识；系统上传为空
	OwnerUserUID string `gorm:"size:255;index" json:"owner_user_uid"`
	// ObjectKey 存储后端的对象键
	ObjectKey        string `gorm:"size:1024;index"    json:"object_key"`
	OriginalFilename string `gorm:"size:512"           json:"original_filename"`
	MimeType         string `gorm:"size:255;index"     json:"mime_type"`
	ByteSize         int64  `gorm:"index"              json:"byte_size"`
	// StorageLocation 持久化字节的后端（local/s3），创建后不可变
	StorageLocation string `gorm:"size:32;index" json:"storage_location"`
	Purpose         string `gorm:"size:128;index" json:"purpose"`
	Visibility      string `gorm:"size:16;index"  json:"visibility"`
	// TagsJSON 以 JSON 字符串形式存储标签集合
	TagsJSON string `gorm:"type:text"      json:"tags_json"`
	Status   string `gorm:"size:16;index"  json:"status"`
	// ETag 并发令牌，每次成功写入后变化
	ETag string `gorm:"column:etag;size:64;index" json:"etag"`
	// Version 单调递增的写入计数
	Version    int64      `json:"version"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// 衍生形态种类.
const (
	VariantKindThumb   = "thumb"
	VariantKindPreview = "preview"
	VariantKindWeb     = "web"
	VariantKindCustom  = "custom"
)

// Variant 某个 StoredObject 的衍生形态（缩略图等）.
// 生命周期沿用父对象的上传协议（pending → active）；父对象删除时级联删除.
type Variant struct {
	ID  uint   `gorm:"primaryKey"          json:"id"`
	UID string `gorm:"size:64;uniqueIndex" json:"uid"`
	// VariantOfUID 所属 StoredObject 的 uid，必须指向未删除的对象
	VariantOfUID    string `gorm:"size:64;index"  json:"variant_of_uid"`
	Kind            string `gorm:"size:32;index"  json:"kind"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	MimeType        string `gorm:"size:255"       json:"mime_type"`
	ByteSize        int64  `json:"byte_size"`
	ObjectKey       string `gorm:"size:1024"      json:"object_key"`
	StorageLocation string `gorm:"size:32"        json:"storage_location"`
	Status          string `gorm:"size:16;index"  json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityLink 文件与外部实体的引用关系.
// (file_uid, entity_type, entity_uid, field) 四元组唯一；存在引用的文件
// 非 force 删除时降级为 archive.
type EntityLink struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	FileUID string `gorm:"size:64;index:idx_link,unique;index" json:"file_uid"`
	// LinkedEntityType 外部实体类型，如 "cms_item"
	LinkedEntityType string    `gorm:"size:128;index:idx_link,unique" json:"linked_entity_type"`
	LinkedEntityUID  string    `gorm:"size:64;index:idx_link,unique"  json:"linked_entity_uid"`
	LinkedField      string    `gorm:"size:128;index:idx_link,unique" json:"linked_field"`
	CreatedAt        time.Time `json:"created_at"`
}
