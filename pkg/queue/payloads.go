package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 文件领域 --------------------------

// FileRef 标识文件元数据行与其物理对象.
type FileRef struct {
	UID             string `json:"uid"`
	ObjectKey       string `json:"object_key,omitempty"`
	StorageLocation string `json:"storage_location,omitempty"`
	MimeType        string `json:"mime_type,omitempty"`
	ByteSize        int64  `json:"byte_size,omitempty"`
	ETag            string `json:"etag,omitempty"`
	Version         int64  `json:"version,omitempty"`
	Status          string `json:"status,omitempty"`
}

// FileEventPayload 文件生命周期事件通用负载.
type FileEventPayload struct {
	File FileRef `json:"file"`
	// Actor 触发操作的用户标识，系统任务为空.
	Actor string `json:"actor,omitempty"`
	// PrevLocation 迁移事件携带迁出的后端.
	PrevLocation string `json:"prev_location,omitempty"`
}

// VariantEventPayload 衍生形态事件负载.
type VariantEventPayload struct {
	VariantUID string  `json:"variant_uid"`
	Kind       string  `json:"kind,omitempty"`
	File       FileRef `json:"file"`
	Actor      string  `json:"actor,omitempty"`
}

// LinkEventPayload 实体引用事件负载.
type LinkEventPayload struct {
	FileUID          string `json:"file_uid"`
	LinkedEntityType string `json:"linked_entity_type"`
	LinkedEntityUID  string `json:"linked_entity_uid"`
	LinkedField      string `json:"linked_field"`
	Actor            string `json:"actor,omitempty"`
}

// -------------------------- 内容管理领域 --------------------------

// CmsRef 标识内容行.
type CmsRef struct {
	UID           string `json:"uid"`
	Slug          string `json:"slug,omitempty"`
	PostType      string `json:"post_type,omitempty"`
	Locale        string `json:"locale,omitempty"`
	Status        string `json:"status,omitempty"`
	ETag          string `json:"etag,omitempty"`
	VersionNumber int64  `json:"version_number,omitempty"`
}

// CmsEventPayload 内容生命周期事件通用负载.
type CmsEventPayload struct {
	Item  CmsRef `json:"item"`
	Actor string `json:"actor,omitempty"`
}
