package types

import "time"

// FileInfo 文件元数据视图.
type FileInfo struct {
	UID              string     `json:"uid"`
	OwnerUserUID     string     `json:"owner_user_uid,omitempty"`
	ObjectKey        string     `json:"object_key"`
	OriginalFilename string     `json:"original_filename"`
	MimeType         string     `json:"mime_type"`
	ByteSize         int64      `json:"byte_size"`
	StorageLocation  string     `json:"storage_location"`
	Purpose          string     `json:"purpose"`
	IsPublic         bool       `json:"is_public"`
	Tags             []string   `json:"tags,omitempty"`
	Status           string     `json:"status"`
	ETag             string     `json:"etag"`
	Version          int64      `json:"version"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ListFilesRequest 文件列表过滤条件.
type ListFilesRequest struct {
	PageRequest
	Owner      string `form:"owner"       json:"owner"`
	Status     string `form:"status"      json:"status"      rule:"omitempty,file_status"`
	Purpose    string `form:"purpose"     json:"purpose"`
	Tag        string `form:"tag"         json:"tag"`
	MimePrefix string `form:"mime_prefix" json:"mime_prefix"`
}

// ListFilesResponse 文件列表结果.
type ListFilesResponse struct {
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Files []FileInfo `json:"files"`
}

// PatchFileRequest 可变元数据的部分更新；nil 字段表示不修改.
type PatchFileRequest struct {
	IfMatch    string    `json:"-"`
	Filename   *string   `json:"filename,omitempty"   rule:"omitempty,max=512"`
	Visibility *string   `json:"visibility,omitempty" rule:"omitempty,visibility"`
	Tags       *[]string `json:"tags,omitempty"`
}

// DeleteFileRequest 删除选项.
type DeleteFileRequest struct {
	IfMatch string `json:"-"`
	// Force 绕过"必须先归档/存在引用"的保护，需要管理员身份
	Force bool `form:"force" json:"force"`
}

// MoveFileRequest 迁移文件到另一个存储后端.
type MoveFileRequest struct {
	IfMatch string `json:"-"`
	// TargetLocation 目标后端（local/s3）
	TargetLocation string `json:"target_location" rule:"required,oneof=local s3"`
}

// 访问解析模式.
const (
	AccessModePublic    = "public"    // 公共读 URL
	AccessModeSigned    = "signed"    // 限时签名 URL
	AccessModeCanonical = "canonical" // 后端规范地址（本地路径 / s3 URI）
)

// ContentAccessRequest 内容访问解析请求.
type ContentAccessRequest struct {
	FileUID string `form:"file_uid" json:"file_uid" rule:"required_without=VariantUID"`
	// VariantUID 指定时解析该衍生形态而非原件
	VariantUID string `form:"variant_uid" json:"variant_uid"`
	Mode       string `form:"mode"        json:"mode" rule:"omitempty,oneof=public signed canonical"`
}

// ContentAccessResponse 内容访问解析结果.
type ContentAccessResponse struct {
	URL string `json:"url"`
	// ExpiresIn 签名 URL 的剩余有效期（秒），非签名模式为 0
	ExpiresIn int `json:"expires_in,omitempty"`
}
