package types

// 上传模式.
const (
	UploadModeDirect = "direct" // 客户端经预签名 URL 直传存储后端
	UploadModeProxy  = "proxy"  // 字节流经服务端中转
)

// UploadInitRequest 两阶段上传的发起请求.
type UploadInitRequest struct {
	Purpose    string   `json:"purpose"     rule:"required,max=128"`
	Filename   string   `json:"filename"    rule:"required,max=512"`
	MimeType   string   `json:"mime_type"   rule:"required,max=255"`
	SizeBytes  int64    `json:"size_bytes"  rule:"gt=0"`
	Visibility string   `json:"visibility"  rule:"omitempty,visibility"`
	Tags       []string `json:"tags,omitempty"`
}

// PresignedPut 预签名直传信息.
type PresignedPut struct {
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresIn int               `json:"expires_in"` // 秒
}

// UploadInitResponse 发起结果：direct 模式附带预签名 PUT.
type UploadInitResponse struct {
	FileUID      string        `json:"file_uid"`
	Mode         string        `json:"mode"`
	ObjectKey    string        `json:"object_key"`
	PresignedPut *PresignedPut `json:"presigned_put,omitempty"`
}

// UploadFinalizeRequest direct 模式完成回调.
type UploadFinalizeRequest struct {
	FileUID string `json:"file_uid" rule:"required"`
}

// VariantUploadInitRequest 衍生形态上传发起.
type VariantUploadInitRequest struct {
	VariantOfUID string `json:"variant_of_uid" rule:"required"`
	Kind         string `json:"kind"           rule:"required,variant_kind"`
	MimeType     string `json:"mime_type"      rule:"required,max=255"`
	SizeBytes    int64  `json:"size_bytes"     rule:"gt=0"`
	// Width/Height 可选，发起时校验为非负，0 表示未知
	Width  int `json:"width"  rule:"min=0"`
	Height int `json:"height" rule:"min=0"`
}

// VariantUploadInitResponse 衍生形态上传发起结果.
type VariantUploadInitResponse struct {
	VariantUID   string        `json:"variant_uid"`
	Mode         string        `json:"mode"`
	ObjectKey    string        `json:"object_key"`
	PresignedPut *PresignedPut `json:"presigned_put,omitempty"`
}

// VariantInfo 衍生形态视图.
type VariantInfo struct {
	UID             string `json:"uid"`
	VariantOfUID    string `json:"variant_of_uid"`
	Kind            string `json:"kind"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	MimeType        string `json:"mime_type"`
	ByteSize        int64  `json:"byte_size"`
	ObjectKey       string `json:"object_key"`
	StorageLocation string `json:"storage_location"`
	Status          string `json:"status"`
}
