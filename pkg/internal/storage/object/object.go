// Package object 抽象对象存储后端，统一本地文件系统与 S3 的
// 预签名直传、代理写入、读取访问与删除语义.
package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotExist 对象不存在.
var ErrNotExist = errors.New("object does not exist")

// AccessMode 读取访问模式.
type AccessMode string

const (
	AccessPublic    AccessMode = "public"    // 公共读 URL
	AccessSigned    AccessMode = "signed"    // 限时签名 URL
	AccessCanonical AccessMode = "canonical" // 后端规范地址
)

// PresignedPut 预签名直传信息.
type PresignedPut struct {
	URL     string
	Headers map[string]string
	Expiry  time.Duration
}

// Stat 对象的物理属性.
type Stat struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Adapter 对象存储后端.
//
// PresignPut 返回 (nil, nil) 表示该后端不支持预签名直传，
// 调用方应回退到 PutProxied 代理写入.
// Delete 幂等：对象不存在时不报错.
// Stat 对不存在的对象返回 ErrNotExist.
type Adapter interface {
	// Location 后端标识（local/s3），与元数据行的 storage_location 对应.
	Location() string
	// PresignPut 生成直传 PUT 的预签名 URL.
	PresignPut(ctx context.Context, key, contentType string, size int64, expiry time.Duration) (*PresignedPut, error)
	// PutProxied 服务端代理写入，返回实际写入的字节数.
	PutProxied(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
	// Open 打开对象内容读取流.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// ReadAccess 解析读取访问地址.
	ReadAccess(ctx context.Context, key string, mode AccessMode, expiry time.Duration) (string, error)
	// Delete 删除对象.
	Delete(ctx context.Context, key string) error
	// Stat 查询对象物理属性.
	Stat(ctx context.Context, key string) (*Stat, error)
}
