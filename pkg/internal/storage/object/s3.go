package object

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/mediavault/pkg/configs"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
)

// S3Adapter 基于 MinIO 客户端的对象存储后端.
type S3Adapter struct {
	cli    *s3c.Client
	bucket string
	cfg    configs.S3Config
}

// NewS3 创建 S3 后端.
func NewS3(cli *s3c.Client, cfg configs.S3Config) *S3Adapter {
	return &S3Adapter{
		cli:    cli,
		bucket: cfg.Bucket,
		cfg:    cfg,
	}
}

// Location 返回后端标识.
func (s *S3Adapter) Location() string {
	return "s3"
}

// PresignPut 生成直传 PUT 的预签名 URL.
func (s *S3Adapter) PresignPut(ctx context.Context, key, contentType string, size int64, expiry time.Duration) (*PresignedPut, error) {
	u, err := s.cli.PresignedPutObject(ctx, s.bucket, key, expiry)
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}

	headers := map[string]string{}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}

	return &PresignedPut{
		URL:     u.String(),
		Headers: headers,
		Expiry:  expiry,
	}, nil
}

// PutProxied 服务端代理写入.
func (s *S3Adapter) PutProxied(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	info, err := s.cli.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("put object %s: %w", key, err)
	}

	return info.Size, nil
}

// Open 打开对象内容.
func (s *S3Adapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.cli.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	// GetObject 是惰性的，错误（含不存在）要等首次读取或 Stat 才暴露
	if _, err := obj.Stat(); err != nil {
		obj.Close()

		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}

		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}

	return obj, nil
}

// ReadAccess 解析访问地址.
func (s *S3Adapter) ReadAccess(ctx context.Context, key string, mode AccessMode, expiry time.Duration) (string, error) {
	switch mode {
	case AccessSigned, "":
		u, err := s.cli.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
		if err != nil {
			return "", fmt.Errorf("presign get %s: %w", key, err)
		}

		return u.String(), nil
	case AccessPublic:
		base := s.cfg.PublicBaseURL
		if base == "" {
			base = s.cfg.GetEndpointURL() + "/" + s.bucket
		}

		return strings.TrimRight(base, "/") + "/" + key, nil
	case AccessCanonical:
		return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
	default:
		return "", fmt.Errorf("unsupported access mode: %s", mode)
	}
}

// Delete 删除对象，幂等（对不存在的键 RemoveObject 本身不报错）.
func (s *S3Adapter) Delete(ctx context.Context, key string) error {
	if err := s.cli.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// Stat 查询对象属性.
func (s *S3Adapter) Stat(ctx context.Context, key string) (*Stat, error) {
	info, err := s.cli.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}

		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}

	return &Stat{
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// isNoSuchKey 判断 MinIO 错误是否为对象不存在.
func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
