package object

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/yeisme/mediavault/pkg/configs"
)

// LocalAdapter 基于本地文件系统的对象存储后端.
// 写入先落到临时文件再 rename，避免出现写了一半的对象.
type LocalAdapter struct {
	root       string
	publicBase string
}

// NewLocal 创建本地后端.
func NewLocal(cfg *configs.StorageConfig) (*LocalAdapter, error) {
	root, err := filepath.Abs(cfg.LocalRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve local root: %w", err)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create local root: %w", err)
	}

	return &LocalAdapter{
		root:       root,
		publicBase: cfg.LocalPublicBase,
	}, nil
}

// Location 返回后端标识.
func (l *LocalAdapter) Location() string {
	return "local"
}

// resolve 将对象键映射为根目录下的绝对路径，拒绝越界键.
// ".." 段必须在 Clean 之前检查，Clean 会把它们规范化掉.
func (l *LocalAdapter) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("invalid object key: %q", key)
	}

	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid object key: %s", key)
		}
	}

	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key: %s", key)
	}

	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// PresignPut 本地后端不支持预签名直传.
func (l *LocalAdapter) PresignPut(ctx context.Context, key, contentType string, size int64, expiry time.Duration) (*PresignedPut, error) {
	return nil, nil
}

// PutProxied 代理写入：临时文件 + rename.
func (l *LocalAdapter) PutProxied(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	full, err := l.resolve(key)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return 0, fmt.Errorf("write object content: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename temp file: %w", err)
	}

	return written, nil
}

// Open 打开对象内容.
func (l *LocalAdapter) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}

		return nil, fmt.Errorf("open object: %w", err)
	}

	return f, nil
}

// ReadAccess 解析访问地址.
// 本地后端没有签名机制，signed 与 public 同样返回公共路径；
// canonical 返回文件系统绝对路径.
func (l *LocalAdapter) ReadAccess(ctx context.Context, key string, mode AccessMode, expiry time.Duration) (string, error) {
	switch mode {
	case AccessCanonical:
		return l.resolve(key)
	case AccessPublic, AccessSigned, "":
		return path.Join(l.publicBase, key), nil
	default:
		return "", fmt.Errorf("unsupported access mode: %s", mode)
	}
}

// Delete 删除对象，幂等.
func (l *LocalAdapter) Delete(ctx context.Context, key string) error {
	full, err := l.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}

// Stat 查询对象属性.
func (l *LocalAdapter) Stat(ctx context.Context, key string) (*Stat, error) {
	full, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}

		return nil, fmt.Errorf("stat object: %w", err)
	}

	return &Stat{
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}
