package configs

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultMaxUploadBytes 未配置 purpose 时的兜底大小上限（32MB）.
	DefaultMaxUploadBytes = 32 << 20
)

// PurposePolicy 单个上传用途（purpose）的策略.
type PurposePolicy struct {
	// MaxBytes 该用途允许的最大字节数，0 表示使用全局兜底值.
	MaxBytes int64 `mapstructure:"max_bytes" rule:"min=0"`
	// AllowedMimeTypes MIME 白名单；支持 "image/*" 这样的前缀通配；为空表示继承全局白名单.
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
}

// UploadConfig 上传协议策略：各 purpose 的大小上限与 MIME 白名单.
type UploadConfig struct {
	// MaxBytes 全局兜底大小上限.
	MaxBytes int64 `mapstructure:"max_bytes" rule:"min=1"`
	// AllowedMimeTypes 全局 MIME 白名单，空表示不限制.
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
	// Purposes 按用途覆盖策略，key 为 purpose 名称.
	Purposes map[string]PurposePolicy `mapstructure:"purposes"`
}

// MaxBytesFor 返回指定 purpose 的大小上限.
func (c *UploadConfig) MaxBytesFor(purpose string) int64 {
	if p, ok := c.Purposes[purpose]; ok && p.MaxBytes > 0 {
		return p.MaxBytes
	}

	if c.MaxBytes > 0 {
		return c.MaxBytes
	}

	return DefaultMaxUploadBytes
}

// MimeAllowed 判断 mimeType 是否在指定 purpose 的白名单内.
// 白名单为空时放行所有类型；"image/*" 形式按前缀匹配.
func (c *UploadConfig) MimeAllowed(purpose, mimeType string) bool {
	list := c.AllowedMimeTypes
	if p, ok := c.Purposes[purpose]; ok && len(p.AllowedMimeTypes) > 0 {
		list = p.AllowedMimeTypes
	}

	if len(list) == 0 {
		return true
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, allowed := range list {
		allowed = strings.ToLower(allowed)
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok {
			if strings.HasPrefix(mimeType, prefix+"/") {
				return true
			}

			continue
		}

		if mimeType == allowed {
			return true
		}
	}

	return false
}

// KnownPurpose 判断 purpose 是否已配置；未配置任何 purpose 时放行所有.
func (c *UploadConfig) KnownPurpose(purpose string) bool {
	if len(c.Purposes) == 0 {
		return true
	}

	_, ok := c.Purposes[purpose]

	return ok
}

// setDefaults 设置上传策略的默认值.
func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_bytes", int64(DefaultMaxUploadBytes))
	v.SetDefault("upload.allowed_mime_types", []string{})
	v.SetDefault("upload.purposes", map[string]any{})
}
