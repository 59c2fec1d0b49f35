package configs

import (
	"time"

	"github.com/spf13/viper"
)

// StorageProvider 对象存储后端类型.
type StorageProvider string

const (
	StorageProviderLocal StorageProvider = "local"
	StorageProviderS3    StorageProvider = "s3"
)

const (
	DefaultStorageProvider      = StorageProviderLocal // 默认使用本地文件系统
	DefaultLocalRoot            = "data/objects"       // 默认本地对象根目录
	DefaultSignedURLTTL         = 15                   // 默认签名 URL 有效期（分钟）
	DefaultSignedURLCacheTTL    = 10                   // 签名 URL 缓存有效期（分钟），必须小于 URL 有效期
	DefaultLocalPublicBase      = "/objects"           // 本地对象的公共读路径前缀
	DefaultPendingMaxAgeMinutes = 24 * 60              // pending 行允许存活的最长时间（分钟）
	DefaultJanitorInterval      = 60                   // janitor 扫描间隔（分钟）
)

// StorageConfig 选择对象存储后端并提供本地后端的参数.
// S3 后端的连接参数见 S3Config.
type StorageConfig struct {
	Provider StorageProvider `mapstructure:"provider" rule:"oneof=local s3"`
	// LocalRoot 本地文件系统对象根目录.
	LocalRoot string `mapstructure:"local_root"`
	// LocalPublicBase 本地对象公共读 URL 前缀（由外层网关/静态服务对外暴露）.
	LocalPublicBase string `mapstructure:"local_public_base"`
	// SignedURLTTLMinutes 签名 URL 有效期（分钟）.
	SignedURLTTLMinutes int `mapstructure:"signed_url_ttl_minutes" rule:"min=1,max=1440"`
	// SignedURLCacheTTLMinutes 签名 URL 读穿缓存的 TTL，必须严格小于 URL 有效期.
	SignedURLCacheTTLMinutes int `mapstructure:"signed_url_cache_ttl_minutes" rule:"min=0,max=1440"`
	// PendingMaxAgeMinutes janitor 回收 pending 行的年龄阈值（分钟）.
	PendingMaxAgeMinutes int `mapstructure:"pending_max_age_minutes" rule:"min=1"`
	// JanitorIntervalMinutes janitor 扫描间隔（分钟），0 表示禁用.
	JanitorIntervalMinutes int `mapstructure:"janitor_interval_minutes" rule:"min=0"`
}

// SignedURLTTL 签名 URL 有效期.
func (c *StorageConfig) SignedURLTTL() time.Duration {
	return time.Duration(c.SignedURLTTLMinutes) * time.Minute
}

// SignedURLCacheTTL 签名 URL 缓存有效期.
func (c *StorageConfig) SignedURLCacheTTL() time.Duration {
	return time.Duration(c.SignedURLCacheTTLMinutes) * time.Minute
}

// PendingMaxAge pending 行的回收年龄阈值.
func (c *StorageConfig) PendingMaxAge() time.Duration {
	return time.Duration(c.PendingMaxAgeMinutes) * time.Minute
}

// JanitorInterval janitor 扫描间隔.
func (c *StorageConfig) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalMinutes) * time.Minute
}

// setDefaults 设置存储后端配置的默认值.
func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.provider", string(DefaultStorageProvider))
	v.SetDefault("storage.local_root", DefaultLocalRoot)
	v.SetDefault("storage.local_public_base", DefaultLocalPublicBase)
	v.SetDefault("storage.signed_url_ttl_minutes", DefaultSignedURLTTL)
	v.SetDefault("storage.signed_url_cache_ttl_minutes", DefaultSignedURLCacheTTL)
	v.SetDefault("storage.pending_max_age_minutes", DefaultPendingMaxAgeMinutes)
	v.SetDefault("storage.janitor_interval_minutes", DefaultJanitorInterval)
}
