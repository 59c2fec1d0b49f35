package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultLockTTLMinutes = 15 // 编辑锁 TTL（分钟），过期后允许他人抢占
	DefaultMaxRevisions   = 0  // 每条内容保留的历史快照上限，0 表示不限制
)

// CMSConfig CMS 内容核心配置.
type CMSConfig struct {
	// LockTTLMinutes 编辑锁 TTL（分钟）；锁过期采用惰性检查，无后台清理.
	LockTTLMinutes int `mapstructure:"lock_ttl_minutes" rule:"min=1,max=1440"`
	// MaxRevisions 单条内容保留的历史快照上限，0 表示不限制.
	// 超限时裁剪最老的快照（硬删）.
	MaxRevisions int `mapstructure:"max_revisions" rule:"min=0"`
}

// LockTTL 编辑锁 TTL.
func (c *CMSConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMinutes) * time.Minute
}

// setDefaults 设置 CMS 配置的默认值.
func (c *CMSConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cms.lock_ttl_minutes", DefaultLockTTLMinutes)
	v.SetDefault("cms.max_revisions", DefaultMaxRevisions)
}
