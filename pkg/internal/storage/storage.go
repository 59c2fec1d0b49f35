// Package storage 聚合持久化资源：数据库、对象存储、KV 与消息队列.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	dbClient := mgr.GetDBClient()
//	adapter := mgr.GetObjectAdapter()
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/yeisme/mediavault/pkg/configs"
	dbc "github.com/yeisme/mediavault/pkg/internal/storage/db"
	kvc "github.com/yeisme/mediavault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/mediavault/pkg/internal/storage/mq"
	"github.com/yeisme/mediavault/pkg/internal/storage/object"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
	mlog "github.com/yeisme/mediavault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	S3 *s3c.Client
	DB *dbc.Client
	KV *kvc.Client
	MQ *mqc.Client

	// objects 按 location 索引的对象后端；primary 为配置选定的默认后端
	objects map[string]object.Adapter
	primary object.Adapter
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{objects: map[string]object.Adapter{}}

		// DB
		if dbi, e := dbc.New(ctx); e != nil {
			err = e
			return
		} else {
			m.DB = dbi
		}

		// KV
		if kvi, e := kvc.NewKVClient(ctx, &cfg.KV); e != nil {
			err = e
			return
		} else {
			m.KV = kvi
		}

		// MQ
		if mqi, e := mqc.New(ctx); e != nil {
			err = e
			return
		} else {
			m.MQ = mqi
		}

		// 本地对象后端总是可用，代理上传与开发环境依赖它
		local, e := object.NewLocal(&cfg.Storage)
		if e != nil {
			err = e
			return
		}

		m.objects["local"] = local
		m.primary = local

		// S3 仅在被选为主后端时初始化，避免本地部署强依赖 MinIO
		if cfg.Storage.Provider == configs.StorageProviderS3 {
			s3i, e := s3c.New(ctx)
			if e != nil {
				err = e
				return
			}

			m.S3 = s3i
			m.objects["s3"] = object.NewS3(s3i, cfg.S3)
			m.primary = m.objects["s3"]
		}

		mgr = m

		mlog.Logger().Info().
			Str("object_backend", m.primary.Location()).
			Msg("storage manager initialized")
	})

	return mgr, err
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetObjectAdapter 获取默认对象后端.
func (m *Manager) GetObjectAdapter() object.Adapter {
	return m.primary
}

// ObjectAdapterFor 按 location 获取对象后端.
func (m *Manager) ObjectAdapterFor(location string) (object.Adapter, error) {
	if a, ok := m.objects[location]; ok {
		return a, nil
	}

	return nil, fmt.Errorf("object backend %q not configured", location)
}

// Close 释放所有存储资源.
func (m *Manager) Close() error {
	var err error

	if m.MQ != nil {
		if e := m.MQ.Close(); e != nil {
			err = e
		}
	}

	if m.KV != nil {
		if e := m.KV.Close(); e != nil {
			err = e
		}
	}

	if m.DB != nil {
		if sqlDB, e := m.DB.DB.DB(); e == nil {
			if e := sqlDB.Close(); e != nil {
				err = e
			}
		}
	}

	return err
}
