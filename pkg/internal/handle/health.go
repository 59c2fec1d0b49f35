// Package handle 新增健康检查处理器实现.
package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/mediavault/pkg/context"
)

const timeout = 2 * time.Second

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil { // dbc.DB 来自于嵌入的 *gorm.DB
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "db", "status": "unhealthy", "error": "db client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	sqlDB, err := dbc.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "db", "status": "unhealthy", "error": err.Error()})
		return
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "db", "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthObject 对象存储健康检查；S3 主后端时额外探测 MinIO 连通性.
func HealthObject(c *gin.Context) {
	mgr := ctxPkg.GetManager(c.Request.Context())
	if mgr == nil || mgr.GetObjectAdapter() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "object", "status": "unhealthy", "error": "object backend not initialized"})
		return
	}

	if s3c := mgr.GetS3Client(); s3c != nil && s3c.Client != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if _, err := s3c.ListBuckets(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"component": "object", "status": "unhealthy", "error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"component": "object", "status": "ok", "backend": mgr.GetObjectAdapter().Location()})
}

// HealthKV KV 健康检查：写读删一个探针键.
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "kv", "status": "unhealthy", "error": "kv client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	const probe = "health:probe"

	if err := kvc.Set(ctx, probe, []byte("ok"), timeout); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "kv", "status": "unhealthy", "error": err.Error()})
		return
	}

	if _, err := kvc.Get(ctx, probe); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "kv", "status": "unhealthy", "error": err.Error()})
		return
	}

	_ = kvc.Delete(ctx, probe)

	c.JSON(http.StatusOK, gin.H{"component": "kv", "status": "ok"})
}

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil { // publisher 与 subscriber 初始化在 New 中, 判空即可
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": "mq", "status": "unhealthy", "error": "mq client not initialized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok"})
}
