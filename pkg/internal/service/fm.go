package service

import (
	"context"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/storage/object"
	"github.com/yeisme/mediavault/pkg/internal/types"
	mlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/queue"
)

// ObjectResolver 解析对象存储后端；storage.Manager 满足该接口.
type ObjectResolver interface {
	// GetObjectAdapter 返回配置选定的默认后端，新上传落在这里.
	GetObjectAdapter() object.Adapter
	// ObjectAdapterFor 按元数据行的 storage_location 取后端.
	ObjectAdapterFor(location string) (object.Adapter, error)
}

// FmService 文件管理服务：两阶段上传、生命周期、衍生形态、引用与访问解析.
type FmService struct {
	files   connector.FileStore
	objects ObjectResolver
	cache   *cache.Cache
	hooks   *HookRunner
	cfg     *configs.AppConfig
}

// NewFmService 创建文件管理服务，从 context 中获取存储管理器.
func NewFmService(c context.Context) *FmService {
	mgr := ctxPkg.GetManager(c)
	if mgr == nil {
		mlog.Logger().Fatal().Msg("storage manager not initialized")
	}

	return &FmService{
		files:   connector.NewGorm(mgr.GetDBClient().DB).Files(),
		objects: mgr,
		cache:   cache.NewCache(mgr.GetKVClient().KVStore),
		hooks:   Hooks(),
		cfg:     configs.GetConfig(),
	}
}

// canManageFile 文件写权限：所有者或管理员；系统上传（无所有者）仅管理员可管.
func canManageFile(actor types.Actor, row *model.StoredObject) bool {
	if actor.IsAdmin {
		return true
	}

	return row.OwnerUserUID != "" && row.OwnerUserUID == actor.UserUID
}

// canReadFile 文件读权限：公开文件任何人可读元数据，私有文件同写权限.
func canReadFile(actor types.Actor, row *model.StoredObject) bool {
	if row.Visibility == model.VisibilityPublic {
		return true
	}

	return canManageFile(actor, row)
}

// loadFile 按 uid 加载存活的文件行；deleted 墓碑对外视同不存在.
func (s *FmService) loadFile(ctx context.Context, uid string) (*model.StoredObject, error) {
	row, err := s.files.GetFile(ctx, uid)
	if err != nil {
		return nil, errs.Internal("file_lookup", err, "load file %s", uid)
	}

	if row == nil || row.Status == model.FileStatusDeleted {
		return nil, errs.NotFound("file_not_found", "file %s not found", uid)
	}

	return row, nil
}

// casUpdateFile 以 prevETag 为期望值条件写入 next；并发冲突映射为 precondition_failed.
func (s *FmService) casUpdateFile(ctx context.Context, next *model.StoredObject, prevETag string) error {
	ok, err := s.files.UpdateFileCAS(ctx, next, prevETag)
	if err != nil {
		return errs.Internal("file_update", err, "update file %s", next.UID)
	}

	if !ok {
		return errs.PreconditionFailed("etag_conflict", "file %s was modified concurrently", next.UID)
	}

	return nil
}

// fireFileEvent 发布文件生命周期事件.
func (s *FmService) fireFileEvent(ctx context.Context, topic string, actor types.Actor, row *model.StoredObject, prevLocation string) {
	s.hooks.Fire(ctx, AfterWriteEvent{
		Topic:    topic,
		Resource: row.UID,
		Payload: queue.FileEventPayload{
			File:         fileRef(row),
			Actor:        actor.UserUID,
			PrevLocation: prevLocation,
		},
	})
}

// fileRef 行转事件引用.
func fileRef(row *model.StoredObject) queue.FileRef {
	return queue.FileRef{
		UID:             row.UID,
		ObjectKey:       row.ObjectKey,
		StorageLocation: row.StorageLocation,
		MimeType:        row.MimeType,
		ByteSize:        row.ByteSize,
		ETag:            row.ETag,
		Version:         row.Version,
		Status:          row.Status,
	}
}
