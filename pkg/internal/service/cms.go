package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	mlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/queue"
)

// CmsService 内容管理服务：版本化内容、历史快照、协作锁与公共读取.
type CmsService struct {
	items connector.CmsStore
	hooks *HookRunner
	cfg   *configs.AppConfig
}

// NewCmsService 创建内容管理服务，从 context 中获取存储管理器.
func NewCmsService(c context.Context) *CmsService {
	mgr := ctxPkg.GetManager(c)
	if mgr == nil {
		mlog.Logger().Fatal().Msg("storage manager not initialized")
	}

	return &CmsService{
		items: connector.NewGorm(mgr.GetDBClient().DB).Cms(),
		hooks: Hooks(),
		cfg:   configs.GetConfig(),
	}
}

// loadItem 按 uid 加载内容行.
func (s *CmsService) loadItem(ctx context.Context, uid string) (*model.CmsItem, error) {
	row, err := s.items.GetItem(ctx, uid)
	if err != nil {
		return nil, errs.Internal("item_lookup", err, "load item %s", uid)
	}

	if row == nil {
		return nil, errs.NotFound("item_not_found", "item %s not found", uid)
	}

	return row, nil
}

// canEditItem 内容写权限：创建者、协作者或管理员.
func (s *CmsService) canEditItem(ctx context.Context, actor types.Actor, item *model.CmsItem) bool {
	if actor.IsAdmin {
		return true
	}

	if actor.UserUID == "" {
		return false
	}

	if item.CreatedBy == actor.UserUID {
		return true
	}

	collabs, err := s.items.ListCollaborators(ctx, item.UID)
	if err != nil {
		return false
	}

	for i := range collabs {
		if collabs[i].UserUID == actor.UserUID {
			return true
		}
	}

	return false
}

// activeLock 返回当前生效的锁持有者；锁按 TTL 惰性过期，无后台清理.
func (s *CmsService) activeLock(item *model.CmsItem) (holder string, locked bool) {
	if item.LockedBy == "" || item.LockedAt == nil {
		return "", false
	}

	if time.Now().After(item.LockedAt.Add(s.cfg.CMS.LockTTL())) {
		return "", false
	}

	return item.LockedBy, true
}

// writeItem 内容写入的公共路径：If-Match 前置校验、锁检查、mutate、
// 递增版本并重算 etag、CAS 写入，成功后把写入前的行落为历史快照.
func (s *CmsService) writeItem(ctx context.Context, actor types.Actor, cur *model.CmsItem, ifMatch string, mutate func(next *model.CmsItem)) (*model.CmsItem, error) {
	if ifMatch == "" {
		return nil, errs.PreconditionRequired("if_match_required", "If-Match is required for content writes")
	}

	if ifMatch != cur.ETag {
		return nil, errs.PreconditionFailed("etag_mismatch", "item %s etag does not match", cur.UID)
	}

	if holder, locked := s.activeLock(cur); locked && holder != actor.UserUID {
		return nil, errs.Locked("item_locked", "item %s is locked by %s", cur.UID, holder)
	}

	next := *cur
	mutate(&next)
	next.VersionNumber++
	next.UpdatedBy = actor.UserUID
	next.ETag = itemETag(&next)

	ok, err := s.items.UpdateItemCAS(ctx, &next, cur.ETag)
	if err != nil {
		return nil, errs.Internal("item_update", err, "update item %s", cur.UID)
	}

	if !ok {
		return nil, errs.PreconditionFailed("etag_conflict", "item %s was modified concurrently", cur.UID)
	}

	s.snapshot(ctx, actor, cur)

	return &next, nil
}

// snapshot 把"被离开的状态"追加为历史快照；快照失败不回滚写入，只记日志.
func (s *CmsService) snapshot(ctx context.Context, actor types.Actor, prev *model.CmsItem) {
	data, err := sonic.Marshal(prev)
	if err != nil {
		mlog.Logger().Error().Err(err).Str("item_uid", prev.UID).Msg("marshal revision snapshot failed")
		return
	}

	rev := &model.CmsRevision{
		ItemUID:       prev.UID,
		VersionNumber: prev.VersionNumber,
		SnapshotJSON:  string(data),
		Status:        prev.Status,
		CreatedBy:     actor.UserUID,
	}

	if err := s.items.AppendRevision(ctx, rev); err != nil {
		mlog.Logger().Error().Err(err).Str("item_uid", prev.UID).Msg("append revision failed")
		return
	}

	s.trimRevisions(ctx, prev.UID)
}

// trimRevisions 历史快照超出上限时硬删最老的部分；上限为 0 表示不裁剪.
func (s *CmsService) trimRevisions(ctx context.Context, itemUID string) {
	limit := s.cfg.CMS.MaxRevisions
	if limit <= 0 {
		return
	}

	// 列表按新到旧排序，第 2 页起即为溢出部分；删完一页后重查直到为空
	for {
		overflow, _, err := s.items.ListRevisions(ctx, itemUID, true, 2, limit)
		if err != nil || len(overflow) == 0 {
			return
		}

		for i := range overflow {
			if derr := s.items.DeleteRevision(ctx, itemUID, overflow[i].ID); derr != nil {
				mlog.Logger().Warn().Err(derr).
					Str("item_uid", itemUID).
					Uint("revision_id", overflow[i].ID).
					Msg("trim revision failed")

				return
			}
		}
	}
}

// fireCmsEvent 发布内容生命周期事件.
func (s *CmsService) fireCmsEvent(ctx context.Context, topic string, actor types.Actor, row *model.CmsItem) {
	s.hooks.Fire(ctx, AfterWriteEvent{
		Topic:    topic,
		Resource: row.UID,
		Payload: queue.CmsEventPayload{
			Item: queue.CmsRef{
				UID:           row.UID,
				Slug:          row.Slug,
				PostType:      row.PostType,
				Locale:        row.Locale,
				Status:        row.Status,
				ETag:          row.ETag,
				VersionNumber: row.VersionNumber,
			},
			Actor: actor.UserUID,
		},
	})
}
