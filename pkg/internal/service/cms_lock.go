package service

import (
	"context"
	"time"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// LockItem 获取或续期协作软锁.
//
// 锁是 UI 层的编辑提示，按 TTL 惰性过期；他人持有未过期的锁时拒绝.
// 锁字段不参与 etag 计算，持锁不影响并发令牌.
func (s *CmsService) LockItem(ctx context.Context, actor types.Actor, uid string) (*types.LockInfo, error) {
	if actor.UserUID == "" {
		return nil, errs.New(errs.KindAuthentication, "authentication_required", "locking requires an authenticated user")
	}

	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to lock item %s", uid)
	}

	if cur.Status == model.CmsStatusTrash {
		return nil, errs.Conflict("item_trashed", "item %s is in trash", uid)
	}

	if holder, locked := s.activeLock(cur); locked && holder != actor.UserUID {
		return nil, errs.Locked("item_locked", "item %s is locked by %s", uid, holder)
	}

	now := time.Now().UTC()

	next := *cur
	next.LockedBy = actor.UserUID
	next.LockedAt = &now

	ok, err := s.items.UpdateItemCAS(ctx, &next, cur.ETag)
	if err != nil {
		return nil, errs.Internal("item_update", err, "lock item %s", uid)
	}

	if !ok {
		return nil, errs.Conflict("concurrent_update", "item %s changed while locking, retry", uid)
	}

	return s.lockInfo(&next), nil
}

// UnlockItem 释放协作软锁.
//
// 持有者可随时释放；抢占他人的锁需要 force 且仅管理员可用.
// 无锁或锁已过期时幂等返回.
func (s *CmsService) UnlockItem(ctx context.Context, actor types.Actor, uid string, req *types.UnlockRequest) (*types.LockInfo, error) {
	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to unlock item %s", uid)
	}

	holder, locked := s.activeLock(cur)
	if !locked && cur.LockedBy == "" {
		return s.lockInfo(cur), nil
	}

	if locked && holder != actor.UserUID {
		if !req.Force {
			return nil, errs.Locked("item_locked", "item %s is locked by %s, use force to take over", uid, holder)
		}

		if !actor.IsAdmin {
			return nil, errs.Authorization("force_requires_admin", "force unlock requires admin")
		}
	}

	next := *cur
	next.LockedBy = ""
	next.LockedAt = nil

	ok, err := s.items.UpdateItemCAS(ctx, &next, cur.ETag)
	if err != nil {
		return nil, errs.Internal("item_update", err, "unlock item %s", uid)
	}

	if !ok {
		return nil, errs.Conflict("concurrent_update", "item %s changed while unlocking, retry", uid)
	}

	return s.lockInfo(&next), nil
}

// GetLock 查询当前锁状态；过期的锁视同无锁.
func (s *CmsService) GetLock(ctx context.Context, actor types.Actor, uid string) (*types.LockInfo, error) {
	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to read lock of item %s", uid)
	}

	return s.lockInfo(cur), nil
}

// lockInfo 行转锁视图；过期锁归一为无锁.
func (s *CmsService) lockInfo(row *model.CmsItem) *types.LockInfo {
	info := &types.LockInfo{ItemUID: row.UID}

	holder, locked := s.activeLock(row)
	if !locked {
		return info
	}

	expiresAt := row.LockedAt.Add(s.cfg.CMS.LockTTL())

	info.LockedBy = holder
	info.LockedAt = row.LockedAt
	info.ExpiresAt = &expiresAt

	return info
}
