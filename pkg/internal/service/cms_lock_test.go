package service

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

func TestLockBlocksOtherEditors(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}
	editor := types.Actor{UserUID: "bob"}
	admin := types.Actor{UserUID: "root", IsAdmin: true}

	item := mustCreateItem(t, s, author, "contested")

	if _, err := s.ReplaceCollaborators(ctx, author, item.UID, &types.ReplaceCollaboratorsRequest{
		Collaborators: []types.CollaboratorInfo{{UserUID: "bob", Role: "editor"}},
	}); err != nil {
		t.Fatalf("ReplaceCollaborators: %v", err)
	}

	lock, err := s.LockItem(ctx, author, item.UID)
	if err != nil {
		t.Fatalf("LockItem: %v", err)
	}

	if lock.LockedBy != "alice" || lock.ExpiresAt == nil {
		t.Fatalf("unexpected lock view: %+v", lock)
	}

	// 持锁不轮换 etag，持有者仍可用原 etag 写入
	if _, err := s.UpdateItem(ctx, author, item.UID, &types.UpdateItemRequest{
		IfMatch: item.ETag,
		Content: map[string]any{"by": "alice"},
	}); err != nil {
		t.Fatalf("holder edit under lock: %v", err)
	}

	cur, err := s.GetItem(ctx, author, item.UID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}

	// 他人写入被锁拦下
	_, err = s.UpdateItem(ctx, editor, item.UID, &types.UpdateItemRequest{
		IfMatch: cur.ETag,
		Content: map[string]any{"by": "bob"},
	})
	wantKind(t, err, errs.KindLocked)

	// 他人非 force 解锁被拒，force 需要管理员
	_, err = s.UnlockItem(ctx, editor, item.UID, &types.UnlockRequest{})
	wantKind(t, err, errs.KindLocked)

	_, err = s.UnlockItem(ctx, editor, item.UID, &types.UnlockRequest{Force: true})
	wantKind(t, err, errs.KindAuthorization)

	unlocked, err := s.UnlockItem(ctx, admin, item.UID, &types.UnlockRequest{Force: true})
	if err != nil {
		t.Fatalf("force unlock: %v", err)
	}

	if unlocked.LockedBy != "" {
		t.Fatalf("lock must be released: %+v", unlocked)
	}

	if _, err := s.UpdateItem(ctx, editor, item.UID, &types.UpdateItemRequest{
		IfMatch: cur.ETag,
		Content: map[string]any{"by": "bob"},
	}); err != nil {
		t.Fatalf("edit after force unlock: %v", err)
	}
}

func TestLockExpiresLazily(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}
	editor := types.Actor{UserUID: "bob"}

	item := mustCreateItem(t, s, author, "expiring")

	if _, err := s.ReplaceCollaborators(ctx, author, item.UID, &types.ReplaceCollaboratorsRequest{
		Collaborators: []types.CollaboratorInfo{{UserUID: "bob", Role: "editor"}},
	}); err != nil {
		t.Fatalf("ReplaceCollaborators: %v", err)
	}

	if _, err := s.LockItem(ctx, author, item.UID); err != nil {
		t.Fatalf("LockItem: %v", err)
	}

	// 把锁的获取时间拨回 TTL 之前，模拟过期
	row, err := s.items.GetItem(ctx, item.UID)
	if err != nil || row == nil {
		t.Fatalf("GetItem: %v", err)
	}

	stale := time.Now().Add(-s.cfg.CMS.LockTTL() - time.Minute)
	row.LockedAt = &stale

	if ok, uerr := s.items.UpdateItemCAS(ctx, row, row.ETag); uerr != nil || !ok {
		t.Fatalf("backdate lock: ok=%v err=%v", ok, uerr)
	}

	// 过期锁视同无锁：查询归一、他人可直接抢占
	info, err := s.GetLock(ctx, editor, item.UID)
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}

	if info.LockedBy != "" {
		t.Fatalf("expired lock must read as unlocked: %+v", info)
	}

	taken, err := s.LockItem(ctx, editor, item.UID)
	if err != nil {
		t.Fatalf("take over expired lock: %v", err)
	}

	if taken.LockedBy != "bob" {
		t.Fatalf("unexpected holder: %+v", taken)
	}
}
