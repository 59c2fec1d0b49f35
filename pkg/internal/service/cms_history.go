package service

import (
	"context"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/rule"
)

// ListRevisions 按新到旧分页列出历史快照.
// 软删的快照默认不出现在列表中；include_deleted 时以占位形式返回（不带快照体）.
func (s *CmsService) ListRevisions(ctx context.Context, actor types.Actor, itemUID string, req *types.ListRevisionsRequest) (*types.ListRevisionsResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid list request")
	}

	cur, err := s.loadItem(ctx, itemUID)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to read history of item %s", itemUID)
	}

	page, size := req.Normalize()

	rows, total, err := s.items.ListRevisions(ctx, itemUID, req.IncludeDeleted, page, size)
	if err != nil {
		return nil, errs.Internal("revision_list", err, "list revisions of item %s", itemUID)
	}

	resp := &types.ListRevisionsResponse{
		Total:     total,
		Page:      page,
		Size:      size,
		Revisions: make([]types.RevisionInfo, 0, len(rows)),
	}
	for i := range rows {
		resp.Revisions = append(resp.Revisions, toRevisionInfo(&rows[i]))
	}

	return resp, nil
}

// RestoreRevision 把历史快照中的内容体恢复为当前内容.
//
// 恢复是一次普通写入：版本继续递增，被替换的当前状态照常落快照，
// 因此恢复本身也可以被恢复.slug 等定位字段不随快照回滚，避免唯一性冲突.
func (s *CmsService) RestoreRevision(ctx context.Context, actor types.Actor, itemUID string, req *types.RestoreRevisionRequest) (*types.ItemInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid restore request")
	}

	cur, err := s.loadItem(ctx, itemUID)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to restore item %s", itemUID)
	}

	if cur.Status == model.CmsStatusTrash {
		return nil, errs.Conflict("item_trashed", "item %s is in trash, restore it first", itemUID)
	}

	rev, err := s.items.GetRevision(ctx, itemUID, req.RevisionID)
	if err != nil {
		return nil, errs.Internal("revision_lookup", err, "load revision %d", req.RevisionID)
	}

	if rev == nil {
		return nil, errs.NotFound("revision_not_found", "revision %d of item %s not found", req.RevisionID, itemUID)
	}

	if rev.Deleted {
		return nil, errs.Conflict("revision_deleted", "revision %d has been redacted and cannot be restored", req.RevisionID)
	}

	var snap model.CmsItem
	if err := sonic.Unmarshal([]byte(rev.SnapshotJSON), &snap); err != nil {
		return nil, errs.Internal("snapshot_decode", err, "decode revision %d", req.RevisionID)
	}

	next, err := s.writeItem(ctx, actor, cur, req.IfMatch, func(next *model.CmsItem) {
		next.ContentJSON = snap.ContentJSON
		next.ContentType = snap.ContentType
	})
	if err != nil {
		return nil, err
	}

	s.fireCmsEvent(ctx, queue.TopicCmsRestored, actor, next)

	info := toItemInfo(next, true)

	return &info, nil
}

// RedactRevision 软删历史快照（仅管理员）：快照保留占位但不可再恢复.
func (s *CmsService) RedactRevision(ctx context.Context, actor types.Actor, itemUID string, revisionID uint) error {
	if !actor.IsAdmin {
		return errs.Authorization("admin_only", "redacting history requires admin")
	}

	rev, err := s.items.GetRevision(ctx, itemUID, revisionID)
	if err != nil {
		return errs.Internal("revision_lookup", err, "load revision %d", revisionID)
	}

	if rev == nil {
		return errs.NotFound("revision_not_found", "revision %d of item %s not found", revisionID, itemUID)
	}

	if rev.Deleted {
		return nil
	}

	rev.Deleted = true

	if err := s.items.UpdateRevision(ctx, rev); err != nil {
		return errs.Internal("revision_update", err, "redact revision %d", revisionID)
	}

	return nil
}

// PurgeRevision 硬删历史快照（仅管理员）.
func (s *CmsService) PurgeRevision(ctx context.Context, actor types.Actor, itemUID string, revisionID uint) error {
	if !actor.IsAdmin {
		return errs.Authorization("admin_only", "purging history requires admin")
	}

	rev, err := s.items.GetRevision(ctx, itemUID, revisionID)
	if err != nil {
		return errs.Internal("revision_lookup", err, "load revision %d", revisionID)
	}

	if rev == nil {
		return errs.NotFound("revision_not_found", "revision %d of item %s not found", revisionID, itemUID)
	}

	if err := s.items.DeleteRevision(ctx, itemUID, revisionID); err != nil {
		return errs.Internal("revision_delete", err, "purge revision %d", revisionID)
	}

	return nil
}

// toRevisionInfo 历史快照行转视图；软删的快照不携带快照体.
func toRevisionInfo(row *model.CmsRevision) types.RevisionInfo {
	info := types.RevisionInfo{
		ID:            row.ID,
		ItemUID:       row.ItemUID,
		VersionNumber: row.VersionNumber,
		Status:        row.Status,
		Deleted:       row.Deleted,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt,
	}

	if !row.Deleted && row.SnapshotJSON != "" {
		var snap any
		if err := sonic.Unmarshal([]byte(row.SnapshotJSON), &snap); err == nil {
			info.Snapshot = snap
		}
	}

	return info
}
