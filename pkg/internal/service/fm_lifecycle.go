package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	mlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/rule"
)

// ArchiveFile 归档（软删）：active → archived，对象字节保留.
// 已归档的行幂等返回.
func (s *FmService) ArchiveFile(ctx context.Context, actor types.Actor, uid, ifMatch string) (*types.FileInfo, error) {
	if ifMatch == "" {
		return nil, errs.PreconditionRequired("if_match_required", "If-Match is required to archive")
	}

	row, err := s.loadFile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to archive file %s", uid)
	}

	if row.Status == model.FileStatusArchived {
		info := toFileInfo(row)
		return &info, nil
	}

	if row.Status != model.FileStatusActive {
		return nil, errs.Conflict("not_active", "file %s is %s, cannot archive", uid, row.Status)
	}

	if ifMatch != row.ETag {
		return nil, errs.PreconditionFailed("etag_mismatch", "file %s etag does not match", uid)
	}

	next, err := s.archiveRow(ctx, row)
	if err != nil {
		return nil, err
	}

	s.fireFileEvent(ctx, queue.TopicFileArchived, actor, next, "")

	info := toFileInfo(next)

	return &info, nil
}

// archiveRow 执行 active → archived 的 CAS 转移.
func (s *FmService) archiveRow(ctx context.Context, row *model.StoredObject) (*model.StoredObject, error) {
	now := time.Now().UTC()

	next := *row
	next.Status = model.FileStatusArchived
	next.ArchivedAt = &now
	next.Version++
	next.ETag = fileETag(&next)

	if err := s.casUpdateFile(ctx, &next, row.ETag); err != nil {
		return nil, err
	}

	return &next, nil
}

// RestoreFile 从归档恢复：archived → active.已 active 的行幂等返回.
func (s *FmService) RestoreFile(ctx context.Context, actor types.Actor, uid, ifMatch string) (*types.FileInfo, error) {
	if ifMatch == "" {
		return nil, errs.PreconditionRequired("if_match_required", "If-Match is required to restore")
	}

	row, err := s.loadFile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to restore file %s", uid)
	}

	if row.Status == model.FileStatusActive {
		info := toFileInfo(row)
		return &info, nil
	}

	if row.Status != model.FileStatusArchived {
		return nil, errs.Conflict("not_archived", "file %s is %s, cannot restore", uid, row.Status)
	}

	if ifMatch != row.ETag {
		return nil, errs.PreconditionFailed("etag_mismatch", "file %s etag does not match", uid)
	}

	next := *row
	next.Status = model.FileStatusActive
	next.ArchivedAt = nil
	next.Version++
	next.ETag = fileETag(&next)

	if err := s.casUpdateFile(ctx, &next, row.ETag); err != nil {
		return nil, err
	}

	s.fireFileEvent(ctx, queue.TopicFileRestored, actor, &next, "")

	info := toFileInfo(&next)

	return &info, nil
}

// DeleteFile 删除文件.
//
// 规则：
//   - pending 行直接取消上传（清残留对象并移除行）
//   - 仍被外部实体引用的文件降级为归档，不执行删除
//   - active 行必须先归档；force（仅管理员）绕过归档与引用保护
//   - 物理删除清除原件与全部衍生形态的字节，元数据行保留为 deleted 墓碑
func (s *FmService) DeleteFile(ctx context.Context, actor types.Actor, uid string, req *types.DeleteFileRequest) (*types.FileInfo, error) {
	if req.IfMatch == "" {
		return nil, errs.PreconditionRequired("if_match_required", "If-Match is required to delete")
	}

	row, err := s.loadFile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to delete file %s", uid)
	}

	if req.Force && !actor.IsAdmin {
		return nil, errs.Authorization("force_requires_admin", "force delete requires admin")
	}

	if req.IfMatch != row.ETag {
		return nil, errs.PreconditionFailed("etag_mismatch", "file %s etag does not match", uid)
	}

	// 取消未完成的上传
	if row.Status == model.FileStatusPending {
		return s.cancelPending(ctx, actor, row)
	}

	if !req.Force {
		links, cerr := s.files.CountLinks(ctx, uid)
		if cerr != nil {
			return nil, errs.Internal("link_count", cerr, "count links of file %s", uid)
		}

		// 引用保护：降级为归档
		if links > 0 {
			if row.Status == model.FileStatusArchived {
				return nil, errs.Conflict("file_referenced", "file %s is referenced by %d entities", uid, links)
			}

			next, aerr := s.archiveRow(ctx, row)
			if aerr != nil {
				return nil, aerr
			}

			s.fireFileEvent(ctx, queue.TopicFileArchived, actor, next, "")

			info := toFileInfo(next)

			return &info, nil
		}

		if row.Status != model.FileStatusArchived {
			return nil, errs.Conflict("not_archived", "active file must be archived before delete")
		}
	}

	return s.purgeFile(ctx, actor, row)
}

// cancelPending 取消 pending 上传：清残留对象并硬删行.
func (s *FmService) cancelPending(ctx context.Context, actor types.Actor, row *model.StoredObject) (*types.FileInfo, error) {
	if adapter, err := s.objects.ObjectAdapterFor(row.StorageLocation); err == nil {
		if derr := adapter.Delete(ctx, row.ObjectKey); derr != nil {
			mlog.Logger().Warn().Err(derr).Str("file_uid", row.UID).Msg("cancel upload: delete object failed")
		}
	}

	if err := s.files.DeleteFile(ctx, row.UID); err != nil {
		return nil, errs.Internal("file_delete", err, "delete pending file %s", row.UID)
	}

	info := toFileInfo(row)
	info.Status = model.FileStatusDeleted

	return &info, nil
}

// purgeFile 物理删除：并发清除衍生形态与原件的对象字节，
// 成功后移除引用行并把元数据行转为 deleted 墓碑.
func (s *FmService) purgeFile(ctx context.Context, actor types.Actor, row *model.StoredObject) (*types.FileInfo, error) {
	variants, err := s.files.ListVariants(ctx, row.UID)
	if err != nil {
		return nil, errs.Internal("variant_list", err, "list variants of file %s", row.UID)
	}

	g, gctx := errgroup.WithContext(ctx)

	for i := range variants {
		v := &variants[i]

		g.Go(func() error {
			adapter, aerr := s.objects.ObjectAdapterFor(v.StorageLocation)
			if aerr != nil {
				return aerr
			}

			if derr := adapter.Delete(gctx, v.ObjectKey); derr != nil {
				return derr
			}

			return s.files.DeleteVariant(gctx, v.UID)
		})
	}

	g.Go(func() error {
		adapter, aerr := s.objects.ObjectAdapterFor(row.StorageLocation)
		if aerr != nil {
			return aerr
		}

		return adapter.Delete(gctx, row.ObjectKey)
	})

	if err := g.Wait(); err != nil {
		return nil, errs.Storage("purge_failed", err, "purge objects of file %s", row.UID)
	}

	links, err := s.files.ListLinks(ctx, row.UID)
	if err == nil {
		for i := range links {
			if derr := s.files.DeleteLink(ctx, links[i].ID); derr != nil {
				mlog.Logger().Warn().Err(derr).Uint("link_id", links[i].ID).Msg("purge: delete link failed")
			}
		}
	}

	next := *row
	next.Status = model.FileStatusDeleted
	next.Version++
	next.ETag = fileETag(&next)

	if err := s.casUpdateFile(ctx, &next, row.ETag); err != nil {
		return nil, err
	}

	s.fireFileEvent(ctx, queue.TopicFileDeleted, actor, &next, "")

	info := toFileInfo(&next)

	return &info, nil
}

// MoveFile 在存储后端之间迁移字节（仅管理员）.
// 复制成功并通过 CAS 改写 storage_location 后，尽力清理源后端的旧对象.
func (s *FmService) MoveFile(ctx context.Context, actor types.Actor, uid string, req *types.MoveFileRequest) (*types.FileInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid move request")
	}

	if req.IfMatch == "" {
		return nil, errs.PreconditionRequired("if_match_required", "If-Match is required to move")
	}

	if !actor.IsAdmin {
		return nil, errs.Authorization("admin_only", "moving files between backends requires admin")
	}

	row, err := s.loadFile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if row.Status != model.FileStatusActive {
		return nil, errs.Conflict("not_active", "file %s is %s, cannot move", uid, row.Status)
	}

	if req.IfMatch != row.ETag {
		return nil, errs.PreconditionFailed("etag_mismatch", "file %s etag does not match", uid)
	}

	if req.TargetLocation == row.StorageLocation {
		info := toFileInfo(row)
		return &info, nil
	}

	src, err := s.objects.ObjectAdapterFor(row.StorageLocation)
	if err != nil {
		return nil, errs.Internal("backend_lookup", err, "resolve backend %s", row.StorageLocation)
	}

	dst, err := s.objects.ObjectAdapterFor(req.TargetLocation)
	if err != nil {
		return nil, errs.Validation("backend_unavailable", "target backend %q is not configured", req.TargetLocation)
	}

	rc, err := src.Open(ctx, row.ObjectKey)
	if err != nil {
		return nil, errs.Storage("open_failed", err, "open object %s", row.ObjectKey)
	}
	defer func() { _ = rc.Close() }()

	written, err := dst.PutProxied(ctx, row.ObjectKey, rc, row.ByteSize, row.MimeType)
	if err != nil {
		return nil, errs.Storage("copy_failed", err, "copy object %s to %s", row.ObjectKey, req.TargetLocation)
	}

	if written != row.ByteSize {
		_ = dst.Delete(ctx, row.ObjectKey)

		return nil, errs.Storage("copy_truncated", nil, "copied %d of %d bytes", written, row.ByteSize)
	}

	prevLocation := row.StorageLocation

	next := *row
	next.StorageLocation = req.TargetLocation
	next.Version++
	next.ETag = fileETag(&next)

	if err := s.casUpdateFile(ctx, &next, row.ETag); err != nil {
		// 元数据未切换，回收目标后端的副本
		_ = dst.Delete(ctx, row.ObjectKey)

		return nil, err
	}

	if derr := src.Delete(ctx, row.ObjectKey); derr != nil {
		mlog.Logger().Warn().Err(derr).
			Str("file_uid", uid).
			Str("location", prevLocation).
			Msg("move: delete source object failed, orphan left behind")
	}

	s.fireFileEvent(ctx, queue.TopicFileMoved, actor, &next, prevLocation)

	info := toFileInfo(&next)

	return &info, nil
}
