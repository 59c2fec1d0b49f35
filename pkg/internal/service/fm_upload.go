package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/storage/object"
	"github.com/yeisme/mediavault/pkg/internal/types"
	mlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/rule"
)

// UploadInit 发起两阶段上传：校验 purpose 策略后写入 pending 行.
// 后端支持预签名时返回 direct 模式与直传 PUT，否则回退 proxy 模式.
func (s *FmService) UploadInit(ctx context.Context, actor types.Actor, req *types.UploadInitRequest) (*types.UploadInitResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid upload init request")
	}

	if err := s.checkUploadPolicy(req.Purpose, req.MimeType, req.SizeBytes); err != nil {
		return nil, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}

	tagsJSON, err := encodeTags(req.Tags)
	if err != nil {
		return nil, errs.Internal("encode_tags", err, "encode tags")
	}

	adapter := s.objects.GetObjectAdapter()
	uid := newUID()

	row := &model.StoredObject{
		UID:              uid,
		OwnerUserUID:     actor.UserUID,
		ObjectKey:        buildObjectKey(actor.UserUID, uid, req.Filename),
		OriginalFilename: path.Base(strings.ReplaceAll(req.Filename, "\\", "/")),
		MimeType:         req.MimeType,
		ByteSize:         req.SizeBytes,
		StorageLocation:  adapter.Location(),
		Purpose:          req.Purpose,
		Visibility:       visibility,
		TagsJSON:         tagsJSON,
		Status:           model.FileStatusPending,
		Version:          1,
	}
	row.ETag = fileETag(row)

	if err := s.files.CreateFile(ctx, row); err != nil {
		return nil, errs.Internal("file_create", err, "create pending file")
	}

	resp := &types.UploadInitResponse{
		FileUID:   uid,
		Mode:      types.UploadModeProxy,
		ObjectKey: row.ObjectKey,
	}

	put, err := adapter.PresignPut(ctx, row.ObjectKey, req.MimeType, req.SizeBytes, s.cfg.Storage.SignedURLTTL())
	if err != nil {
		// 预签名失败不中断发起，回退代理上传
		mlog.Logger().Warn().Err(err).Str("file_uid", uid).Msg("presign put failed, falling back to proxy upload")
	} else if put != nil {
		resp.Mode = types.UploadModeDirect
		resp.PresignedPut = &types.PresignedPut{
			URL:       put.URL,
			Headers:   put.Headers,
			ExpiresIn: int(put.Expiry.Seconds()),
		}
	}

	return resp, nil
}

// UploadFinalize 完成 direct 模式上传：核对物理对象后将行转入 active.
// 对已 active 的行幂等返回.
func (s *FmService) UploadFinalize(ctx context.Context, actor types.Actor, req *types.UploadFinalizeRequest) (*types.FileInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid finalize request")
	}

	row, err := s.loadFile(ctx, req.FileUID)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to finalize file %s", req.FileUID)
	}

	if row.Status == model.FileStatusActive {
		info := toFileInfo(row)
		return &info, nil
	}

	if row.Status != model.FileStatusPending {
		return nil, errs.Conflict("not_pending", "file %s is %s, cannot finalize", req.FileUID, row.Status)
	}

	return s.activateFile(ctx, actor, row)
}

// UploadProxied 代理上传：字节流经服务端写入存储后端并直接 finalize.
func (s *FmService) UploadProxied(ctx context.Context, actor types.Actor, fileUID string, r io.Reader) (*types.FileInfo, error) {
	row, err := s.loadFile(ctx, fileUID)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to upload file %s", fileUID)
	}

	if row.Status != model.FileStatusPending {
		return nil, errs.Conflict("not_pending", "file %s is %s, cannot upload", fileUID, row.Status)
	}

	adapter, err := s.objects.ObjectAdapterFor(row.StorageLocation)
	if err != nil {
		return nil, errs.Internal("backend_lookup", err, "resolve backend %s", row.StorageLocation)
	}

	// 超出声明大小的流在声明值+1处截断，多出的一字节足以暴露不符
	written, err := adapter.PutProxied(ctx, row.ObjectKey, io.LimitReader(r, row.ByteSize+1), row.ByteSize, row.MimeType)
	if err != nil {
		return nil, errs.Storage("put_failed", err, "write object %s", row.ObjectKey)
	}

	if written != row.ByteSize {
		// 字节数与声明不符：清掉残留对象，行保持 pending 等待重传
		_ = adapter.Delete(ctx, row.ObjectKey)

		return nil, errs.Validation("size_mismatch", "declared %d bytes, received %d", row.ByteSize, written)
	}

	return s.activateFile(ctx, actor, row)
}

// activateFile 核对物理对象并将 pending 行转入 active；任何不符都保持 pending.
func (s *FmService) activateFile(ctx context.Context, actor types.Actor, row *model.StoredObject) (*types.FileInfo, error) {
	adapter, err := s.objects.ObjectAdapterFor(row.StorageLocation)
	if err != nil {
		return nil, errs.Internal("backend_lookup", err, "resolve backend %s", row.StorageLocation)
	}

	st, err := adapter.Stat(ctx, row.ObjectKey)
	if errors.Is(err, object.ErrNotExist) {
		return nil, errs.Validation("object_missing", "no bytes stored at %s, upload not completed", row.ObjectKey)
	}

	if err != nil {
		return nil, errs.Storage("stat_failed", err, "stat object %s", row.ObjectKey)
	}

	if st.Size != row.ByteSize {
		return nil, errs.Validation("size_mismatch", "declared %d bytes, stored %d", row.ByteSize, st.Size)
	}

	next := *row
	next.Status = model.FileStatusActive
	next.Version++
	next.ETag = fileETag(&next)

	if err := s.casUpdateFile(ctx, &next, row.ETag); err != nil {
		// 并发 finalize：另一请求已完成则幂等返回
		if cur, gerr := s.files.GetFile(ctx, row.UID); gerr == nil && cur != nil && cur.Status == model.FileStatusActive {
			info := toFileInfo(cur)
			return &info, nil
		}

		return nil, err
	}

	s.fireFileEvent(ctx, queue.TopicFileStored, actor, &next, "")

	info := toFileInfo(&next)

	return &info, nil
}

// checkUploadPolicy 校验 purpose 的大小上限与 MIME 白名单.
func (s *FmService) checkUploadPolicy(purpose, mimeType string, sizeBytes int64) error {
	up := &s.cfg.Upload

	if !up.KnownPurpose(purpose) {
		return errs.Validation("unknown_purpose", "purpose %q is not configured", purpose)
	}

	if !up.MimeAllowed(purpose, mimeType) {
		return errs.Validation("mime_not_allowed", "mime type %q not allowed for purpose %q", mimeType, purpose)
	}

	if limit := up.MaxBytesFor(purpose); sizeBytes > limit {
		return errs.Validation("size_exceeded", "size %d exceeds limit %d for purpose %q", sizeBytes, limit, purpose)
	}

	return nil
}

// reapBatchSize janitor 单轮处理的 pending 行上限.
const reapBatchSize = 100

// ReapStalePending 回收超龄的 pending 行及其可能残留的对象，返回回收条数.
// 由定时任务以 System 身份周期调用.
func (s *FmService) ReapStalePending(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.Storage.PendingMaxAge())
	reaped := 0

	for {
		rows, err := s.files.ListPendingBefore(ctx, cutoff, reapBatchSize)
		if err != nil {
			return reaped, errs.Internal("reap_list", err, "list stale pending files")
		}

		if len(rows) == 0 {
			return reaped, nil
		}

		progressed := 0

		for i := range rows {
			row := &rows[i]

			if adapter, aerr := s.objects.ObjectAdapterFor(row.StorageLocation); aerr == nil {
				if derr := adapter.Delete(ctx, row.ObjectKey); derr != nil {
					mlog.Logger().Warn().Err(derr).
						Str("file_uid", row.UID).
						Str("object_key", row.ObjectKey).
						Msg("reap: delete stale object failed")
				}
			}

			if derr := s.files.DeleteFile(ctx, row.UID); derr != nil {
				mlog.Logger().Warn().Err(derr).Str("file_uid", row.UID).Msg("reap: delete pending row failed")
				continue
			}

			reaped++
			progressed++
		}

		// 整批都删不动时终止本轮，避免对同一批行空转
		if progressed == 0 || len(rows) < reapBatchSize {
			return reaped, nil
		}
	}
}
