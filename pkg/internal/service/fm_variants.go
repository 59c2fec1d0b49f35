package service

import (
	"context"
	"errors"
	"io"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/storage/object"
	"github.com/yeisme/mediavault/pkg/internal/types"
	mlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/rule"
)

// VariantUploadInit 为 active 原件发起衍生形态上传，协议与原件一致.
func (s *FmService) VariantUploadInit(ctx context.Context, actor types.Actor, req *types.VariantUploadInitRequest) (*types.VariantUploadInitResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid variant init request")
	}

	parent, err := s.loadFile(ctx, req.VariantOfUID)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, parent) {
		return nil, errs.Authorization("forbidden", "not allowed to add variants to file %s", parent.UID)
	}

	if parent.Status != model.FileStatusActive {
		return nil, errs.Conflict("parent_not_active", "file %s is %s, cannot attach variants", parent.UID, parent.Status)
	}

	if err := s.checkUploadPolicy(parent.Purpose, req.MimeType, req.SizeBytes); err != nil {
		return nil, err
	}

	adapter := s.objects.GetObjectAdapter()
	uid := newUID()

	row := &model.Variant{
		UID:             uid,
		VariantOfUID:    parent.UID,
		Kind:            req.Kind,
		Width:           req.Width,
		Height:          req.Height,
		MimeType:        req.MimeType,
		ByteSize:        req.SizeBytes,
		ObjectKey:       buildVariantKey(parent.ObjectKey, req.Kind, uid),
		StorageLocation: adapter.Location(),
		Status:          model.FileStatusPending,
	}

	if err := s.files.CreateVariant(ctx, row); err != nil {
		return nil, errs.Internal("variant_create", err, "create pending variant")
	}

	resp := &types.VariantUploadInitResponse{
		VariantUID: uid,
		Mode:       types.UploadModeProxy,
		ObjectKey:  row.ObjectKey,
	}

	put, err := adapter.PresignPut(ctx, row.ObjectKey, req.MimeType, req.SizeBytes, s.cfg.Storage.SignedURLTTL())
	if err != nil {
		mlog.Logger().Warn().Err(err).Str("variant_uid", uid).Msg("presign put failed, falling back to proxy upload")
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

// VariantUploadFinalize 核对物理对象后将衍生形态转入 active；幂等.
func (s *FmService) VariantUploadFinalize(ctx context.Context, actor types.Actor, variantUID string) (*types.VariantInfo, error) {
	row, parent, err := s.loadVariant(ctx, variantUID)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, parent) {
		return nil, errs.Authorization("forbidden", "not allowed to finalize variant %s", variantUID)
	}

	if row.Status == model.FileStatusActive {
		info := toVariantInfo(row)
		return &info, nil
	}

	if row.Status != model.FileStatusPending {
		return nil, errs.Conflict("not_pending", "variant %s is %s, cannot finalize", variantUID, row.Status)
	}

	return s.activateVariant(ctx, actor, row, parent)
}

// VariantUploadProxied 代理上传衍生形态字节并直接 finalize.
func (s *FmService) VariantUploadProxied(ctx context.Context, actor types.Actor, variantUID string, r io.Reader) (*types.VariantInfo, error) {
	row, parent, err := s.loadVariant(ctx, variantUID)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, parent) {
		return nil, errs.Authorization("forbidden", "not allowed to upload variant %s", variantUID)
	}

	if row.Status != model.FileStatusPending {
		return nil, errs.Conflict("not_pending", "variant %s is %s, cannot upload", variantUID, row.Status)
	}

	adapter, err := s.objects.ObjectAdapterFor(row.StorageLocation)
	if err != nil {
		return nil, errs.Internal("backend_lookup", err, "resolve backend %s", row.StorageLocation)
	}

	written, err := adapter.PutProxied(ctx, row.ObjectKey, io.LimitReader(r, row.ByteSize+1), row.ByteSize, row.MimeType)
	if err != nil {
		return nil, errs.Storage("put_failed", err, "write object %s", row.ObjectKey)
	}

	if written != row.ByteSize {
		_ = adapter.Delete(ctx, row.ObjectKey)

		return nil, errs.Validation("size_mismatch", "declared %d bytes, received %d", row.ByteSize, written)
	}

	return s.activateVariant(ctx, actor, row, parent)
}

// activateVariant 核对物理对象后置 active 并发事件.
func (s *FmService) activateVariant(ctx context.Context, actor types.Actor, row *model.Variant, parent *model.StoredObject) (*types.VariantInfo, error) {
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

	row.Status = model.FileStatusActive
	if err := s.files.UpdateVariant(ctx, row); err != nil {
		return nil, errs.Internal("variant_update", err, "activate variant %s", row.UID)
	}

	s.hooks.Fire(ctx, AfterWriteEvent{
		Topic:    queue.TopicVariantStored,
		Resource: row.UID,
		Payload: queue.VariantEventPayload{
			VariantUID: row.UID,
			Kind:       row.Kind,
			File:       fileRef(parent),
			Actor:      actor.UserUID,
		},
	})

	info := toVariantInfo(row)

	return &info, nil
}

// ListVariants 列出原件的全部衍生形态.
func (s *FmService) ListVariants(ctx context.Context, actor types.Actor, fileUID string) ([]types.VariantInfo, error) {
	parent, err := s.loadFile(ctx, fileUID)
	if err != nil {
		return nil, err
	}

	if !canReadFile(actor, parent) {
		return nil, errs.Authorization("forbidden", "not allowed to read file %s", fileUID)
	}

	rows, err := s.files.ListVariants(ctx, fileUID)
	if err != nil {
		return nil, errs.Internal("variant_list", err, "list variants of file %s", fileUID)
	}

	infos := make([]types.VariantInfo, 0, len(rows))
	for i := range rows {
		infos = append(infos, toVariantInfo(&rows[i]))
	}

	return infos, nil
}

// DeleteVariant 删除单个衍生形态：清对象字节并移除行.
func (s *FmService) DeleteVariant(ctx context.Context, actor types.Actor, variantUID string) error {
	row, parent, err := s.loadVariant(ctx, variantUID)
	if err != nil {
		return err
	}

	if !canManageFile(actor, parent) {
		return errs.Authorization("forbidden", "not allowed to delete variant %s", variantUID)
	}

	adapter, err := s.objects.ObjectAdapterFor(row.StorageLocation)
	if err != nil {
		return errs.Internal("backend_lookup", err, "resolve backend %s", row.StorageLocation)
	}

	if err := adapter.Delete(ctx, row.ObjectKey); err != nil {
		return errs.Storage("delete_failed", err, "delete object %s", row.ObjectKey)
	}

	if err := s.files.DeleteVariant(ctx, variantUID); err != nil {
		return errs.Internal("variant_delete", err, "delete variant %s", variantUID)
	}

	s.hooks.Fire(ctx, AfterWriteEvent{
		Topic:    queue.TopicVariantDeleted,
		Resource: variantUID,
		Payload: queue.VariantEventPayload{
			VariantUID: variantUID,
			Kind:       row.Kind,
			File:       fileRef(parent),
			Actor:      actor.UserUID,
		},
	})

	return nil
}

// loadVariant 加载衍生形态及其原件行.
func (s *FmService) loadVariant(ctx context.Context, variantUID string) (*model.Variant, *model.StoredObject, error) {
	row, err := s.files.GetVariant(ctx, variantUID)
	if err != nil {
		return nil, nil, errs.Internal("variant_lookup", err, "load variant %s", variantUID)
	}

	if row == nil {
		return nil, nil, errs.NotFound("variant_not_found", "variant %s not found", variantUID)
	}

	parent, err := s.loadFile(ctx, row.VariantOfUID)
	if err != nil {
		return nil, nil, err
	}

	return row, parent, nil
}
