package service

import (
	"context"
	"io"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/storage/object"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/rule"
)

// signedAccess 签名 URL 的读穿缓存条目.
type signedAccess struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// ResolveContentAccess 解析文件或衍生形态的读取地址.
//
// 模式缺省时按可见性推断：公开文件给公共读 URL，私有文件给限时签名 URL.
// 签名 URL 走 KV 读穿缓存，缓存 TTL 严格小于 URL 有效期，命中项必然未过期.
// canonical 模式暴露后端物理地址，仅管理员可用.
func (s *FmService) ResolveContentAccess(ctx context.Context, actor types.Actor, req *types.ContentAccessRequest) (*types.ContentAccessResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid access request")
	}

	var (
		key, location string
		owner         *model.StoredObject
	)

	if req.VariantUID != "" {
		variant, parent, err := s.loadVariant(ctx, req.VariantUID)
		if err != nil {
			return nil, err
		}

		if variant.Status != model.FileStatusActive {
			return nil, errs.Conflict("variant_not_ready", "variant %s is %s", req.VariantUID, variant.Status)
		}

		key, location, owner = variant.ObjectKey, variant.StorageLocation, parent
	} else {
		row, err := s.loadFile(ctx, req.FileUID)
		if err != nil {
			return nil, err
		}

		// 归档只下线新引用，已存的字节仍然可读
		if row.Status != model.FileStatusActive && row.Status != model.FileStatusArchived {
			return nil, errs.Conflict("content_unavailable", "file %s is %s, content is not served", req.FileUID, row.Status)
		}

		key, location, owner = row.ObjectKey, row.StorageLocation, row
	}

	mode := req.Mode
	if mode == "" {
		mode = types.AccessModeSigned
		if owner.Visibility == model.VisibilityPublic {
			mode = types.AccessModePublic
		}
	}

	if owner.Visibility == model.VisibilityPrivate && !canManageFile(actor, owner) {
		return nil, errs.Authorization("forbidden", "not allowed to access file %s", owner.UID)
	}

	if mode == types.AccessModeCanonical && !actor.IsAdmin {
		return nil, errs.Authorization("admin_only", "canonical access requires admin")
	}

	adapter, err := s.objects.ObjectAdapterFor(location)
	if err != nil {
		return nil, errs.Internal("backend_lookup", err, "resolve backend %s", location)
	}

	if mode == types.AccessModeSigned {
		return s.signedURL(ctx, adapter, location, key)
	}

	url, err := adapter.ReadAccess(ctx, key, object.AccessMode(mode), 0)
	if err != nil {
		return nil, errs.Storage("access_failed", err, "resolve %s access for %s", mode, key)
	}

	return &types.ContentAccessResponse{URL: url}, nil
}

// signedURL 生成限时签名 URL，必要时走读穿缓存.
func (s *FmService) signedURL(ctx context.Context, adapter object.Adapter, location, key string) (*types.ContentAccessResponse, error) {
	ttl := s.cfg.Storage.SignedURLTTL()

	presign := func() (signedAccess, error) {
		url, err := adapter.ReadAccess(ctx, key, object.AccessSigned, ttl)
		if err != nil {
			return signedAccess{}, err
		}

		return signedAccess{URL: url, ExpiresIn: int(ttl.Seconds())}, nil
	}

	cacheTTL := s.cfg.Storage.SignedURLCacheTTL()
	if s.cache == nil || cacheTTL <= 0 {
		entry, err := presign()
		if err != nil {
			return nil, errs.Storage("presign_failed", err, "presign %s", key)
		}

		return &types.ContentAccessResponse{URL: entry.URL, ExpiresIn: entry.ExpiresIn}, nil
	}

	entry, err := cache.GetOrSet(ctx, s.cache, "surl:"+location+":"+key, presign, cacheTTL)
	if err != nil {
		return nil, errs.Storage("presign_failed", err, "presign %s", key)
	}

	return &types.ContentAccessResponse{URL: entry.URL, ExpiresIn: entry.ExpiresIn}, nil
}

// OpenContent 打开原件内容流，供代理下载场景使用.
// 权限与访问解析一致；调用方负责关闭返回的流.
func (s *FmService) OpenContent(ctx context.Context, actor types.Actor, fileUID string) (*types.FileInfo, io.ReadCloser, error) {
	row, err := s.loadFile(ctx, fileUID)
	if err != nil {
		return nil, nil, err
	}

	if row.Status != model.FileStatusActive && row.Status != model.FileStatusArchived {
		return nil, nil, errs.Conflict("content_unavailable", "file %s is %s, content is not served", fileUID, row.Status)
	}

	if row.Visibility == model.VisibilityPrivate && !canManageFile(actor, row) {
		return nil, nil, errs.Authorization("forbidden", "not allowed to access file %s", fileUID)
	}

	adapter, err := s.objects.ObjectAdapterFor(row.StorageLocation)
	if err != nil {
		return nil, nil, errs.Internal("backend_lookup", err, "resolve backend %s", row.StorageLocation)
	}

	rc, err := adapter.Open(ctx, row.ObjectKey)
	if err != nil {
		return nil, nil, errs.Storage("open_failed", err, "open object %s", row.ObjectKey)
	}

	info := toFileInfo(row)

	return &info, rc, nil
}
