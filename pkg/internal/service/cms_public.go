package service

import (
	"context"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/rule"
)

// ListItems 管理侧内容列表；列表项不携带内容体.
// 需要已认证的调用者，草稿与回收站对具备权限的用户可见.
func (s *CmsService) ListItems(ctx context.Context, actor types.Actor, req *types.ListItemsRequest) (*types.ListItemsResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid list request")
	}

	if actor.UserUID == "" && !actor.IsAdmin {
		return nil, errs.New(errs.KindAuthentication, "authentication_required", "listing content requires an authenticated user")
	}

	page, size := req.Normalize()

	rows, total, err := s.items.ListItems(ctx, connector.ItemFilter{
		PostType:   req.PostType,
		Locale:     req.Locale,
		Status:     req.Status,
		SlugPrefix: req.Search,
		Page:       page,
		Size:       size,
	})
	if err != nil {
		return nil, errs.Internal("item_list", err, "list items")
	}

	resp := &types.ListItemsResponse{
		Total: total,
		Page:  page,
		Size:  size,
		Items: make([]types.ItemInfo, 0, len(rows)),
	}
	for i := range rows {
		resp.Items = append(resp.Items, toItemInfo(&rows[i], false))
	}

	return resp, nil
}

// GetItem 读取单条内容（含内容体与 etag）.
// published 对所有人可见，其余状态需要编辑权限.
func (s *CmsService) GetItem(ctx context.Context, actor types.Actor, uid string) (*types.ItemInfo, error) {
	row, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if row.Status != model.CmsStatusPublished && !s.canEditItem(ctx, actor, row) {
		return nil, errs.NotFound("item_not_found", "item %s not found", uid)
	}

	info := toItemInfo(row, true)

	return &info, nil
}

// ReplaceCollaborators 整体替换协作者集合（原子生效）.
// 仅创建者或管理员可调整；协作者自身无权改变集合.
func (s *CmsService) ReplaceCollaborators(ctx context.Context, actor types.Actor, uid string, req *types.ReplaceCollaboratorsRequest) ([]types.CollaboratorInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid collaborators request")
	}

	row, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin && (actor.UserUID == "" || actor.UserUID != row.CreatedBy) {
		return nil, errs.Authorization("forbidden", "only the creator can manage collaborators of item %s", uid)
	}

	rows := make([]model.CmsCollaborator, 0, len(req.Collaborators))
	for _, c := range req.Collaborators {
		rows = append(rows, model.CmsCollaborator{ItemUID: uid, UserUID: c.UserUID, Role: c.Role})
	}

	if err := s.items.ReplaceCollaborators(ctx, uid, rows); err != nil {
		return nil, errs.Internal("collaborators_replace", err, "replace collaborators of item %s", uid)
	}

	return s.ListCollaborators(ctx, actor, uid)
}

// ListCollaborators 列出协作者.
func (s *CmsService) ListCollaborators(ctx context.Context, actor types.Actor, uid string) ([]types.CollaboratorInfo, error) {
	row, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to read collaborators of item %s", uid)
	}

	rows, err := s.items.ListCollaborators(ctx, uid)
	if err != nil {
		return nil, errs.Internal("collaborators_list", err, "list collaborators of item %s", uid)
	}

	infos := make([]types.CollaboratorInfo, 0, len(rows))
	for i := range rows {
		infos = append(infos, types.CollaboratorInfo{UserUID: rows[i].UserUID, Role: rows[i].Role})
	}

	return infos, nil
}

// GetPublicPayload 公共读取：按 (slug, post_type, locale) 返回已发布内容.
// 非 published 状态一律按不存在处理，不泄漏草稿与回收站的存在性.
func (s *CmsService) GetPublicPayload(ctx context.Context, req *types.PublicQuery) (*types.PublicPayload, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid public query")
	}

	row, err := s.items.GetItemBySlug(ctx, req.Slug, req.PostType, req.Locale)
	if err != nil {
		return nil, errs.Internal("item_lookup", err, "load item by slug %s", req.Slug)
	}

	if row == nil || row.Status != model.CmsStatusPublished {
		return nil, errs.NotFound("content_not_found", "no published content at slug %s", req.Slug)
	}

	payload := &types.PublicPayload{
		UID:         row.UID,
		Slug:        row.Slug,
		PostType:    row.PostType,
		Locale:      row.Locale,
		ContentType: row.ContentType,
		PublishedAt: row.PublishedAt,
	}

	if row.ContentJSON != "" {
		var content any
		if uerr := sonic.Unmarshal([]byte(row.ContentJSON), &content); uerr == nil {
			payload.Content = content
		}
	}

	return payload, nil
}

// GetPublicHead 公共读取轻量头信息（etag、版本、发布时间），不携带内容体.
// 后端实现了 HeadReader 时走列投影路径，否则回退到完整行读取.
func (s *CmsService) GetPublicHead(ctx context.Context, req *types.PublicQuery) (*types.PublicHead, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid public query")
	}

	if hr, ok := s.items.(connector.HeadReader); ok {
		head, err := hr.GetPublicHead(ctx, req.Slug, req.PostType, req.Locale)
		if err != nil {
			return nil, errs.Internal("head_lookup", err, "load head by slug %s", req.Slug)
		}

		if head == nil {
			return nil, errs.NotFound("content_not_found", "no published content at slug %s", req.Slug)
		}

		return &types.PublicHead{
			UID:           head.UID,
			Slug:          head.Slug,
			ETag:          head.ETag,
			VersionNumber: head.VersionNumber,
			PublishedAt:   head.PublishedAt,
			UpdatedAt:     head.UpdatedAt,
		}, nil
	}

	row, err := s.items.GetItemBySlug(ctx, req.Slug, req.PostType, req.Locale)
	if err != nil {
		return nil, errs.Internal("item_lookup", err, "load item by slug %s", req.Slug)
	}

	if row == nil || row.Status != model.CmsStatusPublished {
		return nil, errs.NotFound("content_not_found", "no published content at slug %s", req.Slug)
	}

	return &types.PublicHead{
		UID:           row.UID,
		Slug:          row.Slug,
		ETag:          row.ETag,
		VersionNumber: row.VersionNumber,
		PublishedAt:   row.PublishedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
