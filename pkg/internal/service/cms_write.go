package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/rule"
)

// CreateItem 新建草稿；slug 在 (post_type, locale) 内唯一.
func (s *CmsService) CreateItem(ctx context.Context, actor types.Actor, req *types.CreateItemRequest) (*types.ItemInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid create request")
	}

	if actor.UserUID == "" && !actor.IsAdmin {
		return nil, errs.New(errs.KindAuthentication, "authentication_required", "creating content requires an authenticated user")
	}

	dup, err := s.items.GetItemBySlug(ctx, req.Slug, req.PostType, req.Locale)
	if err != nil {
		return nil, errs.Internal("slug_lookup", err, "check slug %s", req.Slug)
	}

	if dup != nil {
		return nil, errs.Conflict("slug_taken", "slug %q already exists in (%s, %s)", req.Slug, req.PostType, req.Locale)
	}

	contentJSON, err := sonic.Marshal(req.Content)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_content", err, "content is not serializable")
	}

	row := &model.CmsItem{
		UID:           newUID(),
		Slug:          req.Slug,
		PostType:      req.PostType,
		Locale:        req.Locale,
		Status:        model.CmsStatusDraft,
		ContentJSON:   string(contentJSON),
		ContentType:   req.ContentType,
		VersionNumber: 1,
		CreatedBy:     actor.UserUID,
		UpdatedBy:     actor.UserUID,
	}
	row.ETag = itemETag(row)

	if err := s.items.CreateItem(ctx, row); err != nil {
		return nil, errs.Internal("item_create", err, "create item")
	}

	s.fireCmsEvent(ctx, queue.TopicCmsCreated, actor, row)

	info := toItemInfo(row, true)

	return &info, nil
}

// UpdateItem 更新内容体与可变字段；nil 字段不修改.
func (s *CmsService) UpdateItem(ctx context.Context, actor types.Actor, uid string, req *types.UpdateItemRequest) (*types.ItemInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid update request")
	}

	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to edit item %s", uid)
	}

	if cur.Status == model.CmsStatusTrash {
		return nil, errs.Conflict("item_trashed", "item %s is in trash, restore it first", uid)
	}

	var contentJSON string
	if req.Content != nil {
		data, merr := sonic.Marshal(req.Content)
		if merr != nil {
			return nil, errs.Wrap(errs.KindValidation, "invalid_content", merr, "content is not serializable")
		}

		contentJSON = string(data)
	}

	if req.Slug != nil && *req.Slug != cur.Slug {
		dup, derr := s.items.GetItemBySlug(ctx, *req.Slug, cur.PostType, cur.Locale)
		if derr != nil {
			return nil, errs.Internal("slug_lookup", derr, "check slug %s", *req.Slug)
		}

		if dup != nil {
			return nil, errs.Conflict("slug_taken", "slug %q already exists in (%s, %s)", *req.Slug, cur.PostType, cur.Locale)
		}
	}

	next, err := s.writeItem(ctx, actor, cur, req.IfMatch, func(next *model.CmsItem) {
		if req.Slug != nil {
			next.Slug = *req.Slug
		}

		if req.ContentType != nil {
			next.ContentType = *req.ContentType
		}

		if req.Content != nil {
			next.ContentJSON = contentJSON
		}
	})
	if err != nil {
		return nil, err
	}

	s.fireCmsEvent(ctx, queue.TopicCmsUpdated, actor, next)

	info := toItemInfo(next, true)

	return &info, nil
}

// PublishItem 发布：draft → published；已发布的行幂等返回.
func (s *CmsService) PublishItem(ctx context.Context, actor types.Actor, uid, ifMatch string) (*types.ItemInfo, error) {
	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to publish item %s", uid)
	}

	if cur.Status == model.CmsStatusPublished {
		info := toItemInfo(cur, true)
		return &info, nil
	}

	if cur.Status == model.CmsStatusTrash {
		return nil, errs.Conflict("item_trashed", "item %s is in trash, restore it first", uid)
	}

	now := time.Now().UTC()

	next, err := s.writeItem(ctx, actor, cur, ifMatch, func(next *model.CmsItem) {
		next.Status = model.CmsStatusPublished
		next.PublishedAt = &now

		if next.FirstPublishedAt == nil {
			next.FirstPublishedAt = &now
		}
	})
	if err != nil {
		return nil, err
	}

	s.fireCmsEvent(ctx, queue.TopicCmsPublished, actor, next)

	info := toItemInfo(next, true)

	return &info, nil
}

// UnpublishItem 撤回发布：published → draft，公共读立即不可见.
func (s *CmsService) UnpublishItem(ctx context.Context, actor types.Actor, uid, ifMatch string) (*types.ItemInfo, error) {
	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to unpublish item %s", uid)
	}

	if cur.Status == model.CmsStatusDraft {
		info := toItemInfo(cur, true)
		return &info, nil
	}

	if cur.Status != model.CmsStatusPublished {
		return nil, errs.Conflict("not_published", "item %s is %s", uid, cur.Status)
	}

	next, err := s.writeItem(ctx, actor, cur, ifMatch, func(next *model.CmsItem) {
		next.Status = model.CmsStatusDraft
		next.PublishedAt = nil
	})
	if err != nil {
		return nil, err
	}

	s.fireCmsEvent(ctx, queue.TopicCmsUpdated, actor, next)

	info := toItemInfo(next, true)

	return &info, nil
}

// TrashItem 移入回收站；进入 trash 的行释放协作锁.已在回收站的行幂等返回.
func (s *CmsService) TrashItem(ctx context.Context, actor types.Actor, uid, ifMatch string) (*types.ItemInfo, error) {
	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to trash item %s", uid)
	}

	if cur.Status == model.CmsStatusTrash {
		info := toItemInfo(cur, true)
		return &info, nil
	}

	now := time.Now().UTC()

	next, err := s.writeItem(ctx, actor, cur, ifMatch, func(next *model.CmsItem) {
		next.Status = model.CmsStatusTrash
		next.TrashedAt = &now
		next.LockedBy = ""
		next.LockedAt = nil
	})
	if err != nil {
		return nil, err
	}

	s.fireCmsEvent(ctx, queue.TopicCmsTrashed, actor, next)

	info := toItemInfo(next, true)

	return &info, nil
}

// RestoreItem 从回收站恢复为草稿；内容体与发布历史字段原样保留.
func (s *CmsService) RestoreItem(ctx context.Context, actor types.Actor, uid, ifMatch string) (*types.ItemInfo, error) {
	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return nil, errs.Authorization("forbidden", "not allowed to restore item %s", uid)
	}

	if cur.Status != model.CmsStatusTrash {
		return nil, errs.Conflict("not_trashed", "item %s is %s, nothing to restore", uid, cur.Status)
	}

	next, err := s.writeItem(ctx, actor, cur, ifMatch, func(next *model.CmsItem) {
		next.Status = model.CmsStatusDraft
		next.TrashedAt = nil
	})
	if err != nil {
		return nil, err
	}

	s.fireCmsEvent(ctx, queue.TopicCmsRestored, actor, next)

	info := toItemInfo(next, true)

	return &info, nil
}

// DeleteItem 硬删除，只允许从 trash 状态发起；级联删除历史快照与协作者.
func (s *CmsService) DeleteItem(ctx context.Context, actor types.Actor, uid, ifMatch string) error {
	if ifMatch == "" {
		return errs.PreconditionRequired("if_match_required", "If-Match is required to delete")
	}

	cur, err := s.loadItem(ctx, uid)
	if err != nil {
		return err
	}

	if !s.canEditItem(ctx, actor, cur) {
		return errs.Authorization("forbidden", "not allowed to delete item %s", uid)
	}

	if cur.Status != model.CmsStatusTrash {
		return errs.Conflict("not_trashed", "only trashed items can be deleted, item %s is %s", uid, cur.Status)
	}

	if ifMatch != cur.ETag {
		return errs.PreconditionFailed("etag_mismatch", "item %s etag does not match", uid)
	}

	if err := s.items.DeleteItem(ctx, uid); err != nil {
		return errs.Internal("item_delete", err, "delete item %s", uid)
	}

	s.fireCmsEvent(ctx, queue.TopicCmsDeleted, actor, cur)

	return nil
}

// EmptyTrash 清空回收站（仅管理员），返回删除条数.
func (s *CmsService) EmptyTrash(ctx context.Context, actor types.Actor) (int, error) {
	if !actor.IsAdmin {
		return 0, errs.Authorization("admin_only", "emptying trash requires admin")
	}

	rows, err := s.items.ListItemsByStatus(ctx, model.CmsStatusTrash)
	if err != nil {
		return 0, errs.Internal("trash_list", err, "list trashed items")
	}

	deleted := 0

	for i := range rows {
		if derr := s.items.DeleteItem(ctx, rows[i].UID); derr != nil {
			return deleted, errs.Internal("item_delete", derr, "delete item %s", rows[i].UID)
		}

		s.fireCmsEvent(ctx, queue.TopicCmsDeleted, actor, &rows[i])
		deleted++
	}

	return deleted, nil
}
