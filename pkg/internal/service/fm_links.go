package service

import (
	"context"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/rule"
)

// CreateLink 建立文件与外部实体的引用；四元组重复时拒绝.
// 被引用的文件在非 force 删除时只会降级为归档.
func (s *FmService) CreateLink(ctx context.Context, actor types.Actor, req *types.CreateLinkRequest) (*types.LinkInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid link request")
	}

	row, err := s.loadFile(ctx, req.FileUID)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to link file %s", req.FileUID)
	}

	if row.Status != model.FileStatusActive {
		return nil, errs.Conflict("not_active", "file %s is %s, cannot be linked", req.FileUID, row.Status)
	}

	dup, err := s.files.FindLink(ctx, req.FileUID, req.LinkedEntityType, req.LinkedEntityUID, req.LinkedField)
	if err != nil {
		return nil, errs.Internal("link_lookup", err, "find link")
	}

	if dup != nil {
		return nil, errs.Conflict("link_exists", "link already exists")
	}

	link := &model.EntityLink{
		FileUID:          req.FileUID,
		LinkedEntityType: req.LinkedEntityType,
		LinkedEntityUID:  req.LinkedEntityUID,
		LinkedField:      req.LinkedField,
	}

	if err := s.files.CreateLink(ctx, link); err != nil {
		return nil, errs.Internal("link_create", err, "create link")
	}

	s.fireLinkEvent(ctx, queue.TopicLinkCreated, actor, link)

	info := toLinkInfo(link)

	return &info, nil
}

// ListLinks 列出文件的全部引用.
func (s *FmService) ListLinks(ctx context.Context, actor types.Actor, fileUID string) ([]types.LinkInfo, error) {
	row, err := s.loadFile(ctx, fileUID)
	if err != nil {
		return nil, err
	}

	if !canReadFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to read file %s", fileUID)
	}

	rows, err := s.files.ListLinks(ctx, fileUID)
	if err != nil {
		return nil, errs.Internal("link_list", err, "list links of file %s", fileUID)
	}

	infos := make([]types.LinkInfo, 0, len(rows))
	for i := range rows {
		infos = append(infos, toLinkInfo(&rows[i]))
	}

	return infos, nil
}

// DeleteLink 解除引用.
func (s *FmService) DeleteLink(ctx context.Context, actor types.Actor, id uint) error {
	link, err := s.files.GetLinkByID(ctx, id)
	if err != nil {
		return errs.Internal("link_lookup", err, "load link %d", id)
	}

	if link == nil {
		return errs.NotFound("link_not_found", "link %d not found", id)
	}

	// 文件行可能已是墓碑，此时仅管理员可清理残留引用
	if row, ferr := s.files.GetFile(ctx, link.FileUID); ferr == nil && row != nil && row.Status != model.FileStatusDeleted {
		if !canManageFile(actor, row) {
			return errs.Authorization("forbidden", "not allowed to unlink file %s", link.FileUID)
		}
	} else if !actor.IsAdmin {
		return errs.Authorization("admin_only", "unlinking orphaned references requires admin")
	}

	if err := s.files.DeleteLink(ctx, id); err != nil {
		return errs.Internal("link_delete", err, "delete link %d", id)
	}

	s.fireLinkEvent(ctx, queue.TopicLinkDeleted, actor, link)

	return nil
}

// fireLinkEvent 发布引用事件.
func (s *FmService) fireLinkEvent(ctx context.Context, topic string, actor types.Actor, link *model.EntityLink) {
	s.hooks.Fire(ctx, AfterWriteEvent{
		Topic:    topic,
		Resource: link.FileUID,
		Payload: queue.LinkEventPayload{
			FileUID:          link.FileUID,
			LinkedEntityType: link.LinkedEntityType,
			LinkedEntityUID:  link.LinkedEntityUID,
			LinkedField:      link.LinkedField,
			Actor:            actor.UserUID,
		},
	})
}
