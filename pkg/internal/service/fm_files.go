package service

import (
	"context"

	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/queue"
	"github.com/yeisme/mediavault/pkg/rule"
)

// ListFiles 按过滤条件分页列出文件元数据.
// 非管理员强制限定到自己名下，忽略请求中的 owner 参数.
func (s *FmService) ListFiles(ctx context.Context, actor types.Actor, req *types.ListFilesRequest) (*types.ListFilesResponse, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid list request")
	}

	page, size := req.Normalize()

	filter := connector.FileFilter{
		Owner:      req.Owner,
		Status:     req.Status,
		Purpose:    req.Purpose,
		Tag:        req.Tag,
		MimePrefix: req.MimePrefix,
		Page:       page,
		Size:       size,
	}
	if !actor.IsAdmin {
		filter.Owner = actor.UserUID
	}

	rows, total, err := s.files.ListFiles(ctx, filter)
	if err != nil {
		return nil, errs.Internal("file_list", err, "list files")
	}

	resp := &types.ListFilesResponse{
		Total: total,
		Page:  page,
		Size:  size,
		Files: make([]types.FileInfo, 0, len(rows)),
	}
	for i := range rows {
		resp.Files = append(resp.Files, toFileInfo(&rows[i]))
	}

	return resp, nil
}

// GetFile 读取单个文件的元数据.
func (s *FmService) GetFile(ctx context.Context, actor types.Actor, uid string) (*types.FileInfo, error) {
	row, err := s.loadFile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !canReadFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to read file %s", uid)
	}

	info := toFileInfo(row)

	return &info, nil
}

// PatchFile 部分更新可变元数据（文件名、可见性、标签）；nil 字段不修改.
// 必须携带 If-Match，etag 不符拒绝写入.
func (s *FmService) PatchFile(ctx context.Context, actor types.Actor, uid string, req *types.PatchFileRequest) (*types.FileInfo, error) {
	if err := rule.ValidateStruct(req); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid_request", err, "invalid patch request")
	}

	if req.IfMatch == "" {
		return nil, errs.PreconditionRequired("if_match_required", "If-Match is required for file updates")
	}

	row, err := s.loadFile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !canManageFile(actor, row) {
		return nil, errs.Authorization("forbidden", "not allowed to update file %s", uid)
	}

	if row.Status != model.FileStatusActive && row.Status != model.FileStatusArchived {
		return nil, errs.Conflict("not_mutable", "file %s is %s, metadata is frozen", uid, row.Status)
	}

	if req.IfMatch != row.ETag {
		return nil, errs.PreconditionFailed("etag_mismatch", "file %s etag does not match", uid)
	}

	next := *row

	if req.Filename != nil {
		next.OriginalFilename = *req.Filename
	}

	if req.Visibility != nil {
		next.Visibility = *req.Visibility
	}

	if req.Tags != nil {
		tagsJSON, terr := encodeTags(*req.Tags)
		if terr != nil {
			return nil, errs.Internal("encode_tags", terr, "encode tags")
		}

		next.TagsJSON = tagsJSON
	}

	next.Version++
	next.ETag = fileETag(&next)

	if err := s.casUpdateFile(ctx, &next, row.ETag); err != nil {
		return nil, err
	}

	s.fireFileEvent(ctx, queue.TopicFileUpdated, actor, &next, "")

	info := toFileInfo(&next)

	return &info, nil
}
