// Package service 实现文件管理与内容管理的核心业务逻辑.
//
// 服务对象按请求粒度创建（NewFmService/NewCmsService），从 context 中取出
// 存储管理器并组装依赖；所有操作显式接收 Actor 身份，授权决策在本层完成.
//
// 写入语义：
//   - 所有对存活行的修改都走 CAS（携带期望 etag 的条件更新），失败返回
//     precondition_failed，调用方重读后重试
//   - 每次成功写入后递增 version 并重算 etag
//   - 写入成功后通过 HookRunner 异步分发领域事件，钩子失败不影响写入结果
package service

import (
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"

	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// newUID 生成对外的不透明唯一标识（ULID，可按时间排序）.
func newUID() string {
	return ulid.Make().String()
}

// computeETag 基于各字段拼接计算 xxhash64 并发令牌.
// 字段间以 NUL 分隔，避免 "ab"+"c" 与 "a"+"bc" 碰撞.
func computeETag(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}

	return strconv.FormatUint(h.Sum64(), 16)
}

// fileETag 计算文件行的 etag；任何影响行内容的成功写入后都必须重算.
func fileETag(f *model.StoredObject) string {
	return computeETag(
		f.UID,
		f.ObjectKey,
		f.StorageLocation,
		f.Status,
		f.OriginalFilename,
		f.Visibility,
		f.TagsJSON,
		strconv.FormatInt(f.ByteSize, 10),
		strconv.FormatInt(f.Version, 10),
	)
}

// itemETag 计算内容行的 etag；锁字段不参与计算，持锁/解锁不轮换 etag.
func itemETag(i *model.CmsItem) string {
	return computeETag(
		i.UID,
		i.Slug,
		i.PostType,
		i.Locale,
		i.Status,
		i.ContentType,
		i.ContentJSON,
		strconv.FormatInt(i.VersionNumber, 10),
	)
}

// buildObjectKey 生成对象键：<owner>/<yyyy>/<mm>/<uid>_<文件名>.
// uid 前缀保证同名文件互不覆盖；系统上传归入 system 目录.
func buildObjectKey(ownerUID, fileUID, filename string) string {
	owner := ownerUID
	if owner == "" {
		owner = "system"
	}

	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "unnamed"
	}

	return path.Join(owner, time.Now().UTC().Format("2006/01"), fileUID+"_"+name)
}

// buildVariantKey 衍生形态的对象键挂在原件键下，按 kind 与 uid 区分.
func buildVariantKey(parentKey, kind, variantUID string) string {
	return parentKey + "." + kind + "." + strings.ToLower(variantUID)
}

// encodeTags 标签集合序列化为 JSON 字符串；空集合存空串.
func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}

	data, err := sonic.Marshal(tags)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// decodeTags 解析标签 JSON；解析失败按无标签处理.
func decodeTags(tagsJSON string) []string {
	if tagsJSON == "" {
		return nil
	}

	var tags []string
	if err := sonic.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil
	}

	return tags
}

// toFileInfo 持久化行转视图.
func toFileInfo(row *model.StoredObject) types.FileInfo {
	return types.FileInfo{
		UID:              row.UID,
		OwnerUserUID:     row.OwnerUserUID,
		ObjectKey:        row.ObjectKey,
		OriginalFilename: row.OriginalFilename,
		MimeType:         row.MimeType,
		ByteSize:         row.ByteSize,
		StorageLocation:  row.StorageLocation,
		Purpose:          row.Purpose,
		IsPublic:         row.Visibility == model.VisibilityPublic,
		Tags:             decodeTags(row.TagsJSON),
		Status:           row.Status,
		ETag:             row.ETag,
		Version:          row.Version,
		ArchivedAt:       row.ArchivedAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

// toVariantInfo 衍生形态行转视图.
func toVariantInfo(row *model.Variant) types.VariantInfo {
	return types.VariantInfo{
		UID:             row.UID,
		VariantOfUID:    row.VariantOfUID,
		Kind:            row.Kind,
		Width:           row.Width,
		Height:          row.Height,
		MimeType:        row.MimeType,
		ByteSize:        row.ByteSize,
		ObjectKey:       row.ObjectKey,
		StorageLocation: row.StorageLocation,
		Status:          row.Status,
	}
}

// toLinkInfo 引用行转视图.
func toLinkInfo(row *model.EntityLink) types.LinkInfo {
	return types.LinkInfo{
		ID:               row.ID,
		FileUID:          row.FileUID,
		LinkedEntityType: row.LinkedEntityType,
		LinkedEntityUID:  row.LinkedEntityUID,
		LinkedField:      row.LinkedField,
		CreatedAt:        row.CreatedAt,
	}
}

// toItemInfo 内容行转视图；includeContent 控制是否解析并携带内容体.
func toItemInfo(row *model.CmsItem, includeContent bool) types.ItemInfo {
	info := types.ItemInfo{
		UID:              row.UID,
		Slug:             row.Slug,
		PostType:         row.PostType,
		Locale:           row.Locale,
		Status:           row.Status,
		ContentType:      row.ContentType,
		ETag:             row.ETag,
		VersionNumber:    row.VersionNumber,
		PublishedAt:      row.PublishedAt,
		FirstPublishedAt: row.FirstPublishedAt,
		TrashedAt:        row.TrashedAt,
		LockedBy:         row.LockedBy,
		LockedAt:         row.LockedAt,
		CreatedBy:        row.CreatedBy,
		UpdatedBy:        row.UpdatedBy,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}

	if includeContent && row.ContentJSON != "" {
		var content any
		if err := sonic.Unmarshal([]byte(row.ContentJSON), &content); err == nil {
			info.Content = content
		}
	}

	return info
}
