package service

import (
	"context"
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// newTestCms 内存 connector 组装的内容服务.
func newTestCms(t *testing.T) *CmsService {
	t.Helper()

	return &CmsService{
		items: connector.NewMemory().Cms(),
		hooks: NewHookRunner(),
		cfg:   newTestConfig(t),
	}
}

// mustCreateItem 建一条草稿.
func mustCreateItem(t *testing.T, s *CmsService, actor types.Actor, slug string) *types.ItemInfo {
	t.Helper()

	info, err := s.CreateItem(context.Background(), actor, &types.CreateItemRequest{
		Slug:     slug,
		PostType: "post",
		Locale:   "zh-CN",
		Content:  map[string]any{"title": slug, "body": "hello"},
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	return info
}

func TestCreatePublishPublicRead(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}

	item := mustCreateItem(t, s, author, "hello-world")

	if item.Status != model.CmsStatusDraft || item.VersionNumber != 1 {
		t.Fatalf("unexpected draft view: %+v", item)
	}

	query := &types.PublicQuery{Slug: "hello-world", PostType: "post", Locale: "zh-CN"}

	// 草稿对公共读不可见
	_, err := s.GetPublicPayload(ctx, query)
	wantKind(t, err, errs.KindNotFound)

	published, err := s.PublishItem(ctx, author, item.UID, item.ETag)
	if err != nil {
		t.Fatalf("PublishItem: %v", err)
	}

	if published.Status != model.CmsStatusPublished || published.PublishedAt == nil || published.FirstPublishedAt == nil {
		t.Fatalf("unexpected published view: %+v", published)
	}

	payload, err := s.GetPublicPayload(ctx, query)
	if err != nil {
		t.Fatalf("GetPublicPayload: %v", err)
	}

	content, ok := payload.Content.(map[string]any)
	if !ok || content["title"] != "hello-world" {
		t.Fatalf("unexpected public content: %+v", payload.Content)
	}

	// 内存后端没有列投影能力，head 走回退路径
	head, err := s.GetPublicHead(ctx, query)
	if err != nil {
		t.Fatalf("GetPublicHead: %v", err)
	}

	if head.UID != item.UID || head.ETag != published.ETag || head.VersionNumber != published.VersionNumber {
		t.Fatalf("head drifted from row: %+v", head)
	}

	// 发布幂等
	again, err := s.PublishItem(ctx, author, item.UID, published.ETag)
	if err != nil || again.VersionNumber != published.VersionNumber {
		t.Fatalf("publish must be idempotent: %v", err)
	}
}

func TestUpdateItemCASConflict(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}

	item := mustCreateItem(t, s, author, "draft-1")

	// 缺 If-Match
	_, err := s.UpdateItem(ctx, author, item.UID, &types.UpdateItemRequest{Content: map[string]any{"v": 2}})
	wantKind(t, err, errs.KindPreconditionRequired)

	updated, err := s.UpdateItem(ctx, author, item.UID, &types.UpdateItemRequest{
		IfMatch: item.ETag,
		Content: map[string]any{"v": 2},
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	if updated.VersionNumber != item.VersionNumber+1 || updated.ETag == item.ETag {
		t.Fatalf("version/etag must rotate: %+v", updated)
	}

	// 基于过期 etag 的并发写被拒绝
	_, err = s.UpdateItem(ctx, author, item.UID, &types.UpdateItemRequest{
		IfMatch: item.ETag,
		Content: map[string]any{"v": 3},
	})
	wantKind(t, err, errs.KindPreconditionFailed)
}

func TestSlugUniqueness(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}

	mustCreateItem(t, s, author, "taken")

	_, err := s.CreateItem(ctx, author, &types.CreateItemRequest{
		Slug:     "taken",
		PostType: "post",
		Locale:   "zh-CN",
		Content:  map[string]any{},
	})
	wantKind(t, err, errs.KindConflict)

	// 不同 locale 下同名 slug 合法
	if _, err := s.CreateItem(ctx, author, &types.CreateItemRequest{
		Slug:     "taken",
		PostType: "post",
		Locale:   "en-US",
		Content:  map[string]any{},
	}); err != nil {
		t.Fatalf("same slug in another locale: %v", err)
	}

	// 更新撞到既有 slug 同样拒绝
	other := mustCreateItem(t, s, author, "other")
	slug := "taken"

	_, err = s.UpdateItem(ctx, author, other.UID, &types.UpdateItemRequest{IfMatch: other.ETag, Slug: &slug})
	wantKind(t, err, errs.KindConflict)
}

func TestTrashRestoreLossless(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}

	item := mustCreateItem(t, s, author, "keeper")

	published, err := s.PublishItem(ctx, author, item.UID, item.ETag)
	if err != nil {
		t.Fatalf("PublishItem: %v", err)
	}

	trashed, err := s.TrashItem(ctx, author, item.UID, published.ETag)
	if err != nil {
		t.Fatalf("TrashItem: %v", err)
	}

	if trashed.Status != model.CmsStatusTrash || trashed.TrashedAt == nil {
		t.Fatalf("unexpected trashed view: %+v", trashed)
	}

	// 回收站中的内容不可编辑、不可公共读
	_, err = s.UpdateItem(ctx, author, item.UID, &types.UpdateItemRequest{IfMatch: trashed.ETag, Content: map[string]any{}})
	wantKind(t, err, errs.KindConflict)

	_, err = s.GetPublicPayload(ctx, &types.PublicQuery{Slug: "keeper", PostType: "post", Locale: "zh-CN"})
	wantKind(t, err, errs.KindNotFound)

	restored, err := s.RestoreItem(ctx, author, item.UID, trashed.ETag)
	if err != nil {
		t.Fatalf("RestoreItem: %v", err)
	}

	// 恢复为草稿，内容体与首次发布时间无损
	if restored.Status != model.CmsStatusDraft || restored.TrashedAt != nil {
		t.Fatalf("unexpected restored view: %+v", restored)
	}

	if restored.FirstPublishedAt == nil {
		t.Fatal("first_published_at must survive trash/restore")
	}

	content, ok := restored.Content.(map[string]any)
	if !ok || content["title"] != "keeper" {
		t.Fatalf("content lost across trash/restore: %+v", restored.Content)
	}
}

func TestDeleteOnlyFromTrash(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}

	item := mustCreateItem(t, s, author, "doomed")

	// 草稿直接删被拒绝
	err := s.DeleteItem(ctx, author, item.UID, item.ETag)
	wantKind(t, err, errs.KindConflict)

	trashed, err := s.TrashItem(ctx, author, item.UID, item.ETag)
	if err != nil {
		t.Fatalf("TrashItem: %v", err)
	}

	if err := s.DeleteItem(ctx, author, item.UID, trashed.ETag); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	_, err = s.GetItem(ctx, author, item.UID)
	wantKind(t, err, errs.KindNotFound)

	// 历史快照随行级联删除
	if revs, total, _ := s.items.ListRevisions(ctx, item.UID, true, 1, 50); total != 0 || len(revs) != 0 {
		t.Fatalf("revisions must cascade on hard delete, %d left", total)
	}
}

func TestEmptyTrash(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}
	admin := types.Actor{UserUID: "root", IsAdmin: true}

	a := mustCreateItem(t, s, author, "a")
	b := mustCreateItem(t, s, author, "b")
	mustCreateItem(t, s, author, "survivor")

	if _, err := s.TrashItem(ctx, author, a.UID, a.ETag); err != nil {
		t.Fatalf("trash a: %v", err)
	}

	if _, err := s.TrashItem(ctx, author, b.UID, b.ETag); err != nil {
		t.Fatalf("trash b: %v", err)
	}

	// 仅管理员可清空
	_, err := s.EmptyTrash(ctx, author)
	wantKind(t, err, errs.KindAuthorization)

	deleted, err := s.EmptyTrash(ctx, admin)
	if err != nil {
		t.Fatalf("EmptyTrash: %v", err)
	}

	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	resp, err := s.ListItems(ctx, admin, &types.ListItemsRequest{})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}

	if resp.Total != 1 || resp.Items[0].Slug != "survivor" {
		t.Fatalf("unexpected survivors: %+v", resp.Items)
	}
}

func TestCollaboratorCanEdit(t *testing.T) {
	s := newTestCms(t)
	ctx := context.Background()
	author := types.Actor{UserUID: "alice"}
	collaborator := types.Actor{UserUID: "bob"}
	stranger := types.Actor{UserUID: "mallory"}

	item := mustCreateItem(t, s, author, "shared")

	// 协作者集合只能由创建者调整
	_, err := s.ReplaceCollaborators(ctx, collaborator, item.UID, &types.ReplaceCollaboratorsRequest{
		Collaborators: []types.CollaboratorInfo{{UserUID: "bob", Role: "editor"}},
	})
	wantKind(t, err, errs.KindAuthorization)

	if _, err := s.ReplaceCollaborators(ctx, author, item.UID, &types.ReplaceCollaboratorsRequest{
		Collaborators: []types.CollaboratorInfo{{UserUID: "bob", Role: "editor"}},
	}); err != nil {
		t.Fatalf("ReplaceCollaborators: %v", err)
	}

	if _, err := s.UpdateItem(ctx, collaborator, item.UID, &types.UpdateItemRequest{
		IfMatch: item.ETag,
		Content: map[string]any{"by": "bob"},
	}); err != nil {
		t.Fatalf("collaborator edit: %v", err)
	}

	_, err = s.GetItem(ctx, stranger, item.UID)
	wantKind(t, err, errs.KindNotFound)
}
