package connector_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/model"
)

// conformanceTarget 同一组测试跑在所有实现上，保证语义一致.
type conformanceTarget struct {
	name string
	conn connector.Connector
}

func newTargets(t *testing.T) []conformanceTarget {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "conformance.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	gc := connector.NewGorm(db)
	if err := gc.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return []conformanceTarget{
		{name: "memory", conn: connector.NewMemory()},
		{name: "gorm-sqlite", conn: gc},
	}
}

func newFileRow(uid, etag string) *model.StoredObject {
	return &model.StoredObject{
		UID:              uid,
		OwnerUserUID:     "u1",
		ObjectKey:        "u1/2026/08/" + uid + ".png",
		OriginalFilename: uid + ".png",
		MimeType:         "image/png",
		ByteSize:         128,
		StorageLocation:  model.StorageLocationLocal,
		Purpose:          "avatar",
		Visibility:       model.VisibilityPrivate,
		Status:           model.FileStatusActive,
		ETag:             etag,
		Version:          1,
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			row, err := target.conn.Files().GetFile(ctx, "missing")
			if err != nil {
				t.Fatalf("get file: %v", err)
			}

			if row != nil {
				t.Fatal("expected nil row for missing uid")
			}

			item, err := target.conn.Cms().GetItem(ctx, "missing")
			if err != nil {
				t.Fatalf("get item: %v", err)
			}

			if item != nil {
				t.Fatal("expected nil item for missing uid")
			}
		})
	}
}

func TestFileCAS(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			files := target.conn.Files()

			row := newFileRow("f-cas", "etag-1")
			if err := files.CreateFile(ctx, row); err != nil {
				t.Fatalf("create: %v", err)
			}

			// 正确的期望 etag 更新成功
			row.ETag = "etag-2"
			row.Version = 2
			row.OriginalFilename = "renamed.png"

			ok, err := files.UpdateFileCAS(ctx, row, "etag-1")
			if err != nil {
				t.Fatalf("cas update: %v", err)
			}

			if !ok {
				t.Fatal("expected CAS to succeed with matching etag")
			}

			// 过期的期望 etag 被拒绝
			stale := newFileRow("f-cas", "etag-3")

			ok, err = files.UpdateFileCAS(ctx, stale, "etag-1")
			if err != nil {
				t.Fatalf("stale cas update: %v", err)
			}

			if ok {
				t.Fatal("expected CAS to fail with stale etag")
			}

			// 行内容为第一次更新的结果
			got, err := files.GetFile(ctx, "f-cas")
			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if got.ETag != "etag-2" || got.OriginalFilename != "renamed.png" || got.Version != 2 {
				t.Fatalf("unexpected row after CAS: %+v", got)
			}
		})
	}
}

func TestListFilesFilterAndPaging(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			files := target.conn.Files()

			for i, uid := range []string{"l1", "l2", "l3"} {
				row := newFileRow(uid, "e")
				if i == 0 {
					row.MimeType = "video/mp4"
					row.TagsJSON = `["hero","banner"]`
				}

				if err := files.CreateFile(ctx, row); err != nil {
					t.Fatalf("create %s: %v", uid, err)
				}
			}

			rows, total, err := files.ListFiles(ctx, connector.FileFilter{MimePrefix: "image/"})
			if err != nil {
				t.Fatalf("list: %v", err)
			}

			if total != 2 || len(rows) != 2 {
				t.Fatalf("expected 2 image files, got total=%d len=%d", total, len(rows))
			}

			rows, total, err = files.ListFiles(ctx, connector.FileFilter{Tag: "hero"})
			if err != nil {
				t.Fatalf("list by tag: %v", err)
			}

			if total != 1 || rows[0].UID != "l1" {
				t.Fatalf("expected l1 by tag, got total=%d", total)
			}

			// 分页：每页 2 条，第二页 1 条
			rows, total, err = files.ListFiles(ctx, connector.FileFilter{Page: 2, Size: 2})
			if err != nil {
				t.Fatalf("list page 2: %v", err)
			}

			if total != 3 || len(rows) != 1 {
				t.Fatalf("expected total=3 len=1, got total=%d len=%d", total, len(rows))
			}
		})
	}
}

func TestListPendingBefore(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			files := target.conn.Files()

			old := newFileRow("p-old", "e")
			old.Status = model.FileStatusPending

			if err := files.CreateFile(ctx, old); err != nil {
				t.Fatalf("create: %v", err)
			}

			active := newFileRow("p-active", "e")
			if err := files.CreateFile(ctx, active); err != nil {
				t.Fatalf("create: %v", err)
			}

			rows, err := files.ListPendingBefore(ctx, time.Now().Add(time.Minute), 10)
			if err != nil {
				t.Fatalf("list pending: %v", err)
			}

			if len(rows) != 1 || rows[0].UID != "p-old" {
				t.Fatalf("expected only p-old, got %d rows", len(rows))
			}

			rows, err = files.ListPendingBefore(ctx, time.Now().Add(-time.Hour), 10)
			if err != nil {
				t.Fatalf("list pending before past cutoff: %v", err)
			}

			if len(rows) != 0 {
				t.Fatalf("expected no rows before past cutoff, got %d", len(rows))
			}
		})
	}
}

func TestLinks(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			files := target.conn.Files()

			link := &model.EntityLink{
				FileUID:          "f1",
				LinkedEntityType: "cms_item",
				LinkedEntityUID:  "c1",
				LinkedField:      "cover",
			}
			if err := files.CreateLink(ctx, link); err != nil {
				t.Fatalf("create link: %v", err)
			}

			found, err := files.FindLink(ctx, "f1", "cms_item", "c1", "cover")
			if err != nil {
				t.Fatalf("find link: %v", err)
			}

			if found == nil || found.ID != link.ID {
				t.Fatalf("expected to find created link, got %+v", found)
			}

			if missing, err := files.FindLink(ctx, "f1", "cms_item", "c1", "gallery"); err != nil || missing != nil {
				t.Fatalf("expected nil for different field, got %+v err=%v", missing, err)
			}

			n, err := files.CountLinks(ctx, "f1")
			if err != nil || n != 1 {
				t.Fatalf("expected 1 link, got %d err=%v", n, err)
			}

			if err := files.DeleteLink(ctx, link.ID); err != nil {
				t.Fatalf("delete link: %v", err)
			}

			n, err = files.CountLinks(ctx, "f1")
			if err != nil || n != 0 {
				t.Fatalf("expected 0 links after delete, got %d err=%v", n, err)
			}
		})
	}
}

func newItemRow(uid, slug, etag string) *model.CmsItem {
	return &model.CmsItem{
		UID:           uid,
		Slug:          slug,
		PostType:      "post",
		Locale:        "en",
		Status:        model.CmsStatusDraft,
		ContentJSON:   `{"title":"hello"}`,
		ContentType:   "article",
		ETag:          etag,
		VersionNumber: 1,
		CreatedBy:     "u1",
		UpdatedBy:     "u1",
	}
}

func TestItemCASAndSlugLookup(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			cms := target.conn.Cms()

			item := newItemRow("c-cas", "hello-world", "e1")
			if err := cms.CreateItem(ctx, item); err != nil {
				t.Fatalf("create: %v", err)
			}

			bySlug, err := cms.GetItemBySlug(ctx, "hello-world", "post", "en")
			if err != nil || bySlug == nil || bySlug.UID != "c-cas" {
				t.Fatalf("slug lookup failed: %+v err=%v", bySlug, err)
			}

			// 不同 locale 不命中
			if miss, err := cms.GetItemBySlug(ctx, "hello-world", "post", "zh"); err != nil || miss != nil {
				t.Fatalf("expected nil for other locale, got %+v err=%v", miss, err)
			}

			item.ETag = "e2"
			item.VersionNumber = 2

			ok, err := cms.UpdateItemCAS(ctx, item, "e1")
			if err != nil || !ok {
				t.Fatalf("cas should succeed, ok=%v err=%v", ok, err)
			}

			ok, err = cms.UpdateItemCAS(ctx, item, "e1")
			if err != nil {
				t.Fatalf("stale cas: %v", err)
			}

			if ok {
				t.Fatal("expected stale CAS to fail")
			}
		})
	}
}

func TestRevisionsAppendOnly(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			cms := target.conn.Cms()

			for i := range 3 {
				rev := &model.CmsRevision{
					ItemUID:       "c1",
					VersionNumber: int64(i + 1),
					SnapshotJSON:  `{"v":1}`,
					Status:        model.CmsStatusDraft,
					CreatedBy:     "u1",
				}
				if err := cms.AppendRevision(ctx, rev); err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			rows, total, err := cms.ListRevisions(ctx, "c1", false, 0, 0)
			if err != nil || total != 3 {
				t.Fatalf("expected 3 revisions, got %d err=%v", total, err)
			}

			// 最新的在前
			if rows[0].VersionNumber != 3 {
				t.Fatalf("expected newest first, got version %d", rows[0].VersionNumber)
			}

			// 软删后默认列表不可见，includeDeleted 可见
			rows[0].Deleted = true
			if err := cms.UpdateRevision(ctx, &rows[0]); err != nil {
				t.Fatalf("soft delete: %v", err)
			}

			_, total, err = cms.ListRevisions(ctx, "c1", false, 0, 0)
			if err != nil || total != 2 {
				t.Fatalf("expected 2 visible revisions, got %d err=%v", total, err)
			}

			all, total, err := cms.ListRevisions(ctx, "c1", true, 0, 0)
			if err != nil || total != 3 {
				t.Fatalf("expected 3 with deleted, got %d err=%v", total, err)
			}

			if !all[0].Deleted {
				t.Fatal("expected newest revision to carry deleted flag")
			}
		})
	}
}

func TestReplaceCollaborators(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			cms := target.conn.Cms()

			first := []model.CmsCollaborator{
				{ItemUID: "c1", UserUID: "u1", Role: "editor"},
				{ItemUID: "c1", UserUID: "u2", Role: "viewer"},
			}
			if err := cms.ReplaceCollaborators(ctx, "c1", first); err != nil {
				t.Fatalf("replace: %v", err)
			}

			second := []model.CmsCollaborator{
				{ItemUID: "c1", UserUID: "u3", Role: "editor"},
			}
			if err := cms.ReplaceCollaborators(ctx, "c1", second); err != nil {
				t.Fatalf("replace again: %v", err)
			}

			rows, err := cms.ListCollaborators(ctx, "c1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}

			if len(rows) != 1 || rows[0].UserUID != "u3" {
				t.Fatalf("expected replacement to be total, got %+v", rows)
			}
		})
	}
}

func TestHeadReaderCapability(t *testing.T) {
	ctx := context.Background()

	for _, target := range newTargets(t) {
		t.Run(target.name, func(t *testing.T) {
			cms := target.conn.Cms()

			hr, ok := cms.(connector.HeadReader)
			if !ok {
				t.Skip("backend does not implement HeadReader")
			}

			now := time.Now()
			item := newItemRow("c-head", "head-slug", "e1")
			item.Status = model.CmsStatusPublished
			item.PublishedAt = &now

			if err := cms.CreateItem(ctx, item); err != nil {
				t.Fatalf("create: %v", err)
			}

			head, err := hr.GetPublicHead(ctx, "head-slug", "post", "en")
			if err != nil {
				t.Fatalf("head: %v", err)
			}

			if head == nil || head.UID != "c-head" || head.ETag != "e1" {
				t.Fatalf("unexpected head: %+v", head)
			}

			// 草稿不可见
			draft := newItemRow("c-draft", "draft-slug", "e1")
			if err := cms.CreateItem(ctx, draft); err != nil {
				t.Fatalf("create draft: %v", err)
			}

			head, err = hr.GetPublicHead(ctx, "draft-slug", "post", "en")
			if err != nil {
				t.Fatalf("head for draft: %v", err)
			}

			if head != nil {
				t.Fatal("expected nil head for unpublished item")
			}
		})
	}
}
