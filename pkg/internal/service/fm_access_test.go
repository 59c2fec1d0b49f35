package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

func TestResolveAccessDefaultsByVisibility(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	info := mustUpload(t, s, actor, "private bytes")

	// 私有文件缺省走签名模式
	resp, err := s.ResolveContentAccess(ctx, actor, &types.ContentAccessRequest{FileUID: info.UID})
	if err != nil {
		t.Fatalf("ResolveContentAccess: %v", err)
	}

	if resp.ExpiresIn <= 0 {
		t.Fatalf("signed access must carry a ttl, got %d", resp.ExpiresIn)
	}

	// 公开后缺省走公共读 URL
	visibility := model.VisibilityPublic

	pub, err := s.PatchFile(ctx, actor, info.UID, &types.PatchFileRequest{IfMatch: info.ETag, Visibility: &visibility})
	if err != nil {
		t.Fatalf("PatchFile: %v", err)
	}

	resp, err = s.ResolveContentAccess(ctx, actor, &types.ContentAccessRequest{FileUID: pub.UID})
	if err != nil {
		t.Fatalf("public access: %v", err)
	}

	if resp.ExpiresIn != 0 {
		t.Fatalf("public access must not expire, got %d", resp.ExpiresIn)
	}

	if !strings.HasPrefix(resp.URL, "/objects/") {
		t.Fatalf("unexpected public url: %s", resp.URL)
	}
}

func TestResolveAccessAuthz(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	owner := types.Actor{UserUID: "u1"}
	stranger := types.Actor{UserUID: "u2"}
	admin := types.Actor{UserUID: "root", IsAdmin: true}

	info := mustUpload(t, s, owner, "private bytes")

	_, err := s.ResolveContentAccess(ctx, stranger, &types.ContentAccessRequest{FileUID: info.UID})
	wantKind(t, err, errs.KindAuthorization)

	// canonical 暴露物理地址，仅管理员
	_, err = s.ResolveContentAccess(ctx, owner, &types.ContentAccessRequest{FileUID: info.UID, Mode: types.AccessModeCanonical})
	wantKind(t, err, errs.KindAuthorization)

	resp, err := s.ResolveContentAccess(ctx, admin, &types.ContentAccessRequest{FileUID: info.UID, Mode: types.AccessModeCanonical})
	if err != nil {
		t.Fatalf("canonical access: %v", err)
	}

	if !strings.Contains(resp.URL, info.ObjectKey) {
		t.Fatalf("canonical url must point at the object: %s", resp.URL)
	}
}

func TestResolveAccessServesArchived(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	info := mustUpload(t, s, actor, "abc")

	// 被引用的文件删除时降级为归档
	if _, err := s.CreateLink(ctx, actor, &types.CreateLinkRequest{
		FileUID:          info.UID,
		LinkedEntityType: "cms_item",
		LinkedEntityUID:  "item-1",
		LinkedField:      "cover",
	}); err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	deleted, err := s.DeleteFile(ctx, actor, info.UID, &types.DeleteFileRequest{IfMatch: info.ETag})
	if err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	if deleted.Status != model.FileStatusArchived {
		t.Fatalf("linked file must degrade to archived, got %s", deleted.Status)
	}

	// 归档后已有引用的字节仍然可读
	if _, err := s.ResolveContentAccess(ctx, actor, &types.ContentAccessRequest{FileUID: info.UID}); err != nil {
		t.Fatalf("archived content must stay resolvable: %v", err)
	}

	_, rc, err := s.OpenContent(ctx, actor, info.UID)
	if err != nil {
		t.Fatalf("OpenContent on archived: %v", err)
	}
	defer func() { _ = rc.Close() }()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read archived content: %v", err)
	}

	if string(got) != "abc" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestResolveAccessRejectsPending(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	init, err := s.UploadInit(ctx, actor, &types.UploadInitRequest{
		Purpose:   "attachment",
		Filename:  "a.bin",
		MimeType:  "application/octet-stream",
		SizeBytes: 8,
	})
	if err != nil {
		t.Fatalf("UploadInit: %v", err)
	}

	_, err = s.ResolveContentAccess(ctx, actor, &types.ContentAccessRequest{FileUID: init.FileUID})
	wantKind(t, err, errs.KindConflict)
}

func TestResolveAccessVariant(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	parent := mustUpload(t, s, actor, "original")
	variant := mustUploadVariant(t, s, actor, parent.UID, "thumb")

	resp, err := s.ResolveContentAccess(ctx, actor, &types.ContentAccessRequest{VariantUID: variant.UID})
	if err != nil {
		t.Fatalf("variant access: %v", err)
	}

	if !strings.Contains(resp.URL, variant.ObjectKey) {
		t.Fatalf("url must address the variant object: %s", resp.URL)
	}
}

func TestSignedAccessReadThroughCache(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	info := mustUpload(t, s, actor, "cached")

	first, err := s.ResolveContentAccess(ctx, actor, &types.ContentAccessRequest{FileUID: info.UID, Mode: types.AccessModeSigned})
	if err != nil {
		t.Fatalf("first signed access: %v", err)
	}

	// 命中读穿缓存时返回同一条目
	second, err := s.ResolveContentAccess(ctx, actor, &types.ContentAccessRequest{FileUID: info.UID, Mode: types.AccessModeSigned})
	if err != nil {
		t.Fatalf("second signed access: %v", err)
	}

	if first.URL != second.URL || first.ExpiresIn != second.ExpiresIn {
		t.Fatalf("cache miss on second resolve: %+v vs %+v", first, second)
	}

	if exists, _ := s.cache.Exists(ctx, "surl:"+info.StorageLocation+":"+info.ObjectKey); !exists {
		t.Fatal("signed url must be cached under surl: prefix")
	}
}
