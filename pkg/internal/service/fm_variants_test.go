package service

import (
	"context"
	"strings"
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// mustUploadVariant 经代理模式为原件挂一个缩略图形态.
func mustUploadVariant(t *testing.T, s *FmService, actor types.Actor, fileUID, content string) *types.VariantInfo {
	t.Helper()

	ctx := context.Background()

	init, err := s.VariantUploadInit(ctx, actor, &types.VariantUploadInitRequest{
		VariantOfUID: fileUID,
		Kind:         model.VariantKindThumb,
		MimeType:     "image/png",
		SizeBytes:    int64(len(content)),
		Width:        64,
		Height:       64,
	})
	if err != nil {
		t.Fatalf("VariantUploadInit: %v", err)
	}

	info, err := s.VariantUploadProxied(ctx, actor, init.VariantUID, strings.NewReader(content))
	if err != nil {
		t.Fatalf("VariantUploadProxied: %v", err)
	}

	return info
}

func TestVariantLifecycle(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	parent := mustUpload(t, s, actor, "original bytes")
	variant := mustUploadVariant(t, s, actor, parent.UID, "thumb bytes")

	if variant.Status != model.FileStatusActive {
		t.Fatalf("expected active variant, got %s", variant.Status)
	}

	if variant.VariantOfUID != parent.UID || variant.Kind != model.VariantKindThumb {
		t.Fatalf("unexpected variant view: %+v", variant)
	}

	list, err := s.ListVariants(ctx, actor, parent.UID)
	if err != nil {
		t.Fatalf("ListVariants: %v", err)
	}

	if len(list) != 1 || list[0].UID != variant.UID {
		t.Fatalf("unexpected variant list: %+v", list)
	}

	// finalize 幂等
	again, err := s.VariantUploadFinalize(ctx, actor, variant.UID)
	if err != nil || again.UID != variant.UID {
		t.Fatalf("finalize must be idempotent: %v", err)
	}

	if err := s.DeleteVariant(ctx, actor, variant.UID); err != nil {
		t.Fatalf("DeleteVariant: %v", err)
	}

	adapter, _ := s.objects.ObjectAdapterFor(variant.StorageLocation)
	if _, err := adapter.Stat(ctx, variant.ObjectKey); err == nil {
		t.Fatal("variant bytes must be purged")
	}

	list, _ = s.ListVariants(ctx, actor, parent.UID)
	if len(list) != 0 {
		t.Fatalf("variant row must be gone, got %d", len(list))
	}
}

func TestVariantRequiresActiveParent(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	parent := mustUpload(t, s, actor, "to be archived")

	if _, err := s.ArchiveFile(ctx, actor, parent.UID, parent.ETag); err != nil {
		t.Fatalf("ArchiveFile: %v", err)
	}

	_, err := s.VariantUploadInit(ctx, actor, &types.VariantUploadInitRequest{
		VariantOfUID: parent.UID,
		Kind:         model.VariantKindThumb,
		MimeType:     "image/png",
		SizeBytes:    8,
	})
	wantKind(t, err, errs.KindConflict)
}
