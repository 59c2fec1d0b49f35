package object_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/storage/object"
)

func newLocalAdapter(t *testing.T) *object.LocalAdapter {
	t.Helper()

	cfg := &configs.StorageConfig{
		LocalRoot:       t.TempDir(),
		LocalPublicBase: "/objects",
	}

	a, err := object.NewLocal(cfg)
	if err != nil {
		t.Fatalf("create local adapter: %v", err)
	}

	return a
}

func TestLocalPutProxiedRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newLocalAdapter(t)

	content := "hello mediavault"

	written, err := a.PutProxied(ctx, "u1/2026/08/photo.png", strings.NewReader(content), int64(len(content)), "image/png")
	if err != nil {
		t.Fatalf("put proxied: %v", err)
	}

	if written != int64(len(content)) {
		t.Fatalf("expected %d bytes written, got %d", len(content), written)
	}

	rc, err := a.Open(ctx, "u1/2026/08/photo.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(got) != content {
		t.Fatalf("content mismatch: %q", got)
	}

	st, err := a.Stat(ctx, "u1/2026/08/photo.png")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if st.Size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), st.Size)
	}
}

func TestLocalStatNotExist(t *testing.T) {
	ctx := context.Background()
	a := newLocalAdapter(t)

	if _, err := a.Stat(ctx, "missing/key"); err != object.ErrNotExist {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLocalDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	a := newLocalAdapter(t)

	if _, err := a.PutProxied(ctx, "k", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("put proxied: %v", err)
	}

	if err := a.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// 再删一次不报错
	if err := a.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if _, err := a.Stat(ctx, "k"); err != object.ErrNotExist {
		t.Fatalf("expected ErrNotExist after delete, got %v", err)
	}
}

func TestLocalPresignUnsupported(t *testing.T) {
	ctx := context.Background()
	a := newLocalAdapter(t)

	put, err := a.PresignPut(ctx, "k", "image/png", 1, 0)
	if err != nil {
		t.Fatalf("presign put: %v", err)
	}

	if put != nil {
		t.Fatal("expected nil presign for local backend")
	}
}

func TestLocalRejectsTraversalKey(t *testing.T) {
	ctx := context.Background()
	a := newLocalAdapter(t)

	for _, key := range []string{"../escape", "a/../../b", "..", ""} {
		if _, err := a.PutProxied(ctx, key, strings.NewReader("x"), 1, ""); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestLocalReadAccessModes(t *testing.T) {
	ctx := context.Background()
	a := newLocalAdapter(t)

	pub, err := a.ReadAccess(ctx, "a/b.png", object.AccessPublic, 0)
	if err != nil {
		t.Fatalf("public access: %v", err)
	}

	if pub != "/objects/a/b.png" {
		t.Fatalf("unexpected public path: %s", pub)
	}

	canonical, err := a.ReadAccess(ctx, "a/b.png", object.AccessCanonical, 0)
	if err != nil {
		t.Fatalf("canonical access: %v", err)
	}

	if !strings.HasSuffix(canonical, "a/b.png") || !strings.HasPrefix(canonical, "/") {
		t.Fatalf("unexpected canonical path: %s", canonical)
	}
}
