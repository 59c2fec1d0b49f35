package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/errs"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/storage/kv"
	"github.com/yeisme/mediavault/pkg/internal/storage/object"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// newTestConfig 测试配置：本地对象后端 + 内存 KV.
func newTestConfig(t *testing.T) *configs.AppConfig {
	t.Helper()

	return &configs.AppConfig{
		Storage: configs.StorageConfig{
			Provider:                 configs.StorageProviderLocal,
			LocalRoot:                t.TempDir(),
			LocalPublicBase:          "/objects",
			SignedURLTTLMinutes:      15,
			SignedURLCacheTTLMinutes: 10,
			PendingMaxAgeMinutes:     60,
		},
		Upload: configs.UploadConfig{MaxBytes: 1 << 20},
		CMS:    configs.CMSConfig{LockTTLMinutes: 15},
	}
}

// localResolver 只认本地后端的测试版 ObjectResolver.
type localResolver struct {
	adapter object.Adapter
}

func (r localResolver) GetObjectAdapter() object.Adapter { return r.adapter }

func (r localResolver) ObjectAdapterFor(location string) (object.Adapter, error) {
	if location == r.adapter.Location() {
		return r.adapter, nil
	}

	return nil, fmt.Errorf("object backend %q not configured", location)
}

// newTestFm 内存 connector + 本地适配器组装的文件服务.
func newTestFm(t *testing.T) *FmService {
	t.Helper()

	cfg := newTestConfig(t)

	local, err := object.NewLocal(&cfg.Storage)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	return &FmService{
		files:   connector.NewMemory().Files(),
		objects: localResolver{adapter: local},
		cache:   cache.NewCache(store),
		hooks:   NewHookRunner(),
		cfg:     cfg,
	}
}

// mustUpload 经代理模式完成一次上传，返回 active 文件.
func mustUpload(t *testing.T, s *FmService, actor types.Actor, content string) *types.FileInfo {
	t.Helper()

	ctx := context.Background()

	init, err := s.UploadInit(ctx, actor, &types.UploadInitRequest{
		Purpose:   "attachment",
		Filename:  "report.pdf",
		MimeType:  "application/pdf",
		SizeBytes: int64(len(content)),
	})
	if err != nil {
		t.Fatalf("UploadInit: %v", err)
	}

	info, err := s.UploadProxied(ctx, actor, init.FileUID, strings.NewReader(content))
	if err != nil {
		t.Fatalf("UploadProxied: %v", err)
	}

	return info
}

func wantKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}

	if got := errs.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func TestUploadProxiedRoundTrip(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	init, err := s.UploadInit(ctx, actor, &types.UploadInitRequest{
		Purpose:   "avatar",
		Filename:  "me.png",
		MimeType:  "image/png",
		SizeBytes: 4,
	})
	if err != nil {
		t.Fatalf("UploadInit: %v", err)
	}

	// 本地后端不支持预签名，必须回退代理模式
	if init.Mode != types.UploadModeProxy {
		t.Fatalf("expected proxy mode on local backend, got %s", init.Mode)
	}

	if init.PresignedPut != nil {
		t.Fatal("proxy mode must not carry a presigned put")
	}

	info, err := s.UploadProxied(ctx, actor, init.FileUID, bytes.NewReader([]byte("1234")))
	if err != nil {
		t.Fatalf("UploadProxied: %v", err)
	}

	if info.Status != model.FileStatusActive {
		t.Fatalf("expected active, got %s", info.Status)
	}

	if info.ByteSize != 4 {
		t.Fatalf("expected 4 bytes, got %d", info.ByteSize)
	}

	// 内容可读且与写入一致
	got, rc, err := s.OpenContent(ctx, actor, init.FileUID)
	if err != nil {
		t.Fatalf("OpenContent: %v", err)
	}
	defer func() { _ = rc.Close() }()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatalf("read content: %v", err)
	}

	if buf.String() != "1234" {
		t.Fatalf("content mismatch: %q", buf.String())
	}

	if got.ETag != info.ETag {
		t.Fatalf("etag drifted between reads: %s vs %s", got.ETag, info.ETag)
	}
}

func TestUploadFinalizeIdempotent(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	info := mustUpload(t, s, actor, "hello")

	again, err := s.UploadFinalize(ctx, actor, &types.UploadFinalizeRequest{FileUID: info.UID})
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}

	if again.Version != info.Version || again.ETag != info.ETag {
		t.Fatalf("finalize is not idempotent: v%d/%s vs v%d/%s", again.Version, again.ETag, info.Version, info.ETag)
	}
}

func TestUploadFinalizeWithoutBytesKeepsPending(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	init, err := s.UploadInit(ctx, actor, &types.UploadInitRequest{
		Purpose:   "attachment",
		Filename:  "a.bin",
		MimeType:  "application/octet-stream",
		SizeBytes: 16,
	})
	if err != nil {
		t.Fatalf("UploadInit: %v", err)
	}

	_, err = s.UploadFinalize(ctx, actor, &types.UploadFinalizeRequest{FileUID: init.FileUID})
	wantKind(t, err, errs.KindValidation)

	row, err := s.files.GetFile(ctx, init.FileUID)
	if err != nil || row == nil {
		t.Fatalf("GetFile: %v", err)
	}

	if row.Status != model.FileStatusPending {
		t.Fatalf("row must stay pending, got %s", row.Status)
	}
}

func TestUploadProxiedSizeMismatchKeepsPending(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	init, err := s.UploadInit(ctx, actor, &types.UploadInitRequest{
		Purpose:   "attachment",
		Filename:  "a.bin",
		MimeType:  "application/octet-stream",
		SizeBytes: 10,
	})
	if err != nil {
		t.Fatalf("UploadInit: %v", err)
	}

	_, err = s.UploadProxied(ctx, actor, init.FileUID, strings.NewReader("short"))
	wantKind(t, err, errs.KindValidation)

	row, _ := s.files.GetFile(ctx, init.FileUID)
	if row == nil || row.Status != model.FileStatusPending {
		t.Fatalf("row must stay pending after size mismatch")
	}

	// 残留对象必须被清掉，重传可以干净开始
	adapter, _ := s.objects.ObjectAdapterFor(row.StorageLocation)
	if _, serr := adapter.Stat(ctx, row.ObjectKey); serr == nil {
		t.Fatal("partial object must be deleted after size mismatch")
	}
}

func TestUploadProxiedOversizeBodyCutOff(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	init, err := s.UploadInit(ctx, actor, &types.UploadInitRequest{
		Purpose:   "attachment",
		Filename:  "a.bin",
		MimeType:  "application/octet-stream",
		SizeBytes: 4,
	})
	if err != nil {
		t.Fatalf("UploadInit: %v", err)
	}

	body := strings.NewReader(strings.Repeat("x", 1<<16))

	_, err = s.UploadProxied(ctx, actor, init.FileUID, body)
	wantKind(t, err, errs.KindValidation)

	// 流在声明大小处截断，不会整段吞进存储
	if body.Len() == 0 {
		t.Fatal("oversize body must be cut off at the declared size")
	}

	row, _ := s.files.GetFile(ctx, init.FileUID)
	if row == nil || row.Status != model.FileStatusPending {
		t.Fatal("row must stay pending after oversize upload")
	}

	adapter, _ := s.objects.ObjectAdapterFor(row.StorageLocation)
	if _, serr := adapter.Stat(ctx, row.ObjectKey); serr == nil {
		t.Fatal("truncated object must be deleted")
	}
}

func TestUploadPolicyRejects(t *testing.T) {
	s := newTestFm(t)
	s.cfg.Upload = configs.UploadConfig{
		MaxBytes: 1 << 20,
		Purposes: map[string]configs.PurposePolicy{
			"avatar": {MaxBytes: 64, AllowedMimeTypes: []string{"image/*"}},
		},
	}

	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	cases := []struct {
		name string
		req  types.UploadInitRequest
	}{
		{"unknown purpose", types.UploadInitRequest{Purpose: "banner", Filename: "a.png", MimeType: "image/png", SizeBytes: 8}},
		{"mime not allowed", types.UploadInitRequest{Purpose: "avatar", Filename: "a.pdf", MimeType: "application/pdf", SizeBytes: 8}},
		{"size exceeded", types.UploadInitRequest{Purpose: "avatar", Filename: "a.png", MimeType: "image/png", SizeBytes: 128}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.UploadInit(ctx, actor, &tc.req)
			wantKind(t, err, errs.KindValidation)
		})
	}
}

func TestPatchFileCAS(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	info := mustUpload(t, s, actor, "hello")

	// 缺 If-Match 直接拒绝
	name := "renamed.pdf"

	_, err := s.PatchFile(ctx, actor, info.UID, &types.PatchFileRequest{Filename: &name})
	wantKind(t, err, errs.KindPreconditionRequired)

	// 正确的 etag 写入成功并轮换 etag
	updated, err := s.PatchFile(ctx, actor, info.UID, &types.PatchFileRequest{IfMatch: info.ETag, Filename: &name})
	if err != nil {
		t.Fatalf("PatchFile: %v", err)
	}

	if updated.OriginalFilename != name {
		t.Fatalf("filename not updated: %s", updated.OriginalFilename)
	}

	if updated.ETag == info.ETag || updated.Version != info.Version+1 {
		t.Fatalf("etag/version must rotate on write")
	}

	// 过期的 etag 被拒绝
	_, err = s.PatchFile(ctx, actor, info.UID, &types.PatchFileRequest{IfMatch: info.ETag, Filename: &name})
	wantKind(t, err, errs.KindPreconditionFailed)
}

func TestFileAuthz(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()
	owner := types.Actor{UserUID: "u1"}
	stranger := types.Actor{UserUID: "u2"}
	admin := types.Actor{UserUID: "root", IsAdmin: true}

	info := mustUpload(t, s, owner, "secret")

	// 私有文件对陌生人不可见
	if _, err := s.GetFile(ctx, stranger, info.UID); err == nil {
		t.Fatal("stranger must not read a private file")
	}

	// 管理员可见
	if _, err := s.GetFile(ctx, admin, info.UID); err != nil {
		t.Fatalf("admin read: %v", err)
	}

	// 陌生人不能改
	name := "x"

	_, err := s.PatchFile(ctx, stranger, info.UID, &types.PatchFileRequest{IfMatch: info.ETag, Filename: &name})
	wantKind(t, err, errs.KindAuthorization)

	// 公开后所有人可读元数据
	visibility := model.VisibilityPublic

	pub, err := s.PatchFile(ctx, owner, info.UID, &types.PatchFileRequest{IfMatch: info.ETag, Visibility: &visibility})
	if err != nil {
		t.Fatalf("publish visibility: %v", err)
	}

	got, err := s.GetFile(ctx, stranger, info.UID)
	if err != nil {
		t.Fatalf("stranger read public: %v", err)
	}

	if !got.IsPublic || got.ETag != pub.ETag {
		t.Fatalf("unexpected view: %+v", got)
	}
}

func TestListFilesScopedToOwner(t *testing.T) {
	s := newTestFm(t)
	ctx := context.Background()

	mustUpload(t, s, types.Actor{UserUID: "u1"}, "a")
	mustUpload(t, s, types.Actor{UserUID: "u1"}, "bb")
	mustUpload(t, s, types.Actor{UserUID: "u2"}, "ccc")

	// 非管理员只能看到自己的文件，owner 参数被忽略
	resp, err := s.ListFiles(ctx, types.Actor{UserUID: "u1"}, &types.ListFilesRequest{Owner: "u2"})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}

	if resp.Total != 2 {
		t.Fatalf("expected 2 files for u1, got %d", resp.Total)
	}

	for _, f := range resp.Files {
		if f.OwnerUserUID != "u1" {
			t.Fatalf("leaked file of %s", f.OwnerUserUID)
		}
	}

	// 管理员可以按 owner 过滤
	resp, err = s.ListFiles(ctx, types.Actor{IsAdmin: true}, &types.ListFilesRequest{Owner: "u2"})
	if err != nil {
		t.Fatalf("ListFiles admin: %v", err)
	}

	if resp.Total != 1 {
		t.Fatalf("expected 1 file for u2, got %d", resp.Total)
	}
}

func TestReapStalePending(t *testing.T) {
	s := newTestFm(t)
	// 年龄阈值为 0：所有 pending 行立即可回收
	s.cfg.Storage.PendingMaxAgeMinutes = 0

	ctx := context.Background()
	actor := types.Actor{UserUID: "u1"}

	init, err := s.UploadInit(ctx, actor, &types.UploadInitRequest{
		Purpose:   "attachment",
		Filename:  "stale.bin",
		MimeType:  "application/octet-stream",
		SizeBytes: 8,
	})
	if err != nil {
		t.Fatalf("UploadInit: %v", err)
	}

	active := mustUpload(t, s, actor, "keep me")

	reaped, err := s.ReapStalePending(ctx)
	if err != nil {
		t.Fatalf("ReapStalePending: %v", err)
	}

	if reaped != 1 {
		t.Fatalf("expected 1 reaped row, got %d", reaped)
	}

	if row, _ := s.files.GetFile(ctx, init.FileUID); row != nil {
		t.Fatal("stale pending row must be removed")
	}

	if _, err := s.GetFile(ctx, actor, active.UID); err != nil {
		t.Fatalf("active file must survive the janitor: %v", err)
	}
}
