package cache_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yeisme/mediavault/pkg/cache"
)

// accessEntry 测试用的签名 URL 缓存条目.
type accessEntry struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// mockKVStore 模拟KV存储实现.
type mockKVStore struct {
	data map[string][]byte
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{
		data: make(map[string][]byte),
	}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, exists := m.data[key]; exists {
		return value, nil
	}

	return nil, fmt.Errorf("key not found")
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockKVStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(ctx context.Context, key string) (bool, error) {
	_, exists := m.data[key]
	return exists, nil
}

func (m *mockKVStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}

	return keys, nil
}

func (m *mockKVStore) Close() error {
	return nil
}

// TestCacheRoundTrip 测试 Set/Get.
func TestCacheRoundTrip(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	// 获取不存在的键
	if _, err := cache.Get[accessEntry](ctx, c, "surl:missing"); err == nil {
		t.Error("Expected error for nonexistent key")
	}

	entry := accessEntry{URL: "https://cdn.example.com/a.png?sig=x", ExpiresIn: 600}

	if err := cache.Set(ctx, c, "surl:a", entry, 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	got, err := cache.Get[accessEntry](ctx, c, "surl:a")
	if err != nil {
		t.Fatalf("Failed to get cache: %v", err)
	}

	if got != entry {
		t.Errorf("Retrieved entry %+v does not match original %+v", got, entry)
	}
}

// TestCacheDeleteExists 测试 Delete 与 Exists.
func TestCacheDeleteExists(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	if err := cache.Set(ctx, c, "surl:b", accessEntry{URL: "u"}, 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	exists, err := c.Exists(ctx, "surl:b")
	if err != nil || !exists {
		t.Fatalf("Key should exist before deletion, exists=%v err=%v", exists, err)
	}

	if err := c.Delete(ctx, "surl:b"); err != nil {
		t.Fatalf("Failed to delete cache: %v", err)
	}

	exists, err = c.Exists(ctx, "surl:b")
	if err != nil {
		t.Fatalf("Failed to check existence after deletion: %v", err)
	}

	if exists {
		t.Error("Key should not exist after deletion")
	}
}

// TestGetOrSet 测试读穿模式.
func TestGetOrSet(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	callCount := 0
	getter := func() (accessEntry, error) {
		callCount++
		return accessEntry{URL: "https://cdn.example.com/c.png", ExpiresIn: 300}, nil
	}

	// 第一次调用，应该调用getter
	e1, err := cache.GetOrSet(ctx, c, "surl:c", getter, 0)
	if err != nil {
		t.Fatalf("Failed to get or set: %v", err)
	}

	if callCount != 1 {
		t.Errorf("Expected getter to be called once, got %d", callCount)
	}

	// 第二次调用，应该从缓存获取
	e2, err := cache.GetOrSet(ctx, c, "surl:c", getter, 0)
	if err != nil {
		t.Fatalf("Failed to get or set: %v", err)
	}

	if callCount != 1 {
		t.Errorf("Expected getter to be called only once, got %d", callCount)
	}

	if e1 != e2 {
		t.Errorf("Results don't match: %+v vs %+v", e1, e2)
	}
}

// TestGetOrSet_GetterError 测试 getter 返回错误的情况.
func TestGetOrSet_GetterError(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	getter := func() (accessEntry, error) {
		return accessEntry{}, errors.New("presign failed")
	}

	if _, err := cache.GetOrSet(ctx, c, "surl:err", getter, 0); err == nil {
		t.Error("Expected error from getter")
	}
}

// TestCacheClear 测试 Clear.
func TestCacheClear(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	for i := range 3 {
		key := fmt.Sprintf("surl:%d", i)
		if err := cache.Set(ctx, c, key, accessEntry{URL: key}, 0); err != nil {
			t.Fatalf("Failed to set cache %d: %v", i, err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}

	if len(store.data) != 0 {
		t.Errorf("Expected 0 items after clear, got %d", len(store.data))
	}
}
