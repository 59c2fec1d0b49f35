package connector

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yeisme/mediavault/pkg/internal/model"
)

var _ Connector = (*MemoryConnector)(nil)

// MemoryConnector 内存参考实现，单进程内表现与 GORM 实现一致的语义.
// 主要用于测试与无数据库的本地运行.
type MemoryConnector struct {
	files *memoryFileStore
	cms   *memoryCmsStore
}

// NewMemory 创建内存连接器.
func NewMemory() *MemoryConnector {
	return &MemoryConnector{
		files: &memoryFileStore{
			files:    map[string]*model.StoredObject{},
			variants: map[string]*model.Variant{},
			links:    map[uint]*model.EntityLink{},
		},
		cms: &memoryCmsStore{
			items:         map[string]*model.CmsItem{},
			revisions:     map[string][]*model.CmsRevision{},
			collaborators: map[string][]model.CmsCollaborator{},
		},
	}
}

// Files 返回文件存储.
func (m *MemoryConnector) Files() FileStore { return m.files }

// Cms 返回内容存储.
func (m *MemoryConnector) Cms() CmsStore { return m.cms }

// Migrate 内存实现无需迁移.
func (m *MemoryConnector) Migrate(ctx context.Context) error { return nil }

// -------------------------- 文件存储 --------------------------

type memoryFileStore struct {
	mu       sync.RWMutex
	files    map[string]*model.StoredObject
	variants map[string]*model.Variant
	links    map[uint]*model.EntityLink

	fileSeq uint
	varSeq  uint
	linkSeq uint
}

func copyFile(r *model.StoredObject) *model.StoredObject {
	c := *r
	if r.ArchivedAt != nil {
		t := *r.ArchivedAt
		c.ArchivedAt = &t
	}

	return &c
}

func (s *memoryFileStore) CreateFile(ctx context.Context, row *model.StoredObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fileSeq++
	row.ID = s.fileSeq

	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now

	s.files[row.UID] = copyFile(row)

	return nil
}

func (s *memoryFileStore) GetFile(ctx context.Context, uid string) (*model.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.files[uid]
	if !ok {
		return nil, nil
	}

	return copyFile(r), nil
}

func matchFile(r *model.StoredObject, f FileFilter) bool {
	if f.Owner != "" && r.OwnerUserUID != f.Owner {
		return false
	}

	if f.Status != "" && r.Status != f.Status {
		return false
	}

	if f.Purpose != "" && r.Purpose != f.Purpose {
		return false
	}

	if f.MimePrefix != "" && !strings.HasPrefix(r.MimeType, f.MimePrefix) {
		return false
	}

	if f.Tag != "" && !strings.Contains(r.TagsJSON, `"`+f.Tag+`"`) {
		return false
	}

	return true
}

func (s *memoryFileStore) ListFiles(ctx context.Context, filter FileFilter) ([]model.StoredObject, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.StoredObject, 0)

	for _, r := range s.files {
		if matchFile(r, filter) {
			matched = append(matched, r)
		}
	}

	// 与 GORM 实现一致：创建时间倒序，ID 兜底保证稳定
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}

		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start, end := pageBounds(len(matched), filter.Page, filter.Size)

	out := make([]model.StoredObject, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, *copyFile(r))
	}

	return out, total, nil
}

func (s *memoryFileStore) UpdateFileCAS(ctx context.Context, row *model.StoredObject, expectedETag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.files[row.UID]
	if !ok || cur.ETag != expectedETag {
		return false, nil
	}

	row.ID = cur.ID
	row.CreatedAt = cur.CreatedAt
	row.UpdatedAt = time.Now()

	s.files[row.UID] = copyFile(row)

	return true, nil
}

func (s *memoryFileStore) DeleteFile(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, uid)

	return nil
}

func (s *memoryFileStore) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StoredObject, 0)

	for _, r := range s.files {
		if r.Status == model.FileStatusPending && r.CreatedAt.Before(cutoff) {
			out = append(out, *copyFile(r))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}

	return out, nil
}

func (s *memoryFileStore) CreateVariant(ctx context.Context, row *model.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.varSeq++
	row.ID = s.varSeq

	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now

	c := *row
	s.variants[row.UID] = &c

	return nil
}

func (s *memoryFileStore) GetVariant(ctx context.Context, uid string) (*model.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.variants[uid]
	if !ok {
		return nil, nil
	}

	c := *r

	return &c, nil
}

func (s *memoryFileStore) UpdateVariant(ctx context.Context, row *model.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.variants[row.UID]; ok {
		row.ID = cur.ID
		row.CreatedAt = cur.CreatedAt
	}

	row.UpdatedAt = time.Now()

	c := *row
	s.variants[row.UID] = &c

	return nil
}

func (s *memoryFileStore) ListVariants(ctx context.Context, fileUID string) ([]model.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Variant, 0)

	for _, r := range s.variants {
		if r.VariantOfUID == fileUID {
			out = append(out, *r)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *memoryFileStore) DeleteVariant(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.variants, uid)

	return nil
}

func (s *memoryFileStore) CreateLink(ctx context.Context, row *model.EntityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.linkSeq++
	row.ID = s.linkSeq
	row.CreatedAt = time.Now()

	c := *row
	s.links[row.ID] = &c

	return nil
}

func (s *memoryFileStore) GetLinkByID(ctx context.Context, id uint) (*model.EntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.links[id]
	if !ok {
		return nil, nil
	}

	c := *r

	return &c, nil
}

func (s *memoryFileStore) FindLink(ctx context.Context, fileUID, entityType, entityUID, field string) (*model.EntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.links {
		if r.FileUID == fileUID && r.LinkedEntityType == entityType &&
			r.LinkedEntityUID == entityUID && r.LinkedField == field {
			c := *r
			return &c, nil
		}
	}

	return nil, nil
}

func (s *memoryFileStore) ListLinks(ctx context.Context, fileUID string) ([]model.EntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.EntityLink, 0)

	for _, r := range s.links {
		if r.FileUID == fileUID {
			out = append(out, *r)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *memoryFileStore) DeleteLink(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.links, id)

	return nil
}

func (s *memoryFileStore) CountLinks(ctx context.Context, fileUID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64

	for _, r := range s.links {
		if r.FileUID == fileUID {
			n++
		}
	}

	return n, nil
}

// -------------------------- 内容存储 --------------------------

type memoryCmsStore struct {
	mu            sync.RWMutex
	items         map[string]*model.CmsItem
	revisions     map[string][]*model.CmsRevision
	collaborators map[string][]model.CmsCollaborator

	itemSeq uint
	revSeq  uint
}

func copyItem(r *model.CmsItem) *model.CmsItem {
	c := *r

	copyTime := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}

		v := *t

		return &v
	}

	c.PublishedAt = copyTime(r.PublishedAt)
	c.FirstPublishedAt = copyTime(r.FirstPublishedAt)
	c.TrashedAt = copyTime(r.TrashedAt)
	c.LockedAt = copyTime(r.LockedAt)

	return &c
}

func (s *memoryCmsStore) CreateItem(ctx context.Context, row *model.CmsItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.itemSeq++
	row.ID = s.itemSeq

	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now

	s.items[row.UID] = copyItem(row)

	return nil
}

func (s *memoryCmsStore) GetItem(ctx context.Context, uid string) (*model.CmsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.items[uid]
	if !ok {
		return nil, nil
	}

	return copyItem(r), nil
}

func (s *memoryCmsStore) GetItemBySlug(ctx context.Context, slug, postType, locale string) (*model.CmsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.items {
		if r.Slug == slug && r.PostType == postType && r.Locale == locale {
			return copyItem(r), nil
		}
	}

	return nil, nil
}

func matchItem(r *model.CmsItem, f ItemFilter) bool {
	if f.PostType != "" && r.PostType != f.PostType {
		return false
	}

	if f.Locale != "" && r.Locale != f.Locale {
		return false
	}

	if f.Status != "" && r.Status != f.Status {
		return false
	}

	if f.SlugPrefix != "" && !strings.HasPrefix(r.Slug, f.SlugPrefix) {
		return false
	}

	return true
}

func (s *memoryCmsStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.CmsItem, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.CmsItem, 0)

	for _, r := range s.items {
		if matchItem(r, filter) {
			matched = append(matched, r)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].ID > matched[j].ID
		}

		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	start, end := pageBounds(len(matched), filter.Page, filter.Size)

	out := make([]model.CmsItem, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, *copyItem(r))
	}

	return out, total, nil
}

func (s *memoryCmsStore) UpdateItemCAS(ctx context.Context, row *model.CmsItem, expectedETag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[row.UID]
	if !ok || cur.ETag != expectedETag {
		return false, nil
	}

	row.ID = cur.ID
	row.CreatedAt = cur.CreatedAt
	row.UpdatedAt = time.Now()

	s.items[row.UID] = copyItem(row)

	return true, nil
}

func (s *memoryCmsStore) DeleteItem(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, uid)
	delete(s.revisions, uid)
	delete(s.collaborators, uid)

	return nil
}

func (s *memoryCmsStore) ListItemsByStatus(ctx context.Context, status string) ([]model.CmsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CmsItem, 0)

	for _, r := range s.items {
		if r.Status == status {
			out = append(out, *copyItem(r))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *memoryCmsStore) AppendRevision(ctx context.Context, row *model.CmsRevision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revSeq++
	row.ID = s.revSeq
	row.CreatedAt = time.Now()

	c := *row
	s.revisions[row.ItemUID] = append(s.revisions[row.ItemUID], &c)

	return nil
}

func (s *memoryCmsStore) GetRevision(ctx context.Context, itemUID string, revisionID uint) (*model.CmsRevision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.revisions[itemUID] {
		if r.ID == revisionID {
			c := *r
			return &c, nil
		}
	}

	return nil, nil
}

func (s *memoryCmsStore) ListRevisions(ctx context.Context, itemUID string, includeDeleted bool, page, size int) ([]model.CmsRevision, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.CmsRevision, 0)

	for _, r := range s.revisions[itemUID] {
		if !includeDeleted && r.Deleted {
			continue
		}

		matched = append(matched, r)
	}

	// 最新的快照在前
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start, end := pageBounds(len(matched), page, size)

	out := make([]model.CmsRevision, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, *r)
	}

	return out, total, nil
}

func (s *memoryCmsStore) UpdateRevision(ctx context.Context, row *model.CmsRevision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.revisions[row.ItemUID] {
		if r.ID == row.ID {
			c := *row
			c.CreatedAt = r.CreatedAt
			s.revisions[row.ItemUID][i] = &c

			return nil
		}
	}

	return nil
}

func (s *memoryCmsStore) DeleteRevision(ctx context.Context, itemUID string, revisionID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	revs := s.revisions[itemUID]
	for i, r := range revs {
		if r.ID == revisionID {
			s.revisions[itemUID] = append(revs[:i], revs[i+1:]...)
			return nil
		}
	}

	return nil
}

func (s *memoryCmsStore) ReplaceCollaborators(ctx context.Context, itemUID string, rows []model.CmsCollaborator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make([]model.CmsCollaborator, len(rows))
	copy(replaced, rows)
	s.collaborators[itemUID] = replaced

	return nil
}

func (s *memoryCmsStore) ListCollaborators(ctx context.Context, itemUID string) ([]model.CmsCollaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.collaborators[itemUID]
	out := make([]model.CmsCollaborator, len(rows))
	copy(out, rows)

	return out, nil
}

// pageBounds 计算分页的切片边界；page/size 非法时返回全量.
func pageBounds(n, page, size int) (int, int) {
	if size <= 0 {
		return 0, n
	}

	if page <= 0 {
		page = 1
	}

	start := (page - 1) * size
	if start > n {
		start = n
	}

	end := start + size
	if end > n {
		end = n
	}

	return start, end
}
