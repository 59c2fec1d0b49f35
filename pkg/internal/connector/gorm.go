package connector

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/mediavault/pkg/internal/model"
)

var (
	_ Connector  = (*GormConnector)(nil)
	_ HeadReader = (*gormCmsStore)(nil)
)

// GormConnector 基于 GORM 的持久化实现，支持 PostgreSQL/MySQL/SQLite.
type GormConnector struct {
	files *gormFileStore
	cms   *gormCmsStore
	db    *gorm.DB
}

// NewGorm 创建 GORM 连接器.
func NewGorm(db *gorm.DB) *GormConnector {
	return &GormConnector{
		files: &gormFileStore{db: db},
		cms:   &gormCmsStore{db: db},
		db:    db,
	}
}

// Files 返回文件存储.
func (g *GormConnector) Files() FileStore { return g.files }

// Cms 返回内容存储.
func (g *GormConnector) Cms() CmsStore { return g.cms }

// Migrate 自动迁移全部元数据表.
func (g *GormConnector) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(
		&model.StoredObject{},
		&model.Variant{},
		&model.EntityLink{},
		&model.CmsItem{},
		&model.CmsRevision{},
		&model.CmsCollaborator{},
	)
}

// takeOrNil 把 gorm 的 record-not-found 折叠为 (nil, nil).
func takeOrNil[T any](err error, row *T) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return row, nil
}

// -------------------------- 文件存储 --------------------------

type gormFileStore struct {
	db *gorm.DB
}

func (s *gormFileStore) CreateFile(ctx context.Context, row *model.StoredObject) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *gormFileStore) GetFile(ctx context.Context, uid string) (*model.StoredObject, error) {
	var row model.StoredObject

	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&row).Error

	return takeOrNil(err, &row)
}

func (s *gormFileStore) ListFiles(ctx context.Context, filter FileFilter) ([]model.StoredObject, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.StoredObject{})

	if filter.Owner != "" {
		q = q.Where("owner_user_uid = ?", filter.Owner)
	}

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if filter.Purpose != "" {
		q = q.Where("purpose = ?", filter.Purpose)
	}

	if filter.MimePrefix != "" {
		q = q.Where("mime_type LIKE ?", filter.MimePrefix+"%")
	}

	if filter.Tag != "" {
		// tags_json 为 JSON 数组字符串，包含匹配足以筛选
		q = q.Where("tags_json LIKE ?", `%"`+filter.Tag+`"%`)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Size > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}

		q = q.Offset((page - 1) * filter.Size).Limit(filter.Size)
	}

	var rows []model.StoredObject
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (s *gormFileStore) UpdateFileCAS(ctx context.Context, row *model.StoredObject, expectedETag string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.StoredObject{}).
		Where("uid = ? AND etag = ?", row.UID, expectedETag).
		Select("*").
		Omit("id", "uid", "created_at").
		Updates(row)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (s *gormFileStore) DeleteFile(ctx context.Context, uid string) error {
	return s.db.WithContext(ctx).Where("uid = ?", uid).Delete(&model.StoredObject{}).Error
}

func (s *gormFileStore) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.StoredObject, error) {
	q := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.FileStatusPending, cutoff).
		Order("created_at ASC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []model.StoredObject
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *gormFileStore) CreateVariant(ctx context.Context, row *model.Variant) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *gormFileStore) GetVariant(ctx context.Context, uid string) (*model.Variant, error) {
	var row model.Variant

	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&row).Error

	return takeOrNil(err, &row)
}

func (s *gormFileStore) UpdateVariant(ctx context.Context, row *model.Variant) error {
	return s.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("uid = ?", row.UID).
		Select("*").
		Omit("id", "uid", "created_at").
		Updates(row).Error
}

func (s *gormFileStore) ListVariants(ctx context.Context, fileUID string) ([]model.Variant, error) {
	var rows []model.Variant

	err := s.db.WithContext(ctx).
		Where("variant_of_uid = ?", fileUID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *gormFileStore) DeleteVariant(ctx context.Context, uid string) error {
	return s.db.WithContext(ctx).Where("uid = ?", uid).Delete(&model.Variant{}).Error
}

func (s *gormFileStore) CreateLink(ctx context.Context, row *model.EntityLink) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *gormFileStore) GetLinkByID(ctx context.Context, id uint) (*model.EntityLink, error) {
	var row model.EntityLink

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error

	return takeOrNil(err, &row)
}

func (s *gormFileStore) FindLink(ctx context.Context, fileUID, entityType, entityUID, field string) (*model.EntityLink, error) {
	var row model.EntityLink

	err := s.db.WithContext(ctx).
		Where("file_uid = ? AND linked_entity_type = ? AND linked_entity_uid = ? AND linked_field = ?",
			fileUID, entityType, entityUID, field).
		First(&row).Error

	return takeOrNil(err, &row)
}

func (s *gormFileStore) ListLinks(ctx context.Context, fileUID string) ([]model.EntityLink, error) {
	var rows []model.EntityLink

	err := s.db.WithContext(ctx).
		Where("file_uid = ?", fileUID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *gormFileStore) DeleteLink(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.EntityLink{}).Error
}

func (s *gormFileStore) CountLinks(ctx context.Context, fileUID string) (int64, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.EntityLink{}).
		Where("file_uid = ?", fileUID).
		Count(&n).Error

	return n, err
}

// -------------------------- 内容存储 --------------------------

type gormCmsStore struct {
	db *gorm.DB
}

func (s *gormCmsStore) CreateItem(ctx context.Context, row *model.CmsItem) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *gormCmsStore) GetItem(ctx context.Context, uid string) (*model.CmsItem, error) {
	var row model.CmsItem

	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&row).Error

	return takeOrNil(err, &row)
}

func (s *gormCmsStore) GetItemBySlug(ctx context.Context, slug, postType, locale string) (*model.CmsItem, error) {
	var row model.CmsItem

	err := s.db.WithContext(ctx).
		Where("slug = ? AND post_type = ? AND locale = ?", slug, postType, locale).
		First(&row).Error

	return takeOrNil(err, &row)
}

func (s *gormCmsStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.CmsItem, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.CmsItem{})

	if filter.PostType != "" {
		q = q.Where("post_type = ?", filter.PostType)
	}

	if filter.Locale != "" {
		q = q.Where("locale = ?", filter.Locale)
	}

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if filter.SlugPrefix != "" {
		q = q.Where("slug LIKE ?", filter.SlugPrefix+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Size > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}

		q = q.Offset((page - 1) * filter.Size).Limit(filter.Size)
	}

	var rows []model.CmsItem
	if err := q.Order("updated_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (s *gormCmsStore) UpdateItemCAS(ctx context.Context, row *model.CmsItem, expectedETag string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.CmsItem{}).
		Where("uid = ? AND etag = ?", row.UID, expectedETag).
		Select("*").
		Omit("id", "uid", "created_at").
		Updates(row)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (s *gormCmsStore) DeleteItem(ctx context.Context, uid string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_uid = ?", uid).Delete(&model.CmsRevision{}).Error; err != nil {
			return err
		}

		if err := tx.Where("item_uid = ?", uid).Delete(&model.CmsCollaborator{}).Error; err != nil {
			return err
		}

		return tx.Where("uid = ?", uid).Delete(&model.CmsItem{}).Error
	})
}

func (s *gormCmsStore) ListItemsByStatus(ctx context.Context, status string) ([]model.CmsItem, error) {
	var rows []model.CmsItem

	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *gormCmsStore) AppendRevision(ctx context.Context, row *model.CmsRevision) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *gormCmsStore) GetRevision(ctx context.Context, itemUID string, revisionID uint) (*model.CmsRevision, error) {
	var row model.CmsRevision

	err := s.db.WithContext(ctx).
		Where("id = ? AND item_uid = ?", revisionID, itemUID).
		First(&row).Error

	return takeOrNil(err, &row)
}

func (s *gormCmsStore) ListRevisions(ctx context.Context, itemUID string, includeDeleted bool, page, size int) ([]model.CmsRevision, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.CmsRevision{}).Where("item_uid = ?", itemUID)

	if !includeDeleted {
		q = q.Where("deleted = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if size > 0 {
		if page <= 0 {
			page = 1
		}

		q = q.Offset((page - 1) * size).Limit(size)
	}

	var rows []model.CmsRevision
	if err := q.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (s *gormCmsStore) UpdateRevision(ctx context.Context, row *model.CmsRevision) error {
	return s.db.WithContext(ctx).
		Model(&model.CmsRevision{}).
		Where("id = ? AND item_uid = ?", row.ID, row.ItemUID).
		Update("deleted", row.Deleted).Error
}

func (s *gormCmsStore) DeleteRevision(ctx context.Context, itemUID string, revisionID uint) error {
	return s.db.WithContext(ctx).
		Where("id = ? AND item_uid = ?", revisionID, itemUID).
		Delete(&model.CmsRevision{}).Error
}

func (s *gormCmsStore) ReplaceCollaborators(ctx context.Context, itemUID string, rows []model.CmsCollaborator) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_uid = ?", itemUID).Delete(&model.CmsCollaborator{}).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		for i := range rows {
			rows[i].ID = 0
			rows[i].ItemUID = itemUID
		}

		return tx.Create(&rows).Error
	})
}

func (s *gormCmsStore) ListCollaborators(ctx context.Context, itemUID string) ([]model.CmsCollaborator, error) {
	var rows []model.CmsCollaborator

	err := s.db.WithContext(ctx).
		Where("item_uid = ?", itemUID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// GetPublicHead 只取公共头信息需要的列，避免反序列化内容体.
func (s *gormCmsStore) GetPublicHead(ctx context.Context, slug, postType, locale string) (*ItemHead, error) {
	var head ItemHead

	err := s.db.WithContext(ctx).
		Model(&model.CmsItem{}).
		Select("uid, slug, etag, version_number, published_at, updated_at").
		Where("slug = ? AND post_type = ? AND locale = ? AND status = ?",
			slug, postType, locale, model.CmsStatusPublished).
		First(&head).Error

	return takeOrNil(err, &head)
}
