package repository

import (
	"context"

	"gorm.io/gorm"
	"nnews-go/internal/model"
)

const tagWithCount = "tags.*, (SELECT COUNT(*) FROM article_tags atg WHERE atg.tag_id = tags.id) AS article_count"

// TagRepository 接口定义了标签的数据操作方法。
type TagRepository interface {
	FindAll(ctx context.Context) ([]model.Tag, error)
	FindVisible(ctx context.Context, roles []string) ([]model.Tag, error)
	FindByID(ctx context.Context, id int64) (*model.Tag, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tag, error)
	ExistsByTitle(ctx context.Context, title string, excludeID int64) (bool, error)
	Create(ctx context.Context, tag *model.Tag) error
	Update(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, id int64) error
	Merge(ctx context.Context, sourceID, targetID int64) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository 创建一个新的 TagRepository 实例。
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// FindAll 返回所有标签及其文章数。
func (r *tagRepository) FindAll(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Select(tagWithCount).
		Order("tags.title").
		Find(&tags).Error
	return tags, err
}

// FindVisible 返回可见已发布文章使用过的标签，ArticleCount 为可见文章数。
func (r *tagRepository) FindVisible(ctx context.Context, roles []string) ([]model.Tag, error) {
	db := r.db.WithContext(ctx)
	visible := visibleTo(
		db.Table("articles").
			Select("atg.tag_id, COUNT(*) AS cnt").
			Joins("JOIN article_tags atg ON atg.article_id = articles.id"),
		roles,
	).Group("atg.tag_id")

	var tags []model.Tag
	err := db.Model(&model.Tag{}).
		Select("tags.*, v.cnt AS article_count").
		Joins("JOIN (?) v ON v.tag_id = tags.id", visible).
		Order("tags.title").
		Find(&tags).Error
	return tags, err
}

// FindByID 根据 ID 查找标签。
func (r *tagRepository) FindByID(ctx context.Context, id int64) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Select(tagWithCount).
		Where("tags.id = ?", id).
		First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindBySlug 根据 slug 查找标签。
func (r *tagRepository) FindBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// ExistsByTitle 大小写不敏感地检查标题是否已被其他标签占用。
func (r *tagRepository) ExistsByTitle(ctx context.Context, title string, excludeID int64) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Tag{}).Where("LOWER(title) = LOWER(?)", title)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// Create 在数据库中插入一个新的标签记录。
func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// Update 更新数据库中一个已存在的标签记录。
func (r *tagRepository) Update(ctx context.Context, tag *model.Tag) error {
	return r.db.WithContext(ctx).Save(tag).Error
}

// Delete 删除标签以及它与文章的关联。
func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM article_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Tag{}, id).Error
	})
}

// Merge 把 source 的文章关联移到 target（跳过已关联 target 的文章），然后删除 source。
func (r *tagRepository) Merge(ctx context.Context, sourceID, targetID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`INSERT INTO article_tags (article_id, tag_id)
			SELECT s.article_id, ? FROM article_tags s
			WHERE s.tag_id = ?
			AND NOT EXISTS (SELECT 1 FROM article_tags d WHERE d.article_id = s.article_id AND d.tag_id = ?)`,
			targetID, sourceID, targetID).Error
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM article_tags WHERE tag_id = ?", sourceID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Tag{}, sourceID).Error
	})
}
