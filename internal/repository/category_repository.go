package repository

import (
	"context"

	"gorm.io/gorm"
	"nnews-go/internal/model"
)

const categoryWithCount = "categories.*, (SELECT COUNT(*) FROM articles a WHERE a.category_id = categories.id) AS article_count"

// CategoryRepository 接口定义了分类的数据操作方法。
type CategoryRepository interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	FindVisibleByParent(ctx context.Context, roles []string, parentID *int64) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (*model.Category, error)
	ExistsByTitle(ctx context.Context, title string, excludeID int64) (bool, error)
	CountChildren(ctx context.Context, id int64) (int64, error)
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建一个新的 CategoryRepository 实例。
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// FindAll 返回所有分类及其文章数。
func (r *categoryRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Select(categoryWithCount).
		Order("categories.title").
		Find(&categories).Error
	return categories, err
}

// FindVisibleByParent 返回至少包含一篇可见已发布文章的分类，ArticleCount 为可见文章数。
// parentID 为 nil 时只返回顶级分类。
func (r *categoryRepository) FindVisibleByParent(ctx context.Context, roles []string, parentID *int64) ([]model.Category, error) {
	db := r.db.WithContext(ctx)
	visible := visibleTo(db.Table("articles").Select("articles.category_id, COUNT(*) AS cnt"), roles).
		Group("articles.category_id")

	q := db.Model(&model.Category{}).
		Select("categories.*, v.cnt AS article_count").
		Joins("JOIN (?) v ON v.category_id = categories.id", visible)
	if parentID != nil {
		q = q.Where("categories.parent_id = ?", *parentID)
	} else {
		q = q.Where("categories.parent_id IS NULL")
	}

	var categories []model.Category
	err := q.Order("categories.title").Find(&categories).Error
	return categories, err
}

// FindByID 根据 ID 查找分类。
func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Select(categoryWithCount).
		Where("categories.id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ExistsByTitle 大小写不敏感地检查标题是否已被其他分类占用。excludeID<=0 时不排除。
func (r *categoryRepository) ExistsByTitle(ctx context.Context, title string, excludeID int64) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Category{}).Where("LOWER(title) = LOWER(?)", title)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

// CountChildren 统计直接子分类数量。
func (r *categoryRepository) CountChildren(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

// Create 在数据库中插入一个新的分类记录。
func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// Update 更新数据库中一个已存在的分类记录。
func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete 根据 ID 删除分类。
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Category{}, id).Error
}
