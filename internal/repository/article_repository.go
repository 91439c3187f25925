// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nnews-go/internal/model"
)

// ArticleFilter 描述公开列表的过滤条件。Roles 决定可见性，其余字段为空时不生效。
type ArticleFilter struct {
	Roles      []string
	CategoryID *int64
	TagSlug    string
	Keyword    string
}

// ArticleRepository 接口定义了文章的数据操作方法。
type ArticleRepository interface {
	ListAll(ctx context.Context, categoryID *int64, offset, limit int) ([]model.Article, int64, error)
	ListVisible(ctx context.Context, filter ArticleFilter, offset, limit int) ([]model.Article, int64, error)
	FindByID(ctx context.Context, id int64) (*model.Article, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Article, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]model.Article, error)
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	Create(ctx context.Context, article *model.Article) error
	Update(ctx context.Context, article *model.Article) error
	Delete(ctx context.Context, id int64) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository 创建一个新的 ArticleRepository 实例。
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Tags").Preload("Roles")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("articles.date_at DESC").Order("articles.id DESC")
}

func (r *articleRepository) page(q *gorm.DB, offset, limit int) ([]model.Article, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var articles []model.Article
	if total == 0 {
		return articles, 0, nil
	}
	err := withAssociations(newestFirst(q)).Offset(offset).Limit(limit).Find(&articles).Error
	return articles, total, err
}

// ListAll 返回所有状态的文章，可按分类过滤。供后台管理使用。
func (r *articleRepository) ListAll(ctx context.Context, categoryID *int64, offset, limit int) ([]model.Article, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Article{})
	if categoryID != nil {
		q = q.Where("articles.category_id = ?", *categoryID)
	}
	return r.page(q.Session(&gorm.Session{}), offset, limit)
}

// ListVisible 返回对角色可见的已发布文章。
func (r *articleRepository) ListVisible(ctx context.Context, f ArticleFilter, offset, limit int) ([]model.Article, int64, error) {
	q := visibleTo(r.db.WithContext(ctx).Model(&model.Article{}), f.Roles)
	if f.CategoryID != nil {
		q = q.Where("articles.category_id = ?", *f.CategoryID)
	}
	if f.TagSlug != "" {
		q = q.Where("EXISTS (SELECT 1 FROM article_tags atg JOIN tags t ON t.id = atg.tag_id WHERE atg.article_id = articles.id AND t.slug = ?)", f.TagSlug)
	}
	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		q = q.Where("(articles.title LIKE ? OR articles.content LIKE ?)", like, like)
	}
	return r.page(q.Session(&gorm.Session{}), offset, limit)
}

// FindByID 根据 ID 查找文章并加载分类、标签和角色。
func (r *articleRepository) FindByID(ctx context.Context, id int64) (*model.Article, error) {
	var article model.Article
	err := withAssociations(r.db.WithContext(ctx)).Where("id = ?", id).First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// FindByIDs 批量查找，不保证顺序。
func (r *articleRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Article, error) {
	var articles []model.Article
	if len(ids) == 0 {
		return articles, nil
	}
	err := withAssociations(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&articles).Error
	return articles, err
}

// ListDueScheduled 返回到期的定时文章。
func (r *articleRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]model.Article, error) {
	var articles []model.Article
	err := withAssociations(r.db.WithContext(ctx)).
		Where("status = ? AND date_at <= ?", model.StatusScheduled, now).
		Order("date_at ASC").
		Find(&articles).Error
	return articles, err
}

// CountByCategory 统计某个分类下的文章数（所有状态）。
func (r *articleRepository) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Article{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// Create 插入文章。标签必须已经存在（带 ID），角色随文章一起插入。
func (r *articleRepository) Create(ctx context.Context, article *model.Article) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category").Create(article).Error; err != nil {
			return err
		}
		return r.reload(tx, article)
	})
}

// Update 保存文章字段，并把标签和角色关联替换为 article 上的集合。
// 没有乐观锁：同一篇文章的并发更新以最后一次提交为准。
func (r *articleRepository) Update(ctx context.Context, article *model.Article) error {
	// Association 的 Clear/Replace 会改写 article.Tags，先取出目标集合
	tags := article.Tags
	roles := make([]model.ArticleRole, 0, len(article.Roles))
	for _, role := range article.Roles {
		roles = append(roles, model.ArticleRole{ArticleID: article.ID, Slug: role.Slug, Name: role.Name})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(article).Error; err != nil {
			return err
		}
		tagAssoc := tx.Model(article).Association("Tags")
		var err error
		if len(tags) > 0 {
			err = tagAssoc.Replace(tags)
		} else {
			err = tagAssoc.Clear()
		}
		if err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&model.ArticleRole{}).Error; err != nil {
			return err
		}
		if len(roles) > 0 {
			if err := tx.Create(&roles).Error; err != nil {
				return err
			}
		}
		return r.reload(tx, article)
	})
}

// reload 重新读取文章，使返回值带上数据库生成的字段和完整关联。
func (r *articleRepository) reload(tx *gorm.DB, article *model.Article) error {
	var fresh model.Article
	if err := withAssociations(tx).Where("id = ?", article.ID).First(&fresh).Error; err != nil {
		return err
	}
	*article = fresh
	return nil
}

// Delete 删除文章及其标签、角色关联。
func (r *articleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM article_tags WHERE article_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&model.ArticleRole{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Article{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
