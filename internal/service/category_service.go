package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"nnews-go/internal/model"
	"nnews-go/internal/repository"
	"nnews-go/pkg/log"
)

// CategoryService 定义了分类业务逻辑的接口。
type CategoryService interface {
	ListAll(ctx context.Context) ([]model.CategoryInfo, error)
	ListByParent(ctx context.Context, roles []string, parentID *int64) ([]model.CategoryInfo, error)
	GetByID(ctx context.Context, id int64) (*model.CategoryInfo, error)
	Insert(ctx context.Context, info model.CategoryInfo) (*model.CategoryInfo, error)
	Update(ctx context.Context, info model.CategoryInfo) (*model.CategoryInfo, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	articleRepo  repository.ArticleRepository
}

// NewCategoryService 创建一个新的 CategoryService。
func NewCategoryService(categoryRepo repository.CategoryRepository, articleRepo repository.ArticleRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, articleRepo: articleRepo}
}

func toCategoryInfos(categories []model.Category) []model.CategoryInfo {
	infos := make([]model.CategoryInfo, 0, len(categories))
	for i := range categories {
		infos = append(infos, model.ToCategoryInfo(&categories[i]))
	}
	return infos
}

// ListAll 返回所有分类。
func (s *categoryService) ListAll(ctx context.Context) ([]model.CategoryInfo, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toCategoryInfos(categories), nil
}

// ListByParent 返回含有可见文章的子分类；parentID 为 nil 时返回顶级分类。
func (s *categoryService) ListByParent(ctx context.Context, roles []string, parentID *int64) ([]model.CategoryInfo, error) {
	categories, err := s.categoryRepo.FindVisibleByParent(ctx, roles, parentID)
	if err != nil {
		return nil, err
	}
	return toCategoryInfos(categories), nil
}

// GetByID 根据 ID 获取分类。
func (s *categoryService) GetByID(ctx context.Context, id int64) (*model.CategoryInfo, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "category", id)
	}
	info := model.ToCategoryInfo(category)
	return &info, nil
}

// validate 是 Insert 和 Update 共用的校验：标题、父分类、标题唯一。selfID 为 0 表示新建。
func (s *categoryService) validate(ctx context.Context, info *model.CategoryInfo, selfID int64) error {
	info.Title = strings.TrimSpace(info.Title)
	if info.Title == "" {
		return invalidArgument("category title cannot be empty")
	}
	if utf8.RuneCountInString(info.Title) > 255 {
		return invalidArgument("category title cannot exceed 255 characters")
	}
	if info.ParentID != nil {
		parentID := *info.ParentID
		if parentID <= 0 {
			return invalidArgument("parent id must be greater than zero if provided")
		}
		if selfID > 0 && parentID == selfID {
			return invalidArgument("a category cannot be its own parent")
		}
		if _, err := s.categoryRepo.FindByID(ctx, parentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidArgument("parent category with id %d not found", parentID)
			}
			return err
		}
	}
	exists, err := s.categoryRepo.ExistsByTitle(ctx, info.Title, selfID)
	if err != nil {
		return err
	}
	if exists {
		return conflict("a category with the title '%s' already exists", info.Title)
	}
	return nil
}

// Insert 创建分类。
func (s *categoryService) Insert(ctx context.Context, info model.CategoryInfo) (*model.CategoryInfo, error) {
	if err := s.validate(ctx, &info, 0); err != nil {
		return nil, err
	}
	category := &model.Category{ParentID: info.ParentID, Title: info.Title}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	log.Infof("[CategoryService] 分类创建成功, CategoryID: %d, Title: %s", category.ID, category.Title)
	result := model.ToCategoryInfo(category)
	return &result, nil
}

// Update 更新分类的标题和父分类。
func (s *categoryService) Update(ctx context.Context, info model.CategoryInfo) (*model.CategoryInfo, error) {
	if info.CategoryID <= 0 {
		return nil, invalidArgument("category id must be greater than zero")
	}
	if err := s.validate(ctx, &info, info.CategoryID); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.FindByID(ctx, info.CategoryID)
	if err != nil {
		return nil, mapNotFound(err, "category", info.CategoryID)
	}
	category.Title = info.Title
	category.ParentID = info.ParentID
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	log.Infof("[CategoryService] 分类更新成功, CategoryID: %d", category.ID)
	result := model.ToCategoryInfo(category)
	return &result, nil
}

// Delete 删除分类；仍有文章或子分类引用时拒绝。
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return mapNotFound(err, "category", id)
	}
	articles, err := s.articleRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if articles > 0 {
		return conflict("cannot delete category because it has %d article(s) associated with it", articles)
	}
	children, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return conflict("cannot delete category because it has %d subcategory(ies) associated with it", children)
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.Infof("[CategoryService] 分类已删除, CategoryID: %d", id)
	return nil
}
