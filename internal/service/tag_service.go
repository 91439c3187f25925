package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"nnews-go/internal/model"
	"nnews-go/internal/repository"
	"nnews-go/pkg/log"
	"nnews-go/pkg/slug"
)

// TagService 定义了标签业务逻辑的接口。
type TagService interface {
	ListAll(ctx context.Context) ([]model.TagInfo, error)
	ListByRoles(ctx context.Context, roles []string) ([]model.TagInfo, error)
	GetByID(ctx context.Context, id int64) (*model.TagInfo, error)
	Insert(ctx context.Context, info model.TagInfo) (*model.TagInfo, error)
	Update(ctx context.Context, info model.TagInfo) (*model.TagInfo, error)
	Delete(ctx context.Context, id int64) error
	MergeTags(ctx context.Context, sourceID, targetID int64) error
}

type tagService struct {
	tagRepo repository.TagRepository
}

// NewTagService 创建一个新的 TagService。
func NewTagService(tagRepo repository.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

func toTagInfos(tags []model.Tag) []model.TagInfo {
	infos := make([]model.TagInfo, 0, len(tags))
	for i := range tags {
		infos = append(infos, model.ToTagInfo(&tags[i]))
	}
	return infos
}

// ListAll 返回所有标签。
func (s *tagService) ListAll(ctx context.Context) ([]model.TagInfo, error) {
	tags, err := s.tagRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toTagInfos(tags), nil
}

// ListByRoles 返回可见文章使用过的标签。
func (s *tagService) ListByRoles(ctx context.Context, roles []string) ([]model.TagInfo, error) {
	tags, err := s.tagRepo.FindVisible(ctx, roles)
	if err != nil {
		return nil, err
	}
	return toTagInfos(tags), nil
}

// GetByID 根据 ID 获取标签。
func (s *tagService) GetByID(ctx context.Context, id int64) (*model.TagInfo, error) {
	tag, err := s.tagRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "tag", id)
	}
	info := model.ToTagInfo(tag)
	return &info, nil
}

// uniqueSlug 由标题生成 slug；被其他标签占用时依次追加 1、2、3……
func (s *tagService) uniqueSlug(ctx context.Context, title string, selfID int64) (string, error) {
	base := slug.Generate(title)
	if base == "" {
		return "", invalidArgument("tag title must contain at least one letter or digit")
	}
	for c := 0; ; c++ {
		candidate := base
		if c > 0 {
			candidate = slug.WithSuffix(base, strconv.Itoa(c))
		}
		existing, err := s.tagRepo.FindBySlug(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == selfID {
			return candidate, nil
		}
	}
}

// Insert 创建标签，slug 总是由标题生成。
func (s *tagService) Insert(ctx context.Context, info model.TagInfo) (*model.TagInfo, error) {
	title := strings.TrimSpace(info.Title)
	if title == "" {
		return nil, invalidArgument("tag title cannot be empty")
	}
	exists, err := s.tagRepo.ExistsByTitle(ctx, title, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("a tag with the title '%s' already exists", title)
	}
	tagSlug, err := s.uniqueSlug(ctx, title, 0)
	if err != nil {
		return nil, err
	}
	tag, err := model.NewTag(title, tagSlug)
	if err != nil {
		return nil, err
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	log.Infof("[TagService] 标签创建成功, TagID: %d, Slug: %s", tag.ID, tag.Slug)
	result := model.ToTagInfo(tag)
	return &result, nil
}

// Update 修改标签标题并重新生成 slug。
func (s *tagService) Update(ctx context.Context, info model.TagInfo) (*model.TagInfo, error) {
	if info.TagID <= 0 {
		return nil, invalidArgument("tag id must be greater than zero")
	}
	title := strings.TrimSpace(info.Title)
	if title == "" {
		return nil, invalidArgument("tag title cannot be empty")
	}
	exists, err := s.tagRepo.ExistsByTitle(ctx, title, info.TagID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("a tag with the title '%s' already exists", title)
	}
	tag, err := s.tagRepo.FindByID(ctx, info.TagID)
	if err != nil {
		return nil, mapNotFound(err, "tag", info.TagID)
	}
	tagSlug, err := s.uniqueSlug(ctx, title, tag.ID)
	if err != nil {
		return nil, err
	}
	if err := tag.SetTitle(title); err != nil {
		return nil, err
	}
	if err := tag.SetSlug(tagSlug); err != nil {
		return nil, err
	}
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return nil, err
	}
	result := model.ToTagInfo(tag)
	return &result, nil
}

// Delete 删除标签。
func (s *tagService) Delete(ctx context.Context, id int64) error {
	if _, err := s.tagRepo.FindByID(ctx, id); err != nil {
		return mapNotFound(err, "tag", id)
	}
	return s.tagRepo.Delete(ctx, id)
}

// MergeTags 把 source 合并到 target，然后删除 source。
func (s *tagService) MergeTags(ctx context.Context, sourceID, targetID int64) error {
	if sourceID <= 0 {
		return invalidArgument("source tag id must be greater than zero")
	}
	if targetID <= 0 {
		return invalidArgument("target tag id must be greater than zero")
	}
	if sourceID == targetID {
		return invalidArgument("source and target tags cannot be the same")
	}
	if _, err := s.tagRepo.FindByID(ctx, sourceID); err != nil {
		return mapNotFound(err, "tag", sourceID)
	}
	if _, err := s.tagRepo.FindByID(ctx, targetID); err != nil {
		return mapNotFound(err, "tag", targetID)
	}
	if err := s.tagRepo.Merge(ctx, sourceID, targetID); err != nil {
		return err
	}
	log.Infof("[TagService] 标签合并完成, Source: %d -> Target: %d", sourceID, targetID)
	return nil
}
