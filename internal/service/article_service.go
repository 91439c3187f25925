package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"nnews-go/internal/model"
	"nnews-go/internal/repository"
	"nnews-go/pkg/events"
	"nnews-go/pkg/log"
	"nnews-go/pkg/slug"
)

// ArticleSearcher 是全文检索后端（Elasticsearch）的抽象，只返回对 roles 可见的已发布文章 ID。
type ArticleSearcher interface {
	SearchArticles(ctx context.Context, keyword string, roles []string, offset, limit int) (*model.SearchHits, error)
}

// EventPublisher 发布文章生命周期事件。
type EventPublisher interface {
	Publish(ctx context.Context, event events.ArticleEvent) error
}

// ArticleService 定义了文章业务逻辑的接口。
type ArticleService interface {
	ListAll(ctx context.Context, categoryID *int64, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error)
	ListByRoles(ctx context.Context, roles []string, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error)
	ListByTag(ctx context.Context, roles []string, tagSlug string, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error)
	ListByCategory(ctx context.Context, roles []string, categoryID int64, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error)
	Search(ctx context.Context, roles []string, keyword string, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error)
	GetByID(ctx context.Context, id int64) (*model.ArticleInfo, error)
	Insert(ctx context.Context, cmd model.ArticleInsertCommand) (*model.ArticleInfo, error)
	Update(ctx context.Context, cmd model.ArticleUpdateCommand) (*model.ArticleInfo, error)
	Schedule(ctx context.Context, id int64, at time.Time) (*model.ArticleInfo, error)
	PublishScheduledArticles(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

type articleService struct {
	articleRepo repository.ArticleRepository
	tagRepo     repository.TagRepository
	searcher    ArticleSearcher
	publisher   EventPublisher
	now         func() time.Time
}

// NewArticleService 创建一个新的 ArticleService。searcher 和 publisher 可以为 nil：
// 没有 searcher 时搜索走 SQL LIKE，没有 publisher 时不发送事件。
func NewArticleService(articleRepo repository.ArticleRepository, tagRepo repository.TagRepository, searcher ArticleSearcher, publisher EventPublisher) ArticleService {
	return &articleService{
		articleRepo: articleRepo,
		tagRepo:     tagRepo,
		searcher:    searcher,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func toPage(articles []model.Article, page, pageSize int, total int64) *model.PagedResult[model.ArticleInfo] {
	items := make([]model.ArticleInfo, 0, len(articles))
	for i := range articles {
		items = append(items, model.ToArticleInfo(&articles[i]))
	}
	result := model.NewPagedResult(items, page, pageSize, total)
	return &result
}

// ListAll 返回所有状态的文章（后台使用）。
func (s *articleService) ListAll(ctx context.Context, categoryID *int64, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error) {
	page, pageSize = normalizePage(page, pageSize)
	articles, total, err := s.articleRepo.ListAll(ctx, categoryID, offsetOf(page, pageSize), pageSize)
	if err != nil {
		return nil, err
	}
	return toPage(articles, page, pageSize, total), nil
}

func (s *articleService) listVisible(ctx context.Context, filter repository.ArticleFilter, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error) {
	page, pageSize = normalizePage(page, pageSize)
	articles, total, err := s.articleRepo.ListVisible(ctx, filter, offsetOf(page, pageSize), pageSize)
	if err != nil {
		return nil, err
	}
	return toPage(articles, page, pageSize, total), nil
}

// ListByRoles 返回对 roles 可见的已发布文章。
func (s *articleService) ListByRoles(ctx context.Context, roles []string, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error) {
	return s.listVisible(ctx, repository.ArticleFilter{Roles: roles}, page, pageSize)
}

// ListByTag 返回带有指定标签的可见文章。
func (s *articleService) ListByTag(ctx context.Context, roles []string, tagSlug string, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error) {
	tagSlug = strings.TrimSpace(tagSlug)
	if tagSlug == "" {
		return nil, invalidArgument("tag slug cannot be empty")
	}
	return s.listVisible(ctx, repository.ArticleFilter{Roles: roles, TagSlug: tagSlug}, page, pageSize)
}

// ListByCategory 返回指定分类下的可见文章。
func (s *articleService) ListByCategory(ctx context.Context, roles []string, categoryID int64, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error) {
	return s.listVisible(ctx, repository.ArticleFilter{Roles: roles, CategoryID: &categoryID}, page, pageSize)
}

// Search 优先使用 Elasticsearch，失败或未配置时退回 SQL LIKE。
func (s *articleService) Search(ctx context.Context, roles []string, keyword string, page, pageSize int) (*model.PagedResult[model.ArticleInfo], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, invalidArgument("search keyword cannot be empty")
	}
	page, pageSize = normalizePage(page, pageSize)

	if s.searcher != nil {
		hits, err := s.searcher.SearchArticles(ctx, keyword, roles, offsetOf(page, pageSize), pageSize)
		if err == nil {
			articles, err := s.loadInOrder(ctx, hits.ArticleIDs)
			if err != nil {
				return nil, err
			}
			return toPage(articles, page, pageSize, hits.Total), nil
		}
		log.Warnf("[ArticleService] Elasticsearch 检索失败，退回数据库检索: %v", err)
	}

	return s.listVisible(ctx, repository.ArticleFilter{Roles: roles, Keyword: keyword}, page, pageSize)
}

// loadInOrder 按 ids 的顺序返回文章，索引里存在但数据库中已删除的会被跳过。
func (s *articleService) loadInOrder(ctx context.Context, ids []int64) ([]model.Article, error) {
	found, err := s.articleRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Article, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	ordered := make([]model.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

// GetByID 根据 ID 获取文章。
func (s *articleService) GetByID(ctx context.Context, id int64) (*model.ArticleInfo, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "article", id)
	}
	info := model.ToArticleInfo(article)
	return &info, nil
}

// Insert 创建文章。DateAt 为零值时使用当前时间。
func (s *articleService) Insert(ctx context.Context, cmd model.ArticleInsertCommand) (*model.ArticleInfo, error) {
	article, err := model.NewArticle(cmd.Title, cmd.Content, cmd.CategoryID, cmd.AuthorID, cmd.Status)
	if err != nil {
		return nil, err
	}
	if !cmd.DateAt.IsZero() {
		article.DateAt = cmd.DateAt
	}
	article.SetImage(cmd.ImageName)

	if err := s.processTags(ctx, article, cmd.TagList); err != nil {
		return nil, err
	}
	if err := processRoles(article, cmd.Roles); err != nil {
		return nil, err
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, mapForeignKey(err, cmd.CategoryID)
	}
	log.Infof("[ArticleService] 文章创建成功, ArticleID: %d, Title: %s", article.ID, article.Title)

	s.emit(ctx, events.ArticleCreated, article)
	info := model.ToArticleInfo(article)
	return &info, nil
}

// Update 用命令中的字段整体替换文章内容，标签和角色先清空再重建。
func (s *articleService) Update(ctx context.Context, cmd model.ArticleUpdateCommand) (*model.ArticleInfo, error) {
	if cmd.ArticleID <= 0 {
		return nil, invalidArgument("article id must be greater than zero")
	}
	if _, err := model.NewArticle(cmd.Title, cmd.Content, cmd.CategoryID, cmd.AuthorID, cmd.Status); err != nil {
		return nil, err
	}
	if cmd.DateAt.IsZero() {
		return nil, invalidArgument("article date cannot be empty")
	}

	article, err := s.articleRepo.FindByID(ctx, cmd.ArticleID)
	if err != nil {
		return nil, mapNotFound(err, "article", cmd.ArticleID)
	}

	if err := article.SetTitle(cmd.Title); err != nil {
		return nil, err
	}
	if err := article.SetContent(cmd.Content); err != nil {
		return nil, err
	}
	if err := article.ChangeCategory(cmd.CategoryID); err != nil {
		return nil, err
	}
	if err := article.SetStatus(cmd.Status); err != nil {
		return nil, err
	}
	if err := article.SetDateAt(cmd.DateAt); err != nil {
		return nil, err
	}
	if cmd.AuthorID != nil {
		article.AuthorID = cmd.AuthorID
	}
	article.SetImage(cmd.ImageName)

	article.ClearTags()
	if err := s.processTags(ctx, article, cmd.TagList); err != nil {
		return nil, err
	}
	article.ClearRoles()
	if err := processRoles(article, cmd.Roles); err != nil {
		return nil, err
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, mapForeignKey(err, cmd.CategoryID)
	}
	log.Infof("[ArticleService] 文章更新成功, ArticleID: %d", article.ID)

	s.emit(ctx, events.ArticleUpdated, article)
	info := model.ToArticleInfo(article)
	return &info, nil
}

// Schedule 把文章设为定时发布。日期校验先于存在性检查。
func (s *articleService) Schedule(ctx context.Context, id int64, at time.Time) (*model.ArticleInfo, error) {
	now := s.now()
	if !at.After(now) {
		return nil, invalidArgument("scheduled date must be in the future")
	}
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "article", id)
	}
	if err := article.Schedule(at, now); err != nil {
		return nil, err
	}
	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}
	log.Infof("[ArticleService] 文章已定时发布, ArticleID: %d, DateAt: %s", article.ID, at.Format(time.RFC3339))

	s.emit(ctx, events.ArticleUpdated, article)
	info := model.ToArticleInfo(article)
	return &info, nil
}

// PublishScheduledArticles 发布所有到期的定时文章，返回成功发布的数量。
// 单篇失败不会中断其余文章，所有错误合并后返回。
func (s *articleService) PublishScheduledArticles(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.articleRepo.ListDueScheduled(ctx, now)
	if err != nil {
		return 0, err
	}

	published := 0
	var errs []error
	for i := range due {
		article := &due[i]
		if !article.PublishIfScheduled(now) {
			continue
		}
		if err := s.articleRepo.Update(ctx, article); err != nil {
			log.Errorf("[ArticleService] 定时发布失败, ArticleID: %d, Error: %v", article.ID, err)
			errs = append(errs, err)
			continue
		}
		published++
		s.emit(ctx, events.ArticlePublished, article)
	}
	if published > 0 {
		log.Infof("[ArticleService] 定时发布完成, 共发布 %d 篇文章", published)
	}
	return published, errors.Join(errs...)
}

// Delete 删除文章。
func (s *articleService) Delete(ctx context.Context, id int64) error {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err, "article", id)
	}
	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return mapNotFound(err, "article", id)
	}
	log.Infof("[ArticleService] 文章已删除, ArticleID: %d", id)
	s.emit(ctx, events.ArticleDeleted, article)
	return nil
}

// emit 发送事件；失败只记录日志，不影响主流程。
func (s *articleService) emit(ctx context.Context, t events.EventType, article *model.Article) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(t, article.ID, int(article.Status))); err != nil {
		log.Warnf("[ArticleService] 发送文章事件失败, Type: %s, ArticleID: %d, Error: %v", t, article.ID, err)
	}
}

// processTags 解析逗号分隔的标签名：去空、大小写不敏感去重，按 slug 复用已有标签或新建。
func (s *articleService) processTags(ctx context.Context, article *model.Article, tagList string) error {
	for _, name := range splitTagList(tagList) {
		tagSlug := slug.Generate(name)
		if tagSlug == "" {
			log.Warnf("[ArticleService] 标签 '%s' 无法生成 slug，已跳过", name)
			continue
		}
		tag, err := s.tagRepo.FindBySlug(ctx, tagSlug)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			tag, err = model.NewTag(name, tagSlug)
			if err != nil {
				return err
			}
			if err := s.tagRepo.Create(ctx, tag); err != nil {
				return err
			}
		}
		article.AddTag(*tag)
	}
	return nil
}

func splitTagList(tagList string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(tagList, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

// processRoles 角色的 slug 和名称相同。
func processRoles(article *model.Article, roles []string) error {
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if err := article.AddRole(model.ArticleRole{Slug: r, Name: r}); err != nil {
			return err
		}
	}
	return nil
}

// mapForeignKey 把外键冲突（分类不存在）转换为 InvalidArgument。
func mapForeignKey(err error, categoryID int64) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return invalidArgument("category %d does not exist", categoryID)
	}
	return err
}
