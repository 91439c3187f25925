package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"nnews-go/internal/model"
	"nnews-go/internal/repository"
	"nnews-go/pkg/events"
	"nnews-go/pkg/llm"
)

func copyArticle(a *model.Article) *model.Article {
	cp := *a
	cp.Tags = append([]model.Tag(nil), a.Tags...)
	cp.Roles = append([]model.ArticleRole(nil), a.Roles...)
	return &cp
}

// fakeArticleRepo is an in-memory ArticleRepository.
type fakeArticleRepo struct {
	mu         sync.Mutex
	articles   map[int64]*model.Article
	nextID     int64
	lastFilter repository.ArticleFilter
	lastOffset int
	lastLimit  int
	findCalls  int
	updateErr  error
}

func newFakeArticleRepo(seed ...*model.Article) *fakeArticleRepo {
	r := &fakeArticleRepo{articles: make(map[int64]*model.Article), nextID: 1}
	for _, a := range seed {
		r.articles[a.ID] = copyArticle(a)
		if a.ID >= r.nextID {
			r.nextID = a.ID + 1
		}
	}
	return r
}

func (r *fakeArticleRepo) sorted() []model.Article {
	out := make([]model.Article, 0, len(r.articles))
	for _, a := range r.articles {
		out = append(out, *copyArticle(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeArticleRepo) ListAll(_ context.Context, categoryID *int64, offset, limit int) ([]model.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOffset, r.lastLimit = offset, limit
	var out []model.Article
	for _, a := range r.sorted() {
		if categoryID == nil || a.CategoryID == *categoryID {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeArticleRepo) ListVisible(_ context.Context, f repository.ArticleFilter, offset, limit int) ([]model.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter, r.lastOffset, r.lastLimit = f, offset, limit
	var out []model.Article
	for _, a := range r.sorted() {
		if a.Status != model.StatusPublished {
			continue
		}
		if f.Keyword != "" && !strings.Contains(a.Title, f.Keyword) && !strings.Contains(a.Content, f.Keyword) {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *fakeArticleRepo) FindByID(_ context.Context, id int64) (*model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	a, ok := r.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyArticle(a), nil
}

func (r *fakeArticleRepo) FindByIDs(_ context.Context, ids []int64) ([]model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Article
	for _, id := range ids {
		if a, ok := r.articles[id]; ok {
			out = append(out, *copyArticle(a))
		}
	}
	// 按 ID 升序返回，与请求顺序无关
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeArticleRepo) ListDueScheduled(_ context.Context, now time.Time) ([]model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Article
	for _, a := range r.sorted() {
		if a.Status == model.StatusScheduled && !a.DateAt.After(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArticleRepo) CountByCategory(_ context.Context, categoryID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.articles {
		if a.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *fakeArticleRepo) Create(_ context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID
	r.nextID++
	for i := range a.Roles {
		a.Roles[i].ArticleID = a.ID
	}
	r.articles[a.ID] = copyArticle(a)
	return nil
}

func (r *fakeArticleRepo) Update(_ context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.articles[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.articles[a.ID] = copyArticle(a)
	return nil
}

func (r *fakeArticleRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.articles, id)
	return nil
}

// fakeTagRepo is an in-memory TagRepository.
type fakeTagRepo struct {
	mu     sync.Mutex
	tags   map[int64]*model.Tag
	nextID int64
	merged [][2]int64
}

func newFakeTagRepo(seed ...model.Tag) *fakeTagRepo {
	r := &fakeTagRepo{tags: make(map[int64]*model.Tag), nextID: 1}
	for i := range seed {
		t := seed[i]
		r.tags[t.ID] = &t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *fakeTagRepo) FindAll(_ context.Context) ([]model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Tag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeTagRepo) FindVisible(ctx context.Context, _ []string) ([]model.Tag, error) {
	return r.FindAll(ctx)
}

func (r *fakeTagRepo) FindByID(_ context.Context, id int64) (*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTagRepo) FindBySlug(_ context.Context, slug string) (*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTagRepo) ExistsByTitle(_ context.Context, title string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if strings.EqualFold(t.Title, title) && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTagRepo) Create(_ context.Context, t *model.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	cp := *t
	r.tags[t.ID] = &cp
	return nil
}

func (r *fakeTagRepo) Update(_ context.Context, t *model.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tags[t.ID] = &cp
	return nil
}

func (r *fakeTagRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tags, id)
	return nil
}

func (r *fakeTagRepo) Merge(_ context.Context, sourceID, targetID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged = append(r.merged, [2]int64{sourceID, targetID})
	delete(r.tags, sourceID)
	return nil
}

// fakeCategoryRepo is an in-memory CategoryRepository.
type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[int64]*model.Category
	nextID     int64
	deleted    []int64
}

func newFakeCategoryRepo(seed ...model.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: make(map[int64]*model.Category), nextID: 1}
	for i := range seed {
		c := seed[i]
		r.categories[c.ID] = &c
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	return r
}

func (r *fakeCategoryRepo) FindAll(_ context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCategoryRepo) FindVisibleByParent(ctx context.Context, _ []string, parentID *int64) ([]model.Category, error) {
	all, _ := r.FindAll(ctx)
	var out []model.Category
	for _, c := range all {
		if (parentID == nil && c.ParentID == nil) || (parentID != nil && c.ParentID != nil && *c.ParentID == *parentID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id int64) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) ExistsByTitle(_ context.Context, title string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if strings.EqualFold(c.Title, title) && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCategoryRepo) CountChildren(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r *fakeCategoryRepo) Create(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	delete(r.categories, id)
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []events.ArticleEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e events.ArticleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeSearcher returns canned hits.
type fakeSearcher struct {
	hits  *model.SearchHits
	err   error
	calls int
}

func (s *fakeSearcher) SearchArticles(_ context.Context, _ string, _ []string, _, _ int) (*model.SearchHits, error) {
	s.calls++
	return s.hits, s.err
}

// fakeChat returns a canned completion and records the messages it received.
type fakeChat struct {
	response string
	err      error
	calls    int
	messages []llm.Message
}

func (c *fakeChat) SendConversation(_ context.Context, messages []llm.Message) (string, error) {
	c.calls++
	c.messages = messages
	return c.response, c.err
}

// fakeImages is an ImageUploader.
type fakeImages struct {
	url     string
	err     error
	calls   int
	prompts []string
}

func (f *fakeImages) GenerateAndUpload(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.url, f.err
}

// fakeArticleStore records the commands handed to persistence.
type fakeArticleStore struct {
	existing *model.ArticleInfo
	inserted []model.ArticleInsertCommand
	updated  []model.ArticleUpdateCommand
}

func (s *fakeArticleStore) GetByID(_ context.Context, id int64) (*model.ArticleInfo, error) {
	if s.existing == nil || s.existing.ArticleID != id {
		return nil, notFound("article %d not found", id)
	}
	cp := *s.existing
	return &cp, nil
}

func (s *fakeArticleStore) Insert(_ context.Context, cmd model.ArticleInsertCommand) (*model.ArticleInfo, error) {
	s.inserted = append(s.inserted, cmd)
	return &model.ArticleInfo{
		ArticleID:  100,
		CategoryID: cmd.CategoryID,
		Title:      cmd.Title,
		Content:    cmd.Content,
		Status:     cmd.Status,
		DateAt:     cmd.DateAt,
		ImageName:  cmd.ImageName,
	}, nil
}

func (s *fakeArticleStore) Update(_ context.Context, cmd model.ArticleUpdateCommand) (*model.ArticleInfo, error) {
	s.updated = append(s.updated, cmd)
	return &model.ArticleInfo{
		ArticleID:  cmd.ArticleID,
		CategoryID: cmd.CategoryID,
		Title:      cmd.Title,
		Content:    cmd.Content,
		Status:     cmd.Status,
		DateAt:     cmd.DateAt,
		ImageName:  cmd.ImageName,
	}, nil
}

// fakeImageGenerator is an ImageGenerator.
type fakeImageGenerator struct {
	resp *llm.ImageResponse
	err  error
	reqs []llm.ImageRequest
}

func (g *fakeImageGenerator) GenerateImage(_ context.Context, req llm.ImageRequest) (*llm.ImageResponse, error) {
	g.reqs = append(g.reqs, req)
	return g.resp, g.err
}

// fakeBlobStore is an in-memory BlobStore.
type fakeBlobStore struct {
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *fakeBlobStore) UploadFile(_ context.Context, bucket, objectName, contentType string, _ int64, reader io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.objects[bucket+"/"+objectName] = data
	s.types[bucket+"/"+objectName] = contentType
	return objectName, nil
}

func (s *fakeBlobStore) GetFileURL(_ context.Context, bucket, objectName string) (string, error) {
	if _, ok := s.objects[bucket+"/"+objectName]; !ok {
		return "", errors.New("object not found")
	}
	return "https://cdn.example/" + bucket + "/" + objectName, nil
}
