package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nnews-go/internal/model"
	"nnews-go/pkg/events"
)

func publishedArticle(id int64, title string) *model.Article {
	return &model.Article{
		ID:         id,
		CategoryID: 1,
		Title:      title,
		Content:    "<p>" + title + "</p>",
		Status:     model.StatusPublished,
		DateAt:     time.Now().UTC().Add(-time.Hour),
	}
}

func TestListAllNormalizesPaging(t *testing.T) {
	repo := newFakeArticleRepo(publishedArticle(1, "a"), publishedArticle(2, "b"))
	svc := NewArticleService(repo, newFakeTagRepo(), nil, nil)

	got, err := svc.ListAll(context.Background(), nil, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 100, got.PageSize)
	assert.Equal(t, 0, repo.lastOffset)
	assert.Equal(t, 100, repo.lastLimit)
	assert.Equal(t, int64(2), got.TotalCount)
	assert.Equal(t, 1, got.TotalPages)
	assert.False(t, got.HasNext)

	_, err = svc.ListAll(context.Background(), nil, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastOffset)
	assert.Equal(t, 10, repo.lastLimit)
}

func TestListByTagRequiresSlug(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo(), newFakeTagRepo(), nil, nil)

	_, err := svc.ListByTag(context.Background(), nil, "  ", 1, 10)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListByCategoryPassesFilter(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo, newFakeTagRepo(), nil, nil)

	_, err := svc.ListByCategory(context.Background(), []string{"editor"}, 7, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.CategoryID)
	assert.Equal(t, int64(7), *repo.lastFilter.CategoryID)
	assert.Equal(t, []string{"editor"}, repo.lastFilter.Roles)
}

func TestSearchUsesSearcherOrder(t *testing.T) {
	repo := newFakeArticleRepo(publishedArticle(1, "one"), publishedArticle(3, "three"))
	searcher := &fakeSearcher{hits: &model.SearchHits{ArticleIDs: []int64{3, 99, 1}, Total: 3}}
	svc := NewArticleService(repo, newFakeTagRepo(), searcher, nil)

	got, err := svc.Search(context.Background(), nil, "go", 1, 10)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, int64(3), got.Items[0].ArticleID)
	assert.Equal(t, int64(1), got.Items[1].ArticleID)
	assert.Equal(t, int64(3), got.TotalCount)
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	repo := newFakeArticleRepo(publishedArticle(1, "golang"), publishedArticle(2, "rust"))
	searcher := &fakeSearcher{err: errors.New("es down")}
	svc := NewArticleService(repo, newFakeTagRepo(), searcher, nil)

	got, err := svc.Search(context.Background(), []string{"admin"}, " golang ", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, "golang", repo.lastFilter.Keyword)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "golang", got.Items[0].Title)

	_, err = svc.Search(context.Background(), nil, "", 1, 10)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestInsertProcessesTagsAndRoles(t *testing.T) {
	tags := newFakeTagRepo(model.Tag{ID: 5, Title: "Go", Slug: "go"})
	pub := &fakePublisher{}
	svc := NewArticleService(newFakeArticleRepo(), tags, nil, pub)

	got, err := svc.Insert(context.Background(), model.ArticleInsertCommand{
		CategoryID: 1,
		Title:      "  Hello ",
		Content:    "<p>x</p>",
		TagList:    "Go, go ,Notícias Rápidas,, ",
		Roles:      []string{"Admin", "admin", " ", "editor"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", got.Title)
	assert.False(t, got.DateAt.IsZero())
	require.Len(t, got.Tags, 2)
	assert.Equal(t, int64(5), got.Tags[0].TagID)
	assert.Equal(t, "noticias-rapidas", got.Tags[1].Slug)
	require.Len(t, got.Roles, 2)
	assert.Equal(t, "Admin", got.Roles[0].Slug)
	assert.Equal(t, "editor", got.Roles[1].Name)

	created, err := tags.FindBySlug(context.Background(), "noticias-rapidas")
	require.NoError(t, err)
	assert.Equal(t, "Notícias Rápidas", created.Title)
	assert.Equal(t, []events.EventType{events.ArticleCreated}, pub.types())
}

func TestInsertKeepsProvidedDateAt(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo(), newFakeTagRepo(), nil, nil)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := svc.Insert(context.Background(), model.ArticleInsertCommand{
		CategoryID: 1, Title: "t", Content: "c", DateAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, at, got.DateAt)
}

func TestInsertValidation(t *testing.T) {
	svc := NewArticleService(newFakeArticleRepo(), newFakeTagRepo(), nil, nil)

	for _, cmd := range []model.ArticleInsertCommand{
		{CategoryID: 1, Content: "c"},
		{CategoryID: 1, Title: "t"},
		{Title: "t", Content: "c"},
	} {
		_, err := svc.Insert(context.Background(), cmd)
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestPublisherFailureDoesNotFailInsert(t *testing.T) {
	pub := &fakePublisher{err: errors.New("kafka down")}
	svc := NewArticleService(newFakeArticleRepo(), newFakeTagRepo(), nil, pub)

	_, err := svc.Insert(context.Background(), model.ArticleInsertCommand{CategoryID: 1, Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestUpdateReplacesAssociations(t *testing.T) {
	existing := publishedArticle(1, "old")
	existing.Tags = []model.Tag{{ID: 9, Title: "Old", Slug: "old"}}
	existing.Roles = []model.ArticleRole{{ID: 1, ArticleID: 1, Slug: "admin", Name: "admin"}}
	repo := newFakeArticleRepo(existing)
	svc := NewArticleService(repo, newFakeTagRepo(model.Tag{ID: 9, Title: "Old", Slug: "old"}), nil, nil)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := svc.Update(context.Background(), model.ArticleUpdateCommand{
		ArticleID: 1,
		ArticleInsertCommand: model.ArticleInsertCommand{
			CategoryID: 2, Title: "new", Content: "c", Status: model.StatusArchived, DateAt: at, TagList: "Fresh",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, int64(2), got.CategoryID)
	assert.Equal(t, model.StatusArchived, got.Status)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "fresh", got.Tags[0].Slug)
	assert.Empty(t, got.Roles)
}

func TestUpdateValidation(t *testing.T) {
	repo := newFakeArticleRepo(publishedArticle(1, "a"))
	svc := NewArticleService(repo, newFakeTagRepo(), nil, nil)
	valid := model.ArticleInsertCommand{CategoryID: 1, Title: "t", Content: "c", DateAt: time.Now()}

	noDate := valid
	noDate.DateAt = time.Time{}
	_, err := svc.Update(context.Background(), model.ArticleUpdateCommand{ArticleID: 1, ArticleInsertCommand: noDate})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Update(context.Background(), model.ArticleUpdateCommand{ArticleID: 0, ArticleInsertCommand: valid})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Update(context.Background(), model.ArticleUpdateCommand{ArticleID: 2, ArticleInsertCommand: valid})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSchedulePastDateFailsBeforeLookup(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo, newFakeTagRepo(), nil, nil)

	_, err := svc.Schedule(context.Background(), 1, time.Now().Add(-time.Minute))
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, repo.findCalls)

	_, err = svc.Schedule(context.Background(), 1, time.Now().Add(time.Hour))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleRequiresTitle(t *testing.T) {
	untitled := &model.Article{ID: 1, CategoryID: 1, Content: "c", Status: model.StatusDraft, DateAt: time.Now()}
	repo := newFakeArticleRepo(untitled)
	svc := NewArticleService(repo, newFakeTagRepo(), nil, nil)

	_, err := svc.Schedule(context.Background(), 1, time.Now().Add(time.Hour))
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "cannot publish article without a title")
}

func TestScheduleAndPublish(t *testing.T) {
	draft := publishedArticle(1, "soon")
	draft.Status = model.StatusDraft
	repo := newFakeArticleRepo(draft)
	pub := &fakePublisher{}
	svc := NewArticleService(repo, newFakeTagRepo(), nil, pub).(*articleService)

	at := time.Now().UTC().Add(time.Hour)
	got, err := svc.Schedule(context.Background(), 1, at)
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, got.Status)

	n, err := svc.PublishScheduledArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	svc.now = func() time.Time { return at.Add(time.Second) }
	n, err = svc.PublishScheduledArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, stored.IsPublished())
	assert.Equal(t, []events.EventType{events.ArticleUpdated, events.ArticlePublished}, pub.types())
}

func TestPublishScheduledCollectsErrors(t *testing.T) {
	due := publishedArticle(1, "due")
	due.Status = model.StatusScheduled
	repo := newFakeArticleRepo(due)
	repo.updateErr = errors.New("deadlock")
	svc := NewArticleService(repo, newFakeTagRepo(), nil, nil)

	n, err := svc.PublishScheduledArticles(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestDelete(t *testing.T) {
	repo := newFakeArticleRepo(publishedArticle(1, "a"))
	pub := &fakePublisher{}
	svc := NewArticleService(repo, newFakeTagRepo(), nil, pub)

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.ErrorIs(t, svc.Delete(context.Background(), 1), ErrNotFound)
	assert.Equal(t, []events.EventType{events.ArticleDeleted}, pub.types())

	_, err := svc.GetByID(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}
