// Package pipeline 定义了文章事件到搜索索引的同步流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"nnews-go/internal/model"
	"nnews-go/pkg/events"
	"nnews-go/pkg/log"
)

// ArticleLoader 按 ID 读取文章（含标签和角色）。
type ArticleLoader interface {
	FindByID(ctx context.Context, id int64) (*model.Article, error)
}

// SearchIndex 是文章索引的写入端，es.ArticleIndex 实现了它。
type SearchIndex interface {
	IndexArticle(ctx context.Context, doc model.ArticleDocument) error
	DeleteArticle(ctx context.Context, articleID int64) error
}

// Indexer 把文章事件同步到搜索索引：已发布的文章写入，其余状态和已删除的文章移除。
type Indexer struct {
	articles ArticleLoader
	index    SearchIndex
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(articles ArticleLoader, index SearchIndex) *Indexer {
	return &Indexer{articles: articles, index: index}
}

// Handle 处理一条文章事件。事件只携带 ID，这里总是重新读取数据库中的最新状态，
// 所以事件乱序或重复投递不会让索引和数据库不一致。
func (p *Indexer) Handle(ctx context.Context, event events.ArticleEvent) error {
	log.Infof("[Indexer] 收到文章事件, Type: %s, ArticleID: %d", event.Type, event.ArticleID)

	if event.Type == events.ArticleDeleted {
		return p.remove(ctx, event.ArticleID)
	}

	article, err := p.articles.FindByID(ctx, event.ArticleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 文章已被删除，删除事件稍后也会到达
			return p.remove(ctx, event.ArticleID)
		}
		return fmt.Errorf("load article %d: %w", event.ArticleID, err)
	}

	if !article.IsPublished() {
		return p.remove(ctx, article.ID)
	}

	if err := p.index.IndexArticle(ctx, model.NewArticleDocument(article)); err != nil {
		log.Errorf("[Indexer] 文章索引失败, ArticleID: %d, Error: %v", article.ID, err)
		return err
	}
	log.Infof("[Indexer] 文章已索引, ArticleID: %d", article.ID)
	return nil
}

func (p *Indexer) remove(ctx context.Context, articleID int64) error {
	if err := p.index.DeleteArticle(ctx, articleID); err != nil {
		log.Errorf("[Indexer] 从索引中移除文章失败, ArticleID: %d, Error: %v", articleID, err)
		return err
	}
	log.Infof("[Indexer] 文章已从索引中移除, ArticleID: %d", articleID)
	return nil
}
