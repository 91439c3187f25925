package model

import (
	"strings"
	"time"
)

// ArticleDocument 定义了存储在 Elasticsearch 中的文章文档结构。
// 只有已发布的文章会被索引，Roles 为空表示对所有人可见。
type ArticleDocument struct {
	ArticleID  int64     `json:"article_id"`
	CategoryID int64     `json:"category_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	Roles      []string  `json:"roles"`
	Status     int       `json:"status"`
	DateAt     time.Time `json:"date_at"`
}

// NewArticleDocument 从实体构造索引文档，角色 slug 统一小写。
func NewArticleDocument(a *Article) ArticleDocument {
	doc := ArticleDocument{
		ArticleID:  a.ID,
		CategoryID: a.CategoryID,
		Title:      a.Title,
		Content:    a.Content,
		Tags:       make([]string, 0, len(a.Tags)),
		Roles:      make([]string, 0, len(a.Roles)),
		Status:     int(a.Status),
		DateAt:     a.DateAt,
	}
	for _, t := range a.Tags {
		doc.Tags = append(doc.Tags, t.Slug)
	}
	for _, r := range a.Roles {
		doc.Roles = append(doc.Roles, strings.ToLower(r.Slug))
	}
	return doc
}

// SearchHits 是全文检索返回的文章 ID（按相关度排序）及总数。
type SearchHits struct {
	ArticleIDs []int64
	Total      int64
}
