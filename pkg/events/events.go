// Package events defines the article lifecycle events sent to Kafka.
package events

import (
	"strconv"
	"time"
)

// EventType 是文章事件的类型。
type EventType string

const (
	ArticleCreated   EventType = "article.created"
	ArticleUpdated   EventType = "article.updated"
	ArticlePublished EventType = "article.published"
	ArticleDeleted   EventType = "article.deleted"
)

// ArticleEvent represents a change to a single article. Consumers reload the
// article by ID instead of trusting a snapshot in the message.
type ArticleEvent struct {
	Type       EventType `json:"type"`
	ArticleID  int64     `json:"article_id"`
	Status     int       `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New 创建一个带当前时间戳的事件。
func New(t EventType, articleID int64, status int) ArticleEvent {
	return ArticleEvent{Type: t, ArticleID: articleID, Status: status, OccurredAt: time.Now().UTC()}
}

// Key 返回用于 Kafka 分区的消息 key，保证同一篇文章的事件有序。
func (e ArticleEvent) Key() string {
	return "article-" + strconv.FormatInt(e.ArticleID, 10)
}
