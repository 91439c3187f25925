package model

import "time"

// ArticleInfo 是返回给调用方的文章视图。
type ArticleInfo struct {
	ArticleID  int64         `json:"articleId"`
	CategoryID int64         `json:"categoryId"`
	AuthorID   *int64        `json:"authorId"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Status     ArticleStatus `json:"status"`
	DateAt     time.Time     `json:"dateAt"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	ImageName  string        `json:"imageName"`
	Category   *CategoryInfo `json:"category"`
	Tags       []TagInfo     `json:"tags"`
	Roles      []RoleInfo    `json:"roles"`
}

// ArticleInsertCommand 是创建文章的输入。TagList 为逗号分隔的标签名。
type ArticleInsertCommand struct {
	CategoryID int64         `json:"categoryId"`
	AuthorID   *int64        `json:"authorId"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Status     ArticleStatus `json:"status"`
	DateAt     time.Time     `json:"dateAt"`
	ImageName  string        `json:"imageName"`
	TagList    string        `json:"tagList"`
	Roles      []string      `json:"roles"`
}

// ArticleUpdateCommand 是更新文章的输入。
type ArticleUpdateCommand struct {
	ArticleID int64 `json:"articleId"`
	ArticleInsertCommand
}

// CategoryInfo 是分类视图。
type CategoryInfo struct {
	CategoryID   int64     `json:"categoryId"`
	ParentID     *int64    `json:"parentId"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ArticleCount int64     `json:"articleCount"`
}

// TagInfo 是标签视图。
type TagInfo struct {
	TagID        int64  `json:"tagId"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	ArticleCount int64  `json:"articleCount"`
}

// RoleInfo 是文章可见角色的视图。
type RoleInfo struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PagedResult 是分页查询的统一返回结构。
type PagedResult[T any] struct {
	Items       []T   `json:"items"`
	Page        int   `json:"page"`
	PageSize    int   `json:"pageSize"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
	HasPrevious bool  `json:"hasPrevious"`
	HasNext     bool  `json:"hasNext"`
}

// NewPagedResult 计算总页数和前后页标记。pageSize 必须已经规范化（>0）。
func NewPagedResult[T any](items []T, page, pageSize int, total int64) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PagedResult[T]{
		Items:       items,
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

// ToCategoryInfo 把实体转换成视图。
func ToCategoryInfo(c *Category) CategoryInfo {
	return CategoryInfo{
		CategoryID:   c.ID,
		ParentID:     c.ParentID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		ArticleCount: c.ArticleCount,
	}
}

// ToTagInfo 把实体转换成视图。
func ToTagInfo(t *Tag) TagInfo {
	return TagInfo{TagID: t.ID, Title: t.Title, Slug: t.Slug, ArticleCount: t.ArticleCount}
}

// ToArticleInfo 把实体（含已加载的关联）转换成视图。
func ToArticleInfo(a *Article) ArticleInfo {
	info := ArticleInfo{
		ArticleID:  a.ID,
		CategoryID: a.CategoryID,
		AuthorID:   a.AuthorID,
		Title:      a.Title,
		Content:    a.Content,
		Status:     a.Status,
		DateAt:     a.DateAt,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
		ImageName:  a.ImageName,
		Tags:       make([]TagInfo, 0, len(a.Tags)),
		Roles:      make([]RoleInfo, 0, len(a.Roles)),
	}
	if a.Category != nil {
		c := ToCategoryInfo(a.Category)
		info.Category = &c
	}
	for i := range a.Tags {
		info.Tags = append(info.Tags, ToTagInfo(&a.Tags[i]))
	}
	for _, r := range a.Roles {
		info.Roles = append(info.Roles, RoleInfo{Slug: r.Slug, Name: r.Name})
	}
	return info
}
