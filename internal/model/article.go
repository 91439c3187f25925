// Package model 定义了与数据库表对应的 Go 结构体以及文章实体的行为。
package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ArticleStatus 表示文章的生命周期状态。
type ArticleStatus int

const (
	StatusDraft     ArticleStatus = 0
	StatusPublished ArticleStatus = 1
	StatusArchived  ArticleStatus = 2
	StatusScheduled ArticleStatus = 3
)

// MaxArticleTitleLength 与 articles.title 列宽一致。
const MaxArticleTitleLength = 255

// Valid reports whether s is one of the known statuses.
func (s ArticleStatus) Valid() bool {
	return s >= StatusDraft && s <= StatusScheduled
}

func (s ArticleStatus) String() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPublished:
		return "Published"
	case StatusArchived:
		return "Archived"
	case StatusScheduled:
		return "Scheduled"
	}
	return "Unknown"
}

// Article 对应于数据库中的 articles 表。
// Tags 和 Roles 只能通过实体方法修改（AddTag/RemoveTag/AddRole/RemoveRole），
// 字段导出只是为了让 GORM 能够加载关联。
type Article struct {
	ID         int64         `gorm:"primaryKey;autoIncrement" json:"articleId"`
	CategoryID int64         `gorm:"not null;index" json:"categoryId"`
	AuthorID   *int64        `gorm:"index" json:"authorId"`
	Title      string        `gorm:"type:varchar(255);not null" json:"title"`
	Content    string        `gorm:"type:longtext;not null" json:"content"`
	Status     ArticleStatus `gorm:"type:tinyint;not null;default:0;index" json:"status"`
	DateAt     time.Time     `gorm:"not null;index" json:"dateAt"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
	ImageName  string        `gorm:"type:varchar(560)" json:"imageName"`
	Category   *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags       []Tag         `gorm:"many2many:article_tags" json:"tags"`
	Roles      []ArticleRole `gorm:"foreignKey:ArticleID" json:"roles"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Article) TableName() string {
	return "articles"
}

// NewArticle 创建一篇经过校验的文章。authorID 可以为 nil。
func NewArticle(title, content string, categoryID int64, authorID *int64, status ArticleStatus) (*Article, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if categoryID <= 0 {
		return nil, invalid("category id must be greater than zero")
	}
	if authorID != nil && *authorID <= 0 {
		return nil, invalid("author id must be greater than zero")
	}
	if !status.Valid() {
		return nil, invalid("unknown article status")
	}
	now := time.Now().UTC()
	return &Article{
		CategoryID: categoryID,
		AuthorID:   authorID,
		Title:      strings.TrimSpace(title),
		Content:    content,
		Status:     status,
		DateAt:     now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func validateTitle(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return invalid("title is required")
	}
	if utf8.RuneCountInString(t) > MaxArticleTitleLength {
		return invalid("title cannot exceed 255 characters")
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return invalid("content is required")
	}
	return nil
}

func (a *Article) touch() {
	a.UpdatedAt = time.Now().UTC()
}

// SetTitle 修改标题。
func (a *Article) SetTitle(title string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	a.Title = strings.TrimSpace(title)
	a.touch()
	return nil
}

// SetContent 修改正文。
func (a *Article) SetContent(content string) error {
	if err := validateContent(content); err != nil {
		return err
	}
	a.Content = content
	a.touch()
	return nil
}

// ChangeCategory 修改分类。
func (a *Article) ChangeCategory(categoryID int64) error {
	if categoryID <= 0 {
		return invalid("category id must be greater than zero")
	}
	a.CategoryID = categoryID
	a.Category = nil
	a.touch()
	return nil
}

// SetImage 设置或清除图片。
func (a *Article) SetImage(imageName string) {
	a.ImageName = strings.TrimSpace(imageName)
	a.touch()
}

// SetDateAt 修改生效时间，零值被拒绝。
func (a *Article) SetDateAt(at time.Time) error {
	if at.IsZero() {
		return invalid("dateAt is required")
	}
	a.DateAt = at
	a.touch()
	return nil
}

// SetStatus 直接修改状态，供 Insert/Update 命令使用，不做发布校验。
func (a *Article) SetStatus(status ArticleStatus) error {
	if !status.Valid() {
		return invalid("unknown article status")
	}
	a.Status = status
	a.touch()
	return nil
}

// validateForPublishing 是 Publish 和 Schedule 共用的校验路径。
func (a *Article) validateForPublishing() error {
	if strings.TrimSpace(a.Title) == "" {
		return invalid("cannot publish article without a title")
	}
	if strings.TrimSpace(a.Content) == "" {
		return invalid("cannot publish article without content")
	}
	if a.CategoryID <= 0 {
		return invalid("cannot publish article without a category")
	}
	return nil
}

// Publish 发布文章；已发布时为空操作。
func (a *Article) Publish() error {
	if a.Status == StatusPublished {
		return nil
	}
	if err := a.validateForPublishing(); err != nil {
		return err
	}
	a.Status = StatusPublished
	a.touch()
	return nil
}

// Draft 把文章退回草稿。
func (a *Article) Draft() {
	if a.Status == StatusDraft {
		return
	}
	a.Status = StatusDraft
	a.touch()
}

// Archive 归档文章。
func (a *Article) Archive() {
	if a.Status == StatusArchived {
		return
	}
	a.Status = StatusArchived
	a.touch()
}

// Schedule 在 at 时刻定时发布。at 必须严格晚于 now。
func (a *Article) Schedule(at, now time.Time) error {
	if !at.After(now) {
		return invalid("scheduled date must be in the future")
	}
	if err := a.validateForPublishing(); err != nil {
		return err
	}
	a.Status = StatusScheduled
	a.DateAt = at
	a.touch()
	return nil
}

// PublishIfScheduled 在到期时把定时文章转为已发布，返回是否发生了转换。
func (a *Article) PublishIfScheduled(now time.Time) bool {
	if a.Status != StatusScheduled || a.DateAt.After(now) {
		return false
	}
	a.Status = StatusPublished
	a.touch()
	return true
}

func (a *Article) IsPublished() bool { return a.Status == StatusPublished }
func (a *Article) IsDraft() bool     { return a.Status == StatusDraft }
func (a *Article) IsArchived() bool  { return a.Status == StatusArchived }
func (a *Article) IsScheduled() bool { return a.Status == StatusScheduled }

// sameTag: 两边都已持久化时按 ID 比较，否则按 slug 比较。
func sameTag(x, y Tag) bool {
	if x.ID != 0 && y.ID != 0 {
		return x.ID == y.ID
	}
	return x.Slug != "" && x.Slug == y.Slug
}

// AddTag 添加标签，重复添加被忽略。
func (a *Article) AddTag(tag Tag) {
	for _, t := range a.Tags {
		if sameTag(t, tag) {
			return
		}
	}
	a.Tags = append(a.Tags, tag)
	a.touch()
}

// RemoveTag 按 ID 移除标签。
func (a *Article) RemoveTag(tagID int64) {
	for i, t := range a.Tags {
		if t.ID == tagID {
			a.Tags = append(a.Tags[:i], a.Tags[i+1:]...)
			a.touch()
			return
		}
	}
}

// ClearTags 清空标签集合，用于整体替换。
func (a *Article) ClearTags() {
	a.Tags = nil
}

// AddRole 添加可见角色，slug 大小写不敏感去重。
func (a *Article) AddRole(role ArticleRole) error {
	role.Slug = strings.TrimSpace(role.Slug)
	if role.Slug == "" {
		return invalid("role slug is required")
	}
	for _, r := range a.Roles {
		if strings.EqualFold(r.Slug, role.Slug) {
			return nil
		}
	}
	role.ArticleID = a.ID
	a.Roles = append(a.Roles, role)
	a.touch()
	return nil
}

// RemoveRole 按 slug 移除角色（大小写不敏感）。
func (a *Article) RemoveRole(slug string) {
	for i, r := range a.Roles {
		if strings.EqualFold(r.Slug, slug) {
			a.Roles = append(a.Roles[:i], a.Roles[i+1:]...)
			a.touch()
			return
		}
	}
}

// ClearRoles 清空角色集合，用于整体替换。
func (a *Article) ClearRoles() {
	a.Roles = nil
}

func (a *Article) TagCount() int  { return len(a.Tags) }
func (a *Article) RoleCount() int { return len(a.Roles) }
