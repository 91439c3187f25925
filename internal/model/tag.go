package model

import (
	"strings"
	"unicode/utf8"

	"nnews-go/pkg/slug"
)

// MaxTagTitleLength 与 tags.title 列宽一致。
const MaxTagTitleLength = 120

// Tag 对应于数据库中的 tags 表。
type Tag struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"tagId"`
	Title        string `gorm:"type:varchar(120);not null" json:"title"`
	Slug         string `gorm:"type:varchar(120);uniqueIndex" json:"slug"`
	ArticleCount int64  `gorm:"->;-:migration" json:"articleCount"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Tag) TableName() string {
	return "tags"
}

// NewTag 创建标签；slugValue 为空时由标题生成。
func NewTag(title, slugValue string) (*Tag, error) {
	t := &Tag{}
	if err := t.SetTitle(title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(slugValue) == "" {
		slugValue = slug.Generate(t.Title)
	}
	if err := t.SetSlug(slugValue); err != nil {
		return nil, err
	}
	return t, nil
}

// SetTitle 修改标题。
func (t *Tag) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return invalid("tag title is required")
	}
	if utf8.RuneCountInString(title) > MaxTagTitleLength {
		return invalid("tag title cannot exceed 120 characters")
	}
	t.Title = title
	return nil
}

// SetSlug 修改 slug。空字符串允许（旧数据），非空时必须合法。
func (t *Tag) SetSlug(value string) error {
	value = strings.TrimSpace(value)
	if value != "" && !slug.Valid(value) {
		return invalid("tag slug must contain only lowercase letters, digits and single hyphens")
	}
	t.Slug = value
	return nil
}
