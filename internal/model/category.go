package model

import "time"

// Category 对应于数据库中的 categories 表。ParentID 为 nil 表示顶级分类。
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"categoryId"`
	ParentID  *int64    `gorm:"index" json:"parentId"`
	Title     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	// ArticleCount 由查询时的子查询填充，不建列。
	ArticleCount int64 `gorm:"->;-:migration" json:"articleCount"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Category) TableName() string {
	return "categories"
}
