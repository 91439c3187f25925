package model

// ArticleRole 对应于数据库中的 article_roles 表，记录文章对哪些角色可见。
// 一篇文章没有任何角色时对所有人可见。
type ArticleRole struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	ArticleID int64  `gorm:"not null;index" json:"-"`
	Slug      string `gorm:"type:varchar(120);not null;index" json:"slug"`
	Name      string `gorm:"type:varchar(80)" json:"name"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ArticleRole) TableName() string {
	return "article_roles"
}
