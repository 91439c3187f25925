package repository

import (
	"strings"

	"gorm.io/gorm"
	"nnews-go/internal/model"
)

const (
	noRolesClause  = "NOT EXISTS (SELECT 1 FROM article_roles ar WHERE ar.article_id = articles.id)"
	anyRolesClause = "EXISTS (SELECT 1 FROM article_roles ar WHERE ar.article_id = articles.id AND LOWER(ar.slug) IN ?)"
)

// visibleTo 限定为对给定角色可见的已发布文章：
// 文章没有任何角色，或者至少有一个角色在 roles 中。roles 为空时只返回无角色文章。
func visibleTo(db *gorm.DB, roles []string) *gorm.DB {
	db = db.Where("articles.status = ?", model.StatusPublished)
	normalized := normalizeRoles(roles)
	if len(normalized) == 0 {
		return db.Where(noRolesClause)
	}
	return db.Where("("+noRolesClause+" OR "+anyRolesClause+")", normalized)
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
