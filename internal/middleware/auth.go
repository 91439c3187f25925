// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"nnews-go/pkg/token"
)

// 上下文中保存认证信息的键。
const (
	ContextClaims = "claims"
	ContextRoles  = "roles"
)

const bearerPrefix = "Bearer "

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// token 无效时直接返回 401；有效时把 claims 和 roles 存入上下文。
func AuthMiddleware(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含授权头", "data": nil})
			return
		}
		// Token 以 "Bearer <token>" 的形式提供
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的授权头格式", "data": nil})
			return
		}

		claims, err := jwtManager.VerifyToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效或已过期的 token", "data": nil})
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextRoles, claims.Roles)
		c.Next()
	}
}

// OptionalAuth 用于公开路由：有合法 token 时提取 roles，否则按匿名访问处理（没有任何角色）。
func OptionalAuth(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, bearerPrefix) {
			if claims, err := jwtManager.VerifyToken(strings.TrimPrefix(authHeader, bearerPrefix)); err == nil {
				c.Set(ContextClaims, claims)
				c.Set(ContextRoles, claims.Roles)
			}
		}
		c.Next()
	}
}

// RolesFrom 返回上下文中的角色列表，匿名请求返回 nil。
func RolesFrom(c *gin.Context) []string {
	if v, ok := c.Get(ContextRoles); ok {
		if roles, ok := v.([]string); ok {
			return roles
		}
	}
	return nil
}

// ClaimsFrom 返回上下文中的 claims，匿名请求返回 nil。
func ClaimsFrom(c *gin.Context) *token.CustomClaims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*token.CustomClaims); ok {
			return claims
		}
	}
	return nil
}
