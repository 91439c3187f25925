package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"nnews-go/internal/middleware"
	"nnews-go/pkg/token"
)

// Handlers 汇总了所有需要注册的控制器。
type Handlers struct {
	Article  *ArticleHandler
	Category *CategoryHandler
	Tag      *TagHandler
	Image    *ImageHandler
}

// RegisterRoutes 在 /api 下注册所有路由。
// 写操作需要登录；公开的列表接口在带了合法 token 时按 token 中的角色过滤。
func RegisterRoutes(r *gin.Engine, h Handlers, jwtManager *token.JWTManager) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(jwtManager)
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(jwtManager))

	article := api.Group("/article")
	{
		article.GET("", auth, h.Article.ListAll)
		article.GET("/listByCategory", h.Article.ListByCategory)
		article.GET("/listByRoles", h.Article.ListByRoles)
		article.GET("/listByTag", h.Article.ListByTag)
		article.GET("/search", h.Article.Search)
		article.GET("/:id", h.Article.GetByID)
		article.POST("", auth, h.Article.Insert)
		article.PUT("", auth, h.Article.Update)
		article.DELETE("/:id", auth, h.Article.Delete)
		article.POST("/:id/schedule", auth, h.Article.Schedule)
		article.POST("/insertWithAI", auth, h.Article.InsertWithAI)
		article.PUT("/updateWithAI", auth, h.Article.UpdateWithAI)
	}

	category := api.Group("/category")
	{
		category.GET("", h.Category.ListAll)
		category.GET("/listByParent", h.Category.ListByParent)
		category.GET("/:id", h.Category.GetByID)
		category.POST("", auth, h.Category.Insert)
		category.PUT("", auth, h.Category.Update)
		category.DELETE("/:id", auth, h.Category.Delete)
	}

	tag := api.Group("/tag")
	{
		tag.GET("", h.Tag.ListAll)
		tag.GET("/listByRoles", h.Tag.ListByRoles)
		tag.GET("/:id", h.Tag.GetByID)
		tag.POST("", auth, h.Tag.Insert)
		tag.PUT("", auth, h.Tag.Update)
		tag.DELETE("/:id", auth, h.Tag.Delete)
		tag.POST("/merge/:source/:target", auth, h.Tag.Merge)
	}

	image := api.Group("/image")
	{
		image.POST("/uploadImage", auth, h.Image.UploadImage)
	}
}
