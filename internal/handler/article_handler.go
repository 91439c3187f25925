package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"nnews-go/internal/middleware"
	"nnews-go/internal/model"
	"nnews-go/internal/service"
)

// ArticleHandler 负责处理所有与文章相关的 API 请求。
type ArticleHandler struct {
	articleService   service.ArticleService
	articleAIService service.ArticleAIService
}

// NewArticleHandler 创建一个新的 ArticleHandler 实例。
func NewArticleHandler(articleService service.ArticleService, articleAIService service.ArticleAIService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService, articleAIService: articleAIService}
}

// ListAll 返回所有状态的文章，可按分类过滤。
func (h *ArticleHandler) ListAll(c *gin.Context) {
	categoryID, valid := optionalInt64Query(c, "categoryId")
	if !valid {
		return
	}
	page, pageSize := pageParams(c)
	result, err := h.articleService.ListAll(c.Request.Context(), categoryID, page, pageSize)
	if err != nil {
		respondError(c, "ListAll", err)
		return
	}
	ok(c, result)
}

// ListByCategory 返回指定分类下的可见文章。
func (h *ArticleHandler) ListByCategory(c *gin.Context) {
	categoryID, valid := optionalInt64Query(c, "categoryId")
	if !valid {
		return
	}
	if categoryID == nil {
		badRequest(c, "缺少 categoryId 参数")
		return
	}
	page, pageSize := pageParams(c)
	result, err := h.articleService.ListByCategory(c.Request.Context(), middleware.RolesFrom(c), *categoryID, page, pageSize)
	if err != nil {
		respondError(c, "ListByCategory", err)
		return
	}
	ok(c, result)
}

// ListByRoles 返回调用方角色可见的已发布文章。
func (h *ArticleHandler) ListByRoles(c *gin.Context) {
	page, pageSize := pageParams(c)
	result, err := h.articleService.ListByRoles(c.Request.Context(), middleware.RolesFrom(c), page, pageSize)
	if err != nil {
		respondError(c, "ListByRoles", err)
		return
	}
	ok(c, result)
}

// ListByTag 返回带有指定标签的可见文章。
func (h *ArticleHandler) ListByTag(c *gin.Context) {
	page, pageSize := pageParams(c)
	result, err := h.articleService.ListByTag(c.Request.Context(), middleware.RolesFrom(c), c.Query("tagSlug"), page, pageSize)
	if err != nil {
		respondError(c, "ListByTag", err)
		return
	}
	ok(c, result)
}

// Search 按关键字检索可见文章。
func (h *ArticleHandler) Search(c *gin.Context) {
	page, pageSize := pageParams(c)
	result, err := h.articleService.Search(c.Request.Context(), middleware.RolesFrom(c), c.Query("keyword"), page, pageSize)
	if err != nil {
		respondError(c, "Search", err)
		return
	}
	ok(c, result)
}

// GetByID 获取单篇文章。
func (h *ArticleHandler) GetByID(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	article, err := h.articleService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetArticle", err)
		return
	}
	ok(c, article)
}

// Insert 创建文章。未指定作者时使用当前登录用户。
func (h *ArticleHandler) Insert(c *gin.Context) {
	var cmd model.ArticleInsertCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	if cmd.AuthorID == nil {
		if claims := middleware.ClaimsFrom(c); claims != nil && claims.UserID > 0 {
			userID := claims.UserID
			cmd.AuthorID = &userID
		}
	}
	article, err := h.articleService.Insert(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, "InsertArticle", err)
		return
	}
	respond(c, http.StatusCreated, "文章创建成功", article)
}

// Update 更新文章。
func (h *ArticleHandler) Update(c *gin.Context) {
	var cmd model.ArticleUpdateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	article, err := h.articleService.Update(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, "UpdateArticle", err)
		return
	}
	respond(c, http.StatusOK, "文章更新成功", article)
}

// Delete 删除文章。
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	if err := h.articleService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteArticle", err)
		return
	}
	respond(c, http.StatusOK, "文章已删除", nil)
}

// ScheduleRequest 定义了定时发布 API 的请求体结构。
type ScheduleRequest struct {
	DateAt time.Time `json:"dateAt" binding:"required"`
}

// Schedule 把文章设为定时发布。
func (h *ArticleHandler) Schedule(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	article, err := h.articleService.Schedule(c.Request.Context(), id, req.DateAt)
	if err != nil {
		respondError(c, "ScheduleArticle", err)
		return
	}
	respond(c, http.StatusOK, "文章已设为定时发布", article)
}

// InsertWithAI 根据提示词生成一篇新的草稿文章。
func (h *ArticleHandler) InsertWithAI(c *gin.Context) {
	var req model.AIArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	article, err := h.articleAIService.GenerateNewArticle(c.Request.Context(), req.Prompt, req.GenerateImage)
	if err != nil {
		respondError(c, "InsertWithAI", err)
		return
	}
	respond(c, http.StatusCreated, "文章生成成功", article)
}

// UpdateWithAI 根据提示词修改已有文章。
func (h *ArticleHandler) UpdateWithAI(c *gin.Context) {
	var req model.AIArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	if req.ArticleID == nil {
		badRequest(c, "缺少 articleId")
		return
	}
	article, err := h.articleAIService.ApplyAIUpdate(c.Request.Context(), *req.ArticleID, req.Prompt, req.GenerateImage)
	if err != nil {
		respondError(c, "UpdateWithAI", err)
		return
	}
	respond(c, http.StatusOK, "文章更新成功", article)
}
