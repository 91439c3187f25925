package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"nnews-go/internal/middleware"
	"nnews-go/internal/model"
	"nnews-go/internal/service"
)

// CategoryHandler 负责处理分类相关的 API 请求。
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler 创建一个新的 CategoryHandler 实例。
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListAll 返回所有分类。
func (h *CategoryHandler) ListAll(c *gin.Context) {
	categories, err := h.categoryService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, "ListCategories", err)
		return
	}
	ok(c, categories)
}

// ListByParent 返回含有可见文章的子分类，不带 parentId 时返回顶级分类。
func (h *CategoryHandler) ListByParent(c *gin.Context) {
	parentID, valid := optionalInt64Query(c, "parentId")
	if !valid {
		return
	}
	categories, err := h.categoryService.ListByParent(c.Request.Context(), middleware.RolesFrom(c), parentID)
	if err != nil {
		respondError(c, "ListCategoriesByParent", err)
		return
	}
	ok(c, categories)
}

// GetByID 获取单个分类。
func (h *CategoryHandler) GetByID(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	category, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetCategory", err)
		return
	}
	ok(c, category)
}

// Insert 创建分类。
func (h *CategoryHandler) Insert(c *gin.Context) {
	var req model.CategoryInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	category, err := h.categoryService.Insert(c.Request.Context(), req)
	if err != nil {
		respondError(c, "InsertCategory", err)
		return
	}
	respond(c, http.StatusCreated, "分类创建成功", category)
}

// Update 更新分类。
func (h *CategoryHandler) Update(c *gin.Context) {
	var req model.CategoryInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	category, err := h.categoryService.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, "UpdateCategory", err)
		return
	}
	respond(c, http.StatusOK, "分类更新成功", category)
}

// Delete 删除分类。
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteCategory", err)
		return
	}
	respond(c, http.StatusOK, "分类已删除", nil)
}
