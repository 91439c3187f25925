package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"nnews-go/internal/middleware"
	"nnews-go/internal/model"
	"nnews-go/internal/service"
)

// TagHandler 负责处理标签相关的 API 请求。
type TagHandler struct {
	tagService service.TagService
}

// NewTagHandler 创建一个新的 TagHandler 实例。
func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// ListAll 返回所有标签。
func (h *TagHandler) ListAll(c *gin.Context) {
	tags, err := h.tagService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, "ListTags", err)
		return
	}
	ok(c, tags)
}

// ListByRoles 返回可见文章使用过的标签。
func (h *TagHandler) ListByRoles(c *gin.Context) {
	tags, err := h.tagService.ListByRoles(c.Request.Context(), middleware.RolesFrom(c))
	if err != nil {
		respondError(c, "ListTagsByRoles", err)
		return
	}
	ok(c, tags)
}

// GetByID 获取单个标签。
func (h *TagHandler) GetByID(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	tag, err := h.tagService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetTag", err)
		return
	}
	ok(c, tag)
}

// Insert 创建标签。
func (h *TagHandler) Insert(c *gin.Context) {
	var req model.TagInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	tag, err := h.tagService.Insert(c.Request.Context(), req)
	if err != nil {
		respondError(c, "InsertTag", err)
		return
	}
	respond(c, http.StatusCreated, "标签创建成功", tag)
}

// Update 更新标签。
func (h *TagHandler) Update(c *gin.Context) {
	var req model.TagInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	tag, err := h.tagService.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, "UpdateTag", err)
		return
	}
	respond(c, http.StatusOK, "标签更新成功", tag)
}

// Delete 删除标签。
func (h *TagHandler) Delete(c *gin.Context) {
	id, valid := int64Param(c, "id")
	if !valid {
		return
	}
	if err := h.tagService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteTag", err)
		return
	}
	respond(c, http.StatusOK, "标签已删除", nil)
}

// Merge 把 source 标签合并到 target 标签。
func (h *TagHandler) Merge(c *gin.Context) {
	sourceID, valid := int64Param(c, "source")
	if !valid {
		return
	}
	targetID, valid := int64Param(c, "target")
	if !valid {
		return
	}
	if err := h.tagService.MergeTags(c.Request.Context(), sourceID, targetID); err != nil {
		respondError(c, "MergeTags", err)
		return
	}
	respond(c, http.StatusOK, "标签合并成功", nil)
}
