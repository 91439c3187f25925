package handler

import (
	"github.com/gin-gonic/gin"
	"nnews-go/internal/service"
)

// ImageHandler 负责图片上传。
type ImageHandler struct {
	imageService service.ImageService
}

// NewImageHandler 创建一个新的 ImageHandler 实例。
func NewImageHandler(imageService service.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// UploadImage 处理 multipart 表单中名为 file 的图片，返回可访问的 URL。
func (h *ImageHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "未能获取上传的文件")
		return
	}
	defer file.Close()

	url, err := h.imageService.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		respondError(c, "UploadImage", err)
		return
	}
	ok(c, gin.H{"fileName": url})
}
