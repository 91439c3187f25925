// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"nnews-go/internal/service"
	"nnews-go/pkg/log"
)

// respond 输出统一的响应结构 {"code","message","data"}。
func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": data})
}

func ok(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, "success", data)
}

// statusOf 把业务错误映射为 HTTP 状态码。
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError 按错误类型返回对应的状态码；未知错误只返回通用信息，细节写日志。
func respondError(c *gin.Context, op string, err error) {
	_ = c.Error(err)
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Errorf("%s: %v", op, err)
		respond(c, status, "服务器内部错误", nil)
		return
	}
	log.Warnf("%s: %v", op, err)
	respond(c, status, err.Error(), nil)
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

// pageParams 读取 page 和 pageSize，非法值交给 service 归一化。
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	return page, pageSize
}

// int64Param 解析路径参数中的正整数 ID。
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "无效的 "+name)
		return 0, false
	}
	return id, true
}

// optionalInt64Query 解析可选的查询参数；参数存在但不合法时返回 false。
func optionalInt64Query(c *gin.Context, name string) (*int64, bool) {
	raw, exists := c.GetQuery(name)
	if !exists || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, "无效的 "+name)
		return nil, false
	}
	return &v, true
}
