// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger 是一个 Gin 中间件，用于记录请求日志。
// 文章正文和上传的图片可能很大，所以不记录请求体和响应体。
func RequestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if claims := ClaimsFrom(c); claims != nil {
			fields = append(fields, "userId", claims.UserID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
			logger.Warnw("HTTP Request Log", fields...)
			return
		}
		logger.Infow("HTTP Request Log", fields...)
	}
}
