package handler

import (
	"errors"
	"log"
	"time"

	"crowdfund/internal/model"
	"crowdfund/internal/service"
	"crowdfund/pkg/response"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

const (
	HeaderUserID  = "X-User-ID"
	ctxKeyCurrent = "current_user"
)

// RequireRole 从 X-User-ID 读取当前用户并校验角色
func RequireRole(directory *service.DirectoryService, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			response.Abort(c, response.CodeUnauthorized, "缺少 "+HeaderUserID)
			return
		}

		user, err := directory.GetUser(c.Request.Context(), userID)
		if err != nil {
			var nf *service.NotFoundError
			if errors.As(err, &nf) {
				response.Abort(c, response.CodeUnauthorized, "用户不存在")
				return
			}
			response.Abort(c, response.CodeServerError, err.Error())
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Set(ctxKeyCurrent, user)
				c.Next()
				return
			}
		}
		response.Abort(c, response.CodeForbidden, service.ErrForbidden.Error())
	}
}
