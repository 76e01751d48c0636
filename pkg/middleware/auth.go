package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/maiphh/food-social/pkg/auth"
)

// AuthMiddleware 认证中间件配置
type AuthMiddleware struct {
	logger kratoslog.Logger
	jwtKey string
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(logger kratoslog.Logger, jwtKey string) *AuthMiddleware {
	return &AuthMiddleware{
		logger: logger,
		jwtKey: jwtKey,
	}
}

// GinAuth Gin认证中间件
func (am *AuthMiddleware) GinAuth() gin.HandlerFunc {
	jwtConfig := &auth.JWTConfig{Secret: am.jwtKey, ExpireTime: time.Hour}

	return func(c *gin.Context) {
		// 跳过健康检查和公开接口
		if am.shouldSkipAuth(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := am.extractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			am.logger.Log(kratoslog.LevelWarn, "msg", "Missing authorization token", "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization token"})
			c.Abort()
			return
		}

		// 验证JWT token
		claims, err := auth.ParseTokenWithConfig(token, jwtConfig)
		if err != nil {
			am.logger.Log(kratoslog.LevelWarn, "msg", "Invalid token", "error", err, "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		// 将用户信息存储到上下文
		userID := auth.UserIDFromClaims(claims)
		c.Set("userID", userID)

		am.logger.Log(kratoslog.LevelDebug, "msg", "User authenticated", "userID", userID, "path", c.Request.URL.Path)
		c.Next()
	}
}

// extractTokenFromHeader 从Authorization头中提取token
func (am *AuthMiddleware) extractTokenFromHeader(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	// 支持 "Bearer token" 和直接的 "token" 格式
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return authHeader
}

// shouldSkipAuth 判断是否跳过认证
func (am *AuthMiddleware) shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/health",
		"/metrics",
		"/api/v1/post/feed", // 公开Feed不要求登录
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}

	return false
}
