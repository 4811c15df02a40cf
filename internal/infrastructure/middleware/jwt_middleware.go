package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserKey gin.Context 中保存已认证用户名的 key
const ContextUserKey = "username"

// TokenVerifier 校验 Token 并返回其中的用户名
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTAuth JWT 认证中间件
// 验证 Bearer Token 并将用户名存入上下文
func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 获取 Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}

		// 2. 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be 'Bearer <token>'"})
			return
		}

		// 3. 验证 Token
		username, err := verifier.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextUserKey, username)
		c.Next()
	}
}

// CurrentUser 读取 JWTAuth 写入的用户名
func CurrentUser(c *gin.Context) string {
	return c.GetString(ContextUserKey)
}
