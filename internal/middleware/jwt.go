package middleware

import (
	"net/http"
	"strings"

	"SuperRPS/internal/auth"

	"github.com/gin-gonic/gin"
)

// JwtAuthMiddleware 校验 JWT，把 sub 写入 context 的 "participant"
// 浏览器 websocket 无法带 header，所以也接受 ?token=
func JwtAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		participant, err := auth.ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("participant", participant)
		c.Next()
	}
}
