package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware 校验 Bearer JWT 并将 userID 写入上下文。
//
// 这是所有任务接口 owner-scoped 语义的唯一入口：下游 handler 只信任
// 上下文里的 userID，不再接受请求体或参数中的用户标识。
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject(c, "No token provided, authorization denied")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			reject(c, "Invalid authorization header")
			return
		}

		tokenStr := parts[1]
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			reject(c, "Token is not valid")
			return
		}

		if claims.Subject == "" {
			reject(c, "Token is not valid")
			return
		}

		uid, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			reject(c, "Token is not valid")
			return
		}

		c.Set("userID", uint(uid))
		c.Next()
	}
}

func reject(c *gin.Context, msg string) {
	metrics.AuthRejectedTotal.Inc()
	c.JSON(http.StatusUnauthorized, gin.H{"message": msg})
	c.Abort()
}

// UserID 返回认证中间件写入的用户 ID。
func UserID(c *gin.Context) uint {
	v, ok := c.Get("userID")
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}
