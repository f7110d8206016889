package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"questhub/internal/model"

	"github.com/gin-gonic/gin"
)

// Auth 创建身份认证中间件
// 信任上游签发的 Bearer 令牌，格式为 "<userId>.<HMAC-SHA256 签名>"，
// 签名覆盖 userId 字符串，密钥与签发方共享。
// 校验通过后将用户 ID 写入上下文；会话签发本身不在本服务范围内
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c)
			return
		}

		userID, err := VerifyToken(secret, token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// UserID 读取认证中间件注入的用户 ID
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}

// RequireAdmin 创建管理员校验中间件，须位于 Auth 之后
func RequireAdmin(getUser func(ctx context.Context, id int64) (*model.User, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := getUser(c.Request.Context(), UserID(c))
		if err != nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "admin access required",
			})
			return
		}
		c.Next()
	}
}

// IssueToken 为指定用户签发令牌（供上游签发方与测试使用）
func IssueToken(secret string, userID int64) string {
	payload := strconv.FormatInt(userID, 10)
	return payload + "." + sign(secret, payload)
}

// VerifyToken 校验令牌并返回其中的用户 ID
func VerifyToken(secret, token string) (int64, error) {
	payload, signature, found := strings.Cut(token, ".")
	if !found {
		return 0, fmt.Errorf("middleware: malformed token")
	}

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return 0, fmt.Errorf("middleware: invalid token signature")
	}

	userID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("middleware: invalid token subject")
	}
	return userID, nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": "authentication required",
	})
}
