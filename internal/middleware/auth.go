package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"postpulse/internal/models"
	"postpulse/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey     = "user"
	VerifiedEmailKey = "verified_email"
	SessionUserKey   = "user_id"
)

// UserFinder 按 ID 查找用户
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// LoadUser 从 Bearer 令牌或会话中识别当前用户并写入上下文。
// 无效或过期的凭证按"未登录"处理，不会中断请求。
func LoadUser(users UserFinder, tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := userFromBearer(c, users, tokens)
		if user == nil {
			user = userFromSession(c, users)
		}
		if user != nil {
			c.Set(CheckUserKey, user)
			c.Set(VerifiedEmailKey, user.Email)
		}
		c.Next()
	}
}

func userFromBearer(c *gin.Context, users UserFinder, tokens *services.TokenService) *models.User {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	claims, err := tokens.Verify(strings.TrimSpace(raw))
	if err != nil {
		slog.DebugContext(c.Request.Context(), "ignoring invalid bearer token", "error", err)
		return nil
	}

	user, err := users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		slog.DebugContext(c.Request.Context(), "bearer token user not found", "user_id", claims.UserID, "error", err)
		return nil
	}
	return user
}

func userFromSession(c *gin.Context, users UserFinder) *models.User {
	session := sessions.Default(c)
	userID, ok := session.Get(SessionUserKey).(uint)
	if !ok || userID == 0 {
		return nil
	}

	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

// CurrentUser 返回已登录用户
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// VerifiedEmail 返回已验证的邮箱，未登录时为空串
func VerifiedEmail(c *gin.Context) string {
	return c.GetString(VerifiedEmailKey)
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - Login required"})
			return
		}
		c.Next()
	}
}

// AdminRequired 仅允许 ADMIN / SUPER_ADMIN
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - Login required"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden - Insufficient permissions"})
			return
		}
		c.Next()
	}
}
