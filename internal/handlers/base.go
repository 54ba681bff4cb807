package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"postpulse/internal/middleware"
	"postpulse/internal/services"

	"github.com/gin-gonic/gin"
)

// RespondError 把服务层错误映射为 HTTP 状态码和 {"error": "..."} 响应
func RespondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, "Post not found"
	case errors.Is(err, services.ErrIdentityRequired):
		status, message = http.StatusBadRequest, "Client ID is required"
	case errors.Is(err, services.ErrEmailTaken):
		status, message = http.StatusConflict, "User already exists"
	case errors.Is(err, services.ErrInvalidLogin):
		status, message = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, services.ErrStoreUnavailable):
		status, message = http.StatusServiceUnavailable, "Service temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"request_id", c.GetString(middleware.RequestIDKey),
			"path", c.Request.URL.Path,
			"error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// clientSignals 汇总当前请求里所有可用于识别访客的信息
func clientSignals(c *gin.Context, clientToken string) services.Signals {
	return services.Signals{
		VerifiedEmail: middleware.VerifiedEmail(c),
		Header:        c.Request.Header,
		RemoteAddr:    c.Request.RemoteAddr,
		ClientToken:   clientToken,
	}
}
