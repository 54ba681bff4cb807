package handlers

import (
	"net/http"

	"postpulse/internal/services"

	"github.com/gin-gonic/gin"
)

// EngagementHandler 浏览与点赞接口
type EngagementHandler struct {
	ledger *services.Ledger
}

func NewEngagementHandler(ledger *services.Ledger) *EngagementHandler {
	return &EngagementHandler{ledger: ledger}
}

type clientBody struct {
	ClientID string `json:"clientId"`
}

// bodyClientID 读取请求体中的 clientId。
// 请求体缺失或不是合法 JSON 时视为没有 clientId，不返回错误。
func bodyClientID(c *gin.Context) string {
	var body clientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return c.Query("clientId")
	}
	if body.ClientID == "" {
		return c.Query("clientId")
	}
	return body.ClientID
}

// GetViews GET /api/posts/:slug/views
func (h *EngagementHandler) GetViews(c *gin.Context) {
	views, err := h.ledger.ViewCount(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

// RecordView POST /api/posts/:slug/views
func (h *EngagementHandler) RecordView(c *gin.Context) {
	result, err := h.ledger.RecordView(c.Request.Context(), c.Param("slug"), clientSignals(c, bodyClientID(c)))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ReconcileViews POST /api/posts/:slug/views/reconcile
func (h *EngagementHandler) ReconcileViews(c *gin.Context) {
	views, err := h.ledger.ReconcileViews(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

// GetLikes GET /api/posts/:slug/likes?clientId=
func (h *EngagementHandler) GetLikes(c *gin.Context) {
	state, err := h.ledger.LikeState(c.Request.Context(), c.Param("slug"), clientSignals(c, c.Query("clientId")))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ToggleLike POST /api/posts/:slug/likes
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	result, err := h.ledger.ToggleLike(c.Request.Context(), c.Param("slug"), clientSignals(c, bodyClientID(c)))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
