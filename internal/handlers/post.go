package handlers

import (
	"net/http"
	"strconv"

	"postpulse/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List GET /api/posts?category=&page=&page_size=
func (h *PostHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := h.posts.List(c.Request.Context(), services.ListOptions{
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Detail GET /api/posts/:slug
func (h *PostHandler) Detail(c *gin.Context) {
	detail, err := h.posts.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Categories GET /api/categories
func (h *PostHandler) Categories(c *gin.Context) {
	categories, err := h.posts.Categories(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}
