package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"event-booking-server/services"
)

type postHandler struct {
	posts *services.PostService
}

// RegisterPostRoutes registers the listing routes; mutations need an admin
func RegisterPostRoutes(router *gin.RouterGroup, posts *services.PostService, requireAuth, requireAdmin gin.HandlerFunc) {
	h := &postHandler{posts: posts}

	postRoutes := router.Group("/posts")
	{
		postRoutes.GET("", h.list)
		postRoutes.GET("/:id", h.get)
		postRoutes.POST("", requireAuth, requireAdmin, h.create)
		postRoutes.PUT("/:id", requireAuth, requireAdmin, h.update)
		postRoutes.DELETE("/:id", requireAuth, requireAdmin, h.delete)
	}
}

func (h *postHandler) list(c *gin.Context) {
	posts, err := h.posts.List(c.Query("category"))
	if err != nil {
		respondError(c, err, "Failed to fetch posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

func (h *postHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(id)
	if err != nil {
		respondError(c, err, "Failed to fetch post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

func (h *postHandler) create(c *gin.Context) {
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid post data", err.Error())
		return
	}
	post, err := h.posts.Create(req)
	if err != nil {
		respondError(c, err, "Failed to create post")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}

func (h *postHandler) update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid post data", err.Error())
		return
	}
	post, err := h.posts.Update(id, req)
	if err != nil {
		respondError(c, err, "Failed to update post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

func (h *postHandler) delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(id); err != nil {
		respondError(c, err, "Failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted successfully"})
}
