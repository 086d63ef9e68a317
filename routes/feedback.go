package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"event-booking-server/middleware"
	"event-booking-server/services"
)

// SubmitFeedbackRequest is a new rating for a post
type SubmitFeedbackRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
	PostID  uint    `json:"postId"`
}

// UpdateFeedbackRequest changes rating and/or comment
type UpdateFeedbackRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type feedbackHandler struct {
	feedback *services.FeedbackService
}

// RegisterFeedbackRoutes registers rating routes
func RegisterFeedbackRoutes(router *gin.RouterGroup, feedback *services.FeedbackService, requireAuth gin.HandlerFunc) {
	h := &feedbackHandler{feedback: feedback}

	feedbackRoutes := router.Group("/feedback")
	{
		feedbackRoutes.POST("", requireAuth, h.submit)
		feedbackRoutes.GET("/all", h.listAll)
		feedbackRoutes.GET("/user", requireAuth, h.listMine)

		feedbackRoutes.GET("/post/:postId", h.listForPost)
		feedbackRoutes.GET("/post/:postId/stars/:rating", h.filterByStars)
		feedbackRoutes.GET("/post/:postId/stats", h.stats)

		feedbackRoutes.PUT("/:id", requireAuth, h.update)
		feedbackRoutes.DELETE("/:id", requireAuth, h.delete)
	}
}

func (h *feedbackHandler) submit(c *gin.Context) {
	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid feedback data", err.Error())
		return
	}

	fb, err := h.feedback.Submit(c.Request.Context(), services.SubmitFeedbackInput{
		Rating:  req.Rating,
		Comment: req.Comment,
		PostID:  req.PostID,
		UserID:  c.GetUint(middleware.ContextUserID),
	})
	if err != nil {
		respondError(c, err, "Failed to submit feedback")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Feedback submitted successfully",
		"feedback": fb,
	})
}

func (h *feedbackHandler) listAll(c *gin.Context) {
	feedback, err := h.feedback.ListAll()
	if err != nil {
		respondError(c, err, "Failed to fetch feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedback": feedback})
}

func (h *feedbackHandler) listMine(c *gin.Context) {
	feedback, err := h.feedback.ListForUser(c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to fetch feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedback": feedback})
}

func (h *feedbackHandler) listForPost(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	feedback, err := h.feedback.ListForPost(postID)
	if err != nil {
		respondError(c, err, "Failed to fetch feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedback": feedback})
}

func (h *feedbackHandler) filterByStars(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	rating, err := strconv.Atoi(c.Param("rating"))
	if err != nil {
		respondError(c, services.ErrInvalidRating, "Invalid rating")
		return
	}

	feedback, err := h.feedback.FilterByStars(postID, rating)
	if err != nil {
		respondError(c, err, "Failed to fetch feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedback": feedback})
}

func (h *feedbackHandler) stats(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	stats, err := h.feedback.StatsForPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err, "Failed to compute feedback stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *feedbackHandler) update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid feedback data", err.Error())
		return
	}

	fb, err := h.feedback.Update(c.Request.Context(), id, c.GetUint(middleware.ContextUserID), services.UpdateFeedbackInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err, "Failed to update feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedback": fb})
}

func (h *feedbackHandler) delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := h.feedback.Delete(c.Request.Context(), id, c.GetUint(middleware.ContextUserID), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err, "Failed to delete feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Feedback deleted successfully"})
}
