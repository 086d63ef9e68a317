package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"event-booking-server/middleware"
	"event-booking-server/services"
)

// CreateNotificationRequest targets a user; an empty userId means the caller
type CreateNotificationRequest struct {
	UserID  uint   `json:"userId"`
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// BroadcastRequest is sent to every user
type BroadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// BatchRequest applies one action to several notifications
type BatchRequest struct {
	IDs    []uint `json:"ids" binding:"required,min=1"`
	Action string `json:"action" binding:"required,oneof=delete markRead markUnread"`
}

type notificationHandler struct {
	notifications *services.NotificationService
}

// RegisterNotificationRoutes registers user and admin notification routes
func RegisterNotificationRoutes(router *gin.RouterGroup, notifications *services.NotificationService, requireAuth, requireAdmin gin.HandlerFunc) {
	h := &notificationHandler{notifications: notifications}

	notificationRoutes := router.Group("/notification")
	notificationRoutes.Use(requireAuth)
	{
		notificationRoutes.POST("", h.create)
		notificationRoutes.GET("/user", h.listMine)
		notificationRoutes.GET("/user/unread-count", h.unreadCount)
		notificationRoutes.PUT("/user/mark-all-read", h.markAllRead)
		notificationRoutes.PUT("/:id/read", h.markRead)
		notificationRoutes.POST("/broadcast", requireAdmin, h.broadcast)
	}

	admin := notificationRoutes.Group("/admin")
	admin.Use(requireAdmin)
	{
		admin.GET("/all", h.adminList)
		admin.DELETE("/:id", h.adminDelete)
		admin.POST("/batch", h.adminBatch)
		admin.PUT("/:id/toggle", h.adminToggle)
	}
}

func (h *notificationHandler) create(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid notification data", err.Error())
		return
	}

	n, err := h.notifications.Create(c.GetUint(middleware.ContextUserID), middleware.IsAdmin(c), req.UserID, req.Title, req.Content)
	if err != nil {
		respondError(c, err, "Failed to create notification")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "notification": n})
}

func (h *notificationHandler) listMine(c *gin.Context) {
	notifications, err := h.notifications.ListForUser(c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to fetch notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": notifications})
}

func (h *notificationHandler) unreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

func (h *notificationHandler) markRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.notifications.MarkRead(id, c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to mark notification as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": n})
}

func (h *notificationHandler) markAllRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to mark notifications as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

func (h *notificationHandler) broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid notification data", err.Error())
		return
	}
	count, err := h.notifications.Broadcast(req.Title, req.Content)
	if err != nil {
		respondError(c, err, "Failed to broadcast notification")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Notification sent to all users",
		"count":   count,
	})
}

func (h *notificationHandler) adminList(c *gin.Context) {
	filter := services.AdminListFilter{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 20),
	}
	if v := c.Query("read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "Invalid read filter", "read must be true or false")
			return
		}
		filter.Read = &read
	}
	if v := c.Query("userId"); v != "" {
		userID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "Invalid userId", "userId must be a positive integer")
			return
		}
		filter.UserID = uint(userID)
	}

	page, err := h.notifications.AdminList(filter)
	if err != nil {
		respondError(c, err, "Failed to fetch notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": page.Items, "pagination": gin.H{
		"total":      page.Total,
		"page":       page.Page,
		"limit":      page.Limit,
		"totalPages": page.TotalPages,
	}})
}

func (h *notificationHandler) adminDelete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.AdminDelete(id); err != nil {
		respondError(c, err, "Failed to delete notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted"})
}

func (h *notificationHandler) adminBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid batch request", err.Error())
		return
	}
	affected, err := h.notifications.AdminBatch(req.IDs, req.Action)
	if err != nil {
		respondError(c, err, "Failed to apply batch action")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "affected": affected})
}

func (h *notificationHandler) adminToggle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.notifications.AdminToggle(id)
	if err != nil {
		respondError(c, err, "Failed to toggle notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": n})
}
