package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"event-booking-server/middleware"
	"event-booking-server/services"
)

// CreateBookingForm is the multipart form posted by the booking page
type CreateBookingForm struct {
	EventDate     string   `form:"eventDate" binding:"required"`
	TotalPrice    string   `form:"totalPrice" binding:"required"`
	PaymentMethod string   `form:"paymentMethod" binding:"required"`
	PhoneNumber   string   `form:"phoneNumber" binding:"required"`
	Address       string   `form:"address" binding:"required"`
	ServiceID     uint     `form:"serviceId" binding:"required"`
	Latitude      *float64 `form:"latitude" binding:"omitempty,latitude"`
	Longitude     *float64 `form:"longitude" binding:"omitempty,longitude"`
}

// UpdateStatusRequest changes a booking's status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,booking_status"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type bookingHandler struct {
	bookings *services.BookingService
}

// RegisterBookingRoutes registers the booking lifecycle routes
func RegisterBookingRoutes(router *gin.RouterGroup, bookings *services.BookingService, requireAuth, requireAdmin gin.HandlerFunc) {
	h := &bookingHandler{bookings: bookings}

	bookingRoutes := router.Group("/booking")
	bookingRoutes.Use(requireAuth)
	{
		bookingRoutes.POST("", h.create)
		bookingRoutes.GET("", h.listMine)

		// Admin
		bookingRoutes.GET("/stats", requireAdmin, h.stats)
		bookingRoutes.GET("/all", requireAdmin, h.listAll)
		bookingRoutes.GET("/export", requireAdmin, h.export)
		bookingRoutes.PUT("/status/:id", requireAdmin, h.updateStatus)

		bookingRoutes.GET("/:id", h.getOne)
		bookingRoutes.PUT("/cancel/:id", h.cancel)
	}
}

// parseEventDate accepts RFC 3339 timestamps and plain dates
func parseEventDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("eventDate %q is not a valid date", v)
}

func (h *bookingHandler) create(c *gin.Context) {
	var form CreateBookingForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "Missing required fields", err.Error())
		return
	}

	eventDate, err := parseEventDate(form.EventDate)
	if err != nil {
		badRequest(c, "Invalid event date", err.Error())
		return
	}
	totalPrice, err := decimal.NewFromString(strings.TrimSpace(form.TotalPrice))
	if err != nil {
		badRequest(c, "Invalid total price", err.Error())
		return
	}

	proof, err := c.FormFile("paymentProof")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		badRequest(c, "Invalid payment proof", err.Error())
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), services.CreateBookingInput{
		EventDate:     eventDate,
		TotalPrice:    totalPrice,
		PaymentMethod: form.PaymentMethod,
		PhoneNumber:   form.PhoneNumber,
		Address:       form.Address,
		PostID:        form.ServiceID,
		UserID:        c.GetUint(middleware.ContextUserID),
		Latitude:      form.Latitude,
		Longitude:     form.Longitude,
		PaymentProof:  proof,
	})
	if err != nil {
		respondError(c, err, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Booking created successfully",
		"booking": booking,
	})
}

func (h *bookingHandler) listMine(c *gin.Context) {
	bookings, err := h.bookings.ListForUser(c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to fetch bookings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

func (h *bookingHandler) getOne(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookings.GetOne(id, c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to fetch booking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

func (h *bookingHandler) cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	booking, err := h.bookings.Cancel(id, c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to cancel booking")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking cancelled successfully",
		"booking": booking,
	})
}

func (h *bookingHandler) updateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid status", err.Error())
		return
	}

	booking, err := h.bookings.UpdateStatus(id, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update booking status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking status updated",
		"booking": booking,
	})
}

func (h *bookingHandler) stats(c *gin.Context) {
	stats, err := h.bookings.Stats()
	if err != nil {
		respondError(c, err, "Failed to compute booking stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *bookingHandler) listAll(c *gin.Context) {
	page, err := h.bookings.ListAll(services.BookingListFilter{
		Status: c.Query("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	})
	if err != nil {
		respondError(c, err, "Failed to fetch bookings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": page.Items, "pagination": gin.H{
		"total":      page.Total,
		"page":       page.Page,
		"limit":      page.Limit,
		"totalPages": page.TotalPages,
	}})
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		badRequest(c, "Invalid "+name, name+" must be formatted as YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

func (h *bookingHandler) export(c *gin.Context) {
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	data, err := h.bookings.Export(from, to)
	if err != nil {
		respondError(c, err, "Failed to export bookings")
		return
	}

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, xlsxContentType, data)
}
