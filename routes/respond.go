package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"event-booking-server/services"
	"event-booking-server/storage"
)

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error, summary string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrBookingNotCancellable),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidLocation),
		errors.Is(err, storage.ErrInvalidImage):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrFeedbackNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrUserExists):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Printf("❌ %s: %v", summary, err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   summary,
		"message": err.Error(),
	})
}

func badRequest(c *gin.Context, summary, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   summary,
		"message": message,
	})
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name, "Path parameter "+name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
