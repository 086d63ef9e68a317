package services

import "errors"

var (
	ErrMissingFields         = errors.New("missing required fields")
	ErrUserExists            = errors.New("username or email already in use")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotFound          = errors.New("user not found")
	ErrForbidden             = errors.New("not allowed")
	ErrPostNotFound          = errors.New("post not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrBookingNotCancellable = errors.New("booking can no longer be cancelled")
	ErrInvalidStatus         = errors.New("invalid booking status")
	ErrInvalidTransition     = errors.New("booking status transition not allowed")
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrFeedbackNotFound      = errors.New("feedback not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrInvalidAction         = errors.New("invalid batch action")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrInvalidLocation       = errors.New("latitude and longitude must be given together and be in range")
)
