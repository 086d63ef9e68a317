package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"event-booking-server/models"
	"event-booking-server/monitoring"
	"event-booking-server/storage"
	"event-booking-server/utils"
)

// CreateBookingInput is everything needed to place a booking
type CreateBookingInput struct {
	EventDate     time.Time
	TotalPrice    decimal.Decimal
	PaymentMethod string
	PhoneNumber   string
	Address       string
	PostID        uint
	UserID        uint
	Latitude      *float64
	Longitude     *float64
	PaymentProof  *multipart.FileHeader
}

func (in CreateBookingInput) missingFields() bool {
	return in.EventDate.IsZero() ||
		in.TotalPrice.IsNegative() ||
		strings.TrimSpace(in.PaymentMethod) == "" ||
		strings.TrimSpace(in.PhoneNumber) == "" ||
		strings.TrimSpace(in.Address) == "" ||
		in.PostID == 0 ||
		in.UserID == 0
}

// BookingStats counts bookings per status
type BookingStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Cancelled int64 `json:"cancelled"`
	Completed int64 `json:"completed"`
}

// BookingListFilter narrows ListAll
type BookingListFilter struct {
	Status string
	Page   int
	Limit  int
}

// BookingService implements the booking lifecycle
type BookingService struct {
	db            *gorm.DB
	storage       storage.ProofStorage
	notifications *NotificationService
}

func NewBookingService(db *gorm.DB, proofs storage.ProofStorage, notifications *NotificationService) *BookingService {
	return &BookingService{db: db, storage: proofs, notifications: notifications}
}

// withRelations preloads the post and user subsets returned with every booking
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Post", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "category", "image", "base_price")
		}).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "email", "phone")
		})
}

// Create stores the proof, then inserts the booking and the owner's
// confirmation notification in one transaction.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if in.missingFields() {
		return nil, ErrMissingFields
	}
	if !utils.ValidCoordinates(in.Latitude, in.Longitude) {
		return nil, ErrInvalidLocation
	}

	var postCount int64
	if err := s.db.Model(&models.Post{}).Where("id = ?", in.PostID).Count(&postCount).Error; err != nil {
		return nil, err
	}
	if postCount == 0 {
		return nil, ErrPostNotFound
	}

	var proof *string
	if in.PaymentProof != nil && s.storage != nil {
		location, err := s.storage.Save(ctx, in.PaymentProof, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("store payment proof: %w", err)
		}
		proof = &location
	}

	booking := models.Booking{
		EventDate:     in.EventDate,
		TotalPrice:    in.TotalPrice,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		PhoneNumber:   strings.TrimSpace(in.PhoneNumber),
		Address:       strings.TrimSpace(in.Address),
		Status:        models.BookingStatusPending,
		ImageProof:    proof,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		UserID:        in.UserID,
		PostID:        in.PostID,
	}

	var notification *models.Notification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		var err error
		notification, err = s.notifications.notifyUser(tx, KindBooking, in.UserID,
			"Booking received",
			fmt.Sprintf("Your booking #%d for %s is pending confirmation.", booking.ID, booking.EventDate.Format("2006-01-02")))
		return err
	})
	if err != nil {
		if proof != nil {
			if rmErr := s.storage.Remove(ctx, *proof); rmErr != nil {
				log.Printf("⚠️ Failed to remove orphaned payment proof %s: %v", *proof, rmErr)
			}
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	monitoring.TrackBookingCreated()
	log.Printf("✅ Booking %d created for user %d on post %d", booking.ID, booking.UserID, booking.PostID)
	s.notifications.Push([]models.Notification{*notification})

	return s.GetOne(booking.ID, in.UserID)
}

// ListForUser returns the user's bookings, newest first
func (s *BookingService) ListForUser(userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := withRelations(s.db).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	return bookings, err
}

// GetOne returns a booking owned by userID
func (s *BookingService) GetOne(id, userID uint) (*models.Booking, error) {
	var booking models.Booking
	err := withRelations(s.db).Where("id = ? AND user_id = ?", id, userID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// Cancel cancels one of the user's bookings unless it already reached a terminal status
func (s *BookingService) Cancel(id, userID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, ErrBookingNotCancellable
	}

	// guard against a concurrent transition between the read and the write
	res := s.db.Model(&models.Booking{}).
		Where("id = ? AND status NOT IN ?", id, []string{string(models.BookingStatusCancelled), string(models.BookingStatusCompleted)}).
		Update("status", models.BookingStatusCancelled)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrBookingNotCancellable
	}

	monitoring.TrackBookingStatusChange(string(booking.Status), string(models.BookingStatusCancelled))
	return s.GetOne(id, userID)
}

// UpdateStatus moves a booking to status following the lifecycle and notifies its owner
func (s *BookingService) UpdateStatus(id uint, status string) (*models.Booking, error) {
	next := models.BookingStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.IsValid() {
		return nil, ErrInvalidStatus
	}

	var booking models.Booking
	if err := s.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	previous := booking.Status
	if !previous.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, previous, next)
	}
	if previous == next {
		return s.GetOne(id, booking.UserID)
	}

	var notification *models.Notification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", id, previous).Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		var err error
		notification, err = s.notifications.notifyUser(tx, KindBooking, booking.UserID,
			"Booking "+string(next),
			fmt.Sprintf("Your booking #%d is now %s.", booking.ID, next))
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackBookingStatusChange(string(previous), string(next))
	log.Printf("✅ Booking %d status %s -> %s", id, previous, next)
	s.notifications.Push([]models.Notification{*notification})

	return s.GetOne(id, booking.UserID)
}

// Stats counts bookings by status across all users
func (s *BookingService) Stats() (*BookingStats, error) {
	var rows []struct {
		Status models.BookingStatus
		Count  int64
	}
	err := s.db.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &BookingStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.BookingStatusPending:
			stats.Pending = row.Count
		case models.BookingStatusConfirmed:
			stats.Confirmed = row.Count
		case models.BookingStatusCancelled:
			stats.Cancelled = row.Count
		case models.BookingStatusCompleted:
			stats.Completed = row.Count
		}
	}
	return stats, nil
}

// ListAll pages through every booking, optionally by status
func (s *BookingService) ListAll(f BookingListFilter) (*Page[models.Booking], error) {
	page, limit := normalizePage(f.Page, f.Limit)

	status := models.BookingStatus(strings.ToLower(strings.TrimSpace(f.Status)))
	if status != "" && !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	filter := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := s.db.Model(&models.Booking{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Booking
	err := withRelations(s.db.Scopes(filter)).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page[models.Booking]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

const exportSheet = "Bookings"

var exportHeaders = []string{"ID", "Event date", "Post", "Category", "Customer", "Email", "Phone", "Address", "Payment method", "Total price", "Status", "Created at"}

// Export renders bookings whose event date falls within [from, to] as an XLSX workbook.
// A nil bound leaves that side open.
func (s *BookingService) Export(from, to *time.Time) ([]byte, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, ErrInvalidDateRange
	}

	query := withRelations(s.db).Order("event_date ASC, id ASC")
	if from != nil {
		query = query.Where("event_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("event_date < ?", to.AddDate(0, 0, 1))
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, header)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle)

	for i, b := range bookings {
		row := []interface{}{
			b.ID,
			b.EventDate.Format("2006-01-02"),
			"", "", "", "", b.PhoneNumber, b.Address, b.PaymentMethod,
			b.TotalPrice.InexactFloat64(),
			string(b.Status),
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		if b.Post != nil {
			row[2], row[3] = b.Post.Title, b.Post.Category
		}
		if b.User != nil {
			row[4], row[5] = b.User.Username, b.User.Email
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	f.SetColWidth(exportSheet, "A", "A", 8)
	f.SetColWidth(exportSheet, "B", "L", 18)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
