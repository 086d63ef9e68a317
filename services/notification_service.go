package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"event-booking-server/models"
	"event-booking-server/monitoring"
)

const fanOutBatchSize = 500

// Notification kinds, used as the metrics label
const (
	KindDirect    = "direct"
	KindNewPost   = "new_post"
	KindBooking   = "booking"
	KindBroadcast = "broadcast"
)

// Batch actions accepted by AdminBatch
const (
	BatchDelete     = "delete"
	BatchMarkRead   = "markRead"
	BatchMarkUnread = "markUnread"
)

// NotificationPusher delivers stored notifications to connected clients
type NotificationPusher interface {
	PushNotifications(notifications []models.Notification)
}

// NotificationService stores per-user notifications and relays them to the hub
type NotificationService struct {
	db     *gorm.DB
	pusher NotificationPusher
}

// NewNotificationService creates a notification service. pusher may be nil.
func NewNotificationService(db *gorm.DB, pusher NotificationPusher) *NotificationService {
	return &NotificationService{db: db, pusher: pusher}
}

// Push relays notifications once their transaction has committed
func (s *NotificationService) Push(notifications []models.Notification) {
	if s.pusher == nil || len(notifications) == 0 {
		return
	}
	s.pusher.PushNotifications(notifications)
}

// fanOut inserts one notification per user inside tx
func (s *NotificationService) fanOut(tx *gorm.DB, title, content string) ([]models.Notification, error) {
	var userIDs []uint
	if err := tx.Model(&models.User{}).Order("id").Pluck("id", &userIDs).Error; err != nil {
		return nil, fmt.Errorf("load user ids: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	notifications := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, models.Notification{UserID: id, Title: title, Content: content})
	}
	if err := tx.CreateInBatches(&notifications, fanOutBatchSize).Error; err != nil {
		return nil, fmt.Errorf("insert notifications: %w", err)
	}
	return notifications, nil
}

// OnPostCreated notifies every user about a new post. It runs inside the
// caller's transaction so either all users are notified or none are.
func (s *NotificationService) OnPostCreated(tx *gorm.DB, post *models.Post) ([]models.Notification, error) {
	title := "New event available"
	content := fmt.Sprintf("%s is now open for booking.", post.Title)
	notifications, err := s.fanOut(tx, title, content)
	if err != nil {
		return nil, err
	}
	monitoring.TrackNotifications(KindNewPost, len(notifications))
	return notifications, nil
}

// notifyUser inserts a single notification using the given handle (db or tx)
func (s *NotificationService) notifyUser(tx *gorm.DB, kind string, userID uint, title, content string) (*models.Notification, error) {
	n := models.Notification{UserID: userID, Title: title, Content: content}
	if err := tx.Create(&n).Error; err != nil {
		return nil, err
	}
	monitoring.TrackNotifications(kind, 1)
	return &n, nil
}

// Create stores a notification for targetUserID. Non-admins may only notify themselves;
// a zero target means the actor.
func (s *NotificationService) Create(actorID uint, actorIsAdmin bool, targetUserID uint, title, content string) (*models.Notification, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrMissingFields
	}
	if targetUserID == 0 {
		targetUserID = actorID
	}
	if targetUserID != actorID && !actorIsAdmin {
		return nil, ErrForbidden
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", targetUserID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}

	n, err := s.notifyUser(s.db, KindDirect, targetUserID, title, content)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.Push([]models.Notification{*n})
	return n, nil
}

// ListForUser returns a user's notifications, newest first
func (s *NotificationService) ListForUser(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).Where("user_id = ? AND read = ?", userID, false).Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(id, userID uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&n).Update("read", true).Error; err != nil {
		return nil, err
	}
	n.Read = true
	return &n, nil
}

// MarkAllRead marks every unread notification of the user and returns how many changed
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	res := s.db.Model(&models.Notification{}).Where("user_id = ? AND read = ?", userID, false).Update("read", true)
	return res.RowsAffected, res.Error
}

// Broadcast sends the same notification to every user in one transaction
func (s *NotificationService) Broadcast(title, content string) (int, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return 0, ErrMissingFields
	}

	var created []models.Notification
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = s.fanOut(tx, title, content)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("broadcast: %w", err)
	}

	monitoring.TrackNotifications(KindBroadcast, len(created))
	log.Printf("📡 Broadcast notification to %d users", len(created))
	s.Push(created)
	return len(created), nil
}

// AdminListFilter narrows AdminList
type AdminListFilter struct {
	Page   int
	Limit  int
	Read   *bool
	UserID uint
}

// Page is a slice of results plus pagination metadata
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}

// AdminList lists notifications of all users with their owner
func (s *NotificationService) AdminList(f AdminListFilter) (*Page[models.Notification], error) {
	page, limit := normalizePage(f.Page, f.Limit)

	filter := func(db *gorm.DB) *gorm.DB {
		if f.Read != nil {
			db = db.Where("read = ?", *f.Read)
		}
		if f.UserID != 0 {
			db = db.Where("user_id = ?", f.UserID)
		}
		return db
	}

	var total int64
	if err := s.db.Model(&models.Notification{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Notification
	err := s.db.Scopes(filter).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "username", "email") }).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page[models.Notification]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *NotificationService) AdminDelete(id uint) error {
	res := s.db.Delete(&models.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// AdminBatch applies action to every notification in ids and returns the affected count
func (s *NotificationService) AdminBatch(ids []uint, action string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrMissingFields
	}

	var res *gorm.DB
	switch action {
	case BatchDelete:
		res = s.db.Where("id IN ?", ids).Delete(&models.Notification{})
	case BatchMarkRead:
		res = s.db.Model(&models.Notification{}).Where("id IN ?", ids).Update("read", true)
	case BatchMarkUnread:
		res = s.db.Model(&models.Notification{}).Where("id IN ?", ids).Update("read", false)
	default:
		return 0, ErrInvalidAction
	}
	return res.RowsAffected, res.Error
}

// AdminToggle flips the read flag of a notification
func (s *NotificationService) AdminToggle(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	n.Read = !n.Read
	if err := s.db.Model(&n).Update("read", n.Read).Error; err != nil {
		return nil, err
	}
	return &n, nil
}
