package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"event-booking-server/middleware"
	"event-booking-server/models"
)

// limiterIdle is how long a client may stay quiet before its limiter is evicted
const limiterIdle = time.Hour

// RetentionJob purges old read notifications and idle rate limiter entries
type RetentionJob struct {
	db            *gorm.DB
	limiter       *middleware.RateLimiter
	retentionDays int
	cron          *cron.Cron
	now           func() time.Time
}

// NewRetentionJob creates a new retention job. A non-positive retention keeps notifications forever.
func NewRetentionJob(db *gorm.DB, limiter *middleware.RateLimiter, retentionDays int) *RetentionJob {
	return &RetentionJob{
		db:            db,
		limiter:       limiter,
		retentionDays: retentionDays,
		cron:          cron.New(),
		now:           time.Now,
	}
}

// Start schedules the job, e.g. "@daily" or "0 3 * * *"
func (j *RetentionJob) Start(schedule string) error {
	if _, err := j.cron.AddFunc(schedule, j.Run); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	j.cron.Start()
	log.Printf("🚀 Retention job scheduled (%s)", schedule)
	return nil
}

// Stop waits for a running pass to finish
func (j *RetentionJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
	log.Println("🛑 Retention job stopped")
}

// Run executes one pass
func (j *RetentionJob) Run() {
	if deleted, err := j.PurgeNotifications(); err != nil {
		log.Printf("❌ Error purging notifications: %v", err)
	} else if deleted > 0 {
		log.Printf("🧹 Purged %d read notifications", deleted)
	}

	if j.limiter != nil {
		if evicted := j.limiter.Cleanup(limiterIdle); evicted > 0 {
			log.Printf("🧹 Evicted %d idle rate limiters", evicted)
		}
	}
}

// Cutoff is the start of the day retentionDays ago
func (j *RetentionJob) Cutoff() time.Time {
	return now.With(j.now()).BeginningOfDay().AddDate(0, 0, -j.retentionDays)
}

// PurgeNotifications deletes read notifications created before the cutoff.
// Unread ones are kept regardless of age.
func (j *RetentionJob) PurgeNotifications() (int64, error) {
	if j.retentionDays <= 0 {
		return 0, nil
	}
	res := j.db.Where("read = ? AND created_at < ?", true, j.Cutoff()).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
