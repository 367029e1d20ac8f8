package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/referhub/backend/internal/database"
	"gorm.io/gorm"
)

// ScheduleRecurringJobs starts the cron scheduler for housekeeping work.
// Currently that is expired-session cleanup, hourly.
func ScheduleRecurringJobs(db *gorm.DB) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Every(1).Hour().Do(func() {
		if err := database.CleanupExpiredSessions(db); err != nil {
			log.Printf("Failed to clean up expired sessions: %v", err)
		}
	})
	if err != nil {
		log.Printf("Failed to schedule session cleanup job: %v", err)
	}

	scheduler.StartAsync()
	return scheduler
}
