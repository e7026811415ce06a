package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"milesync-backend/internal/repository"
)

const (
	taskReminderInterval     = 24 * time.Hour
	weeklyDigestInterval     = 7 * 24 * time.Hour
	notificationPollInterval = 1 * time.Hour
)

// NotificationScheduler sends task reminders and weekly digests on an
// hourly poll. Redis SetNX keys guard against duplicate sends.
type NotificationScheduler struct {
	userRepo *repository.UserRepo
	email    *EmailService
	redis    *redis.Client
	stopChan chan struct{}
}

func NewNotificationScheduler(userRepo *repository.UserRepo, email *EmailService, redisClient *redis.Client) *NotificationScheduler {
	return &NotificationScheduler{
		userRepo: userRepo,
		email:    email,
		redis:    redisClient,
		stopChan: make(chan struct{}),
	}
}

func (s *NotificationScheduler) Start() {
	if s.userRepo == nil || s.email == nil {
		return
	}

	go s.loop(func(ctx context.Context, now time.Time) {
		s.sendTaskReminders(ctx, now)
	})
	go s.loop(func(ctx context.Context, now time.Time) {
		s.sendWeeklyDigests(ctx, now)
	})

	log.Printf("Notification scheduler started")
}

func (s *NotificationScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *NotificationScheduler) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(notificationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

// claimSend marks a notification as sent for the interval. Returns false
// when another tick (or instance) already sent it.
func (s *NotificationScheduler) claimSend(ctx context.Context, kind string, userID uuid.UUID, ttl time.Duration) bool {
	key := fmt.Sprintf("notify_sent:%s:%s", kind, userID.String())
	claimed, err := s.redis.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		log.Printf("notification claim failed for %s/%s: %v", kind, userID, err)
		return false
	}
	return claimed
}

func (s *NotificationScheduler) sendTaskReminders(ctx context.Context, now time.Time) {
	recipients, err := s.userRepo.ListReminderRecipients(ctx)
	if err != nil {
		log.Printf("task reminders: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		if !s.claimSend(ctx, "task_reminder", recipient.ID, taskReminderInterval) {
			continue
		}

		if err := s.email.SendTaskReminderEmail(recipient.Email, recipient.FullName, recipient.PendingTasks); err != nil {
			log.Printf("task reminders: failed to send to %s: %v", recipient.Email, err)
		}
	}
}

func (s *NotificationScheduler) sendWeeklyDigests(ctx context.Context, now time.Time) {
	// Digests go out on Mondays.
	if now.Weekday() != time.Monday {
		return
	}

	recipients, err := s.userRepo.ListReminderRecipients(ctx)
	if err != nil {
		log.Printf("weekly digest: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		tasksCompleted, goalsCompleted, activeDays, statsErr := s.userRepo.GetWeeklyDigestStats(ctx, recipient.ID)
		if statsErr != nil {
			log.Printf("weekly digest: failed to load stats for user %s: %v", recipient.ID, statsErr)
			continue
		}

		// Nothing happened, nothing to say.
		if tasksCompleted == 0 && goalsCompleted == 0 {
			continue
		}

		if !s.claimSend(ctx, "weekly_digest", recipient.ID, weeklyDigestInterval) {
			continue
		}

		if err := s.email.SendWeeklyDigestEmail(recipient.Email, recipient.FullName, tasksCompleted, goalsCompleted, activeDays); err != nil {
			log.Printf("weekly digest: failed to send to %s: %v", recipient.Email, err)
		}
	}
}
