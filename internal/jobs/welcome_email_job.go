package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/referhub/backend/internal/queue"
	"github.com/referhub/backend/internal/services/email"
)

// WelcomeEmailJobType is the job type for post-signup welcome emails
const WelcomeEmailJobType queue.JobType = "send_welcome_email"

// WelcomeEmailJobPayload carries what the email needs; the job is
// self-contained so the worker never has to hit the database
type WelcomeEmailJobPayload struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ReferralCode string    `json:"referral_code"`
}

// RegisterWelcomeEmailJobHandlers registers the welcome email job handler
func RegisterWelcomeEmailJobHandlers(q *queue.RedisQueue, emailService *email.EmailService) {
	q.RegisterHandler(WelcomeEmailJobType, func(ctx context.Context, job queue.Job) error {
		var payload WelcomeEmailJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal welcome email payload: %w", err)
		}

		if err := emailService.SendWelcomeEmail(payload.Email, payload.Name, payload.ReferralCode); err != nil {
			return fmt.Errorf("failed to send welcome email: %w", err)
		}

		log.Printf("Welcome email sent to %s (user %s)", payload.Email, payload.UserID)
		return nil
	})
}

// EnqueueWelcomeEmail queues a welcome email for a freshly signed up user.
// Failures are the caller's to log; they never fail the signup itself.
func EnqueueWelcomeEmail(ctx context.Context, q *queue.RedisQueue, payload WelcomeEmailJobPayload) error {
	_, err := q.Enqueue(ctx, WelcomeEmailJobType, payload)
	return err
}
