package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralStatusCompleted is the only status a referral can carry. A referral
// row is written at the moment a referred signup succeeds and never changes
// afterwards.
const ReferralStatusCompleted = "completed"

// Referral is an immutable record of a completed referral: who referred,
// which code they used and who signed up with it.
type Referral struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID     uuid.UUID `gorm:"type:uuid;index;not null" json:"referrer_id"`
	Referrer       User      `gorm:"foreignKey:ReferrerID" json:"-"`
	ReferrerCode   string    `gorm:"type:varchar(20);not null" json:"referrer_code"`
	ReferredUserID uuid.UUID `gorm:"type:uuid;not null" json:"referred_user_id"`
	ReferredUser   User      `gorm:"foreignKey:ReferredUserID" json:"-"`
	RefereeEmail   string    `gorm:"type:varchar(255);not null" json:"referee_email"`
	Status         string    `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate assigns a UUID before the row is inserted
func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
