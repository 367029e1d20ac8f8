package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedemptionStatusCompleted marks a redemption that debited points and was
// recorded. Redemptions are written once and never mutated.
const RedemptionStatusCompleted = "completed"

// Redemption records a points-for-reward exchange. RewardName and PointsCost
// are snapshots taken at redemption time so later catalog changes do not
// rewrite history.
type Redemption struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
	RewardID   string    `gorm:"type:varchar(50);not null" json:"reward_id"`
	RewardName string    `gorm:"type:varchar(100);not null" json:"reward_name"`
	PointsCost int       `gorm:"not null" json:"points_cost"`
	Status     string    `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate assigns a UUID before the row is inserted
func (r *Redemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
