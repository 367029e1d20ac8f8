package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Points transaction types
const (
	PointsTxReferralBonus  = "referral_bonus"  // credit to the referred user at signup
	PointsTxReferralReward = "referral_reward" // credit to the referrer
	PointsTxRedemption     = "redemption"      // debit for a reward redemption
)

// PointsTransaction is the audit trail for every points balance mutation.
// Amount is signed: positive for credits, negative for debits.
type PointsTransaction struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID" json:"-"`
	Type          string    `gorm:"type:varchar(50);not null" json:"type"`
	Amount        int       `gorm:"not null" json:"amount"`
	BalanceBefore int       `gorm:"not null" json:"balance_before"`
	BalanceAfter  int       `gorm:"not null" json:"balance_after"`
	Reference     string    `gorm:"type:varchar(100)" json:"reference"`
	Description   string    `gorm:"type:text" json:"description"`
	Metadata      JSON      `gorm:"type:jsonb" json:"metadata"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate assigns a UUID before the row is inserted
func (t *PointsTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
