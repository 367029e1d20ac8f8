package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a member of the referral program
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Email            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name             string         `gorm:"type:varchar(100);not null" json:"name"`
	Password         string         `gorm:"type:varchar(255);not null" json:"-"`
	ReferralCode     string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	Points           int            `gorm:"not null;default:0" json:"points"`
	ReferredBy       *uuid.UUID     `gorm:"type:uuid" json:"referred_by,omitempty"`
	IsVerified       bool           `gorm:"default:false" json:"is_verified"`
	TwoFactorEnabled bool           `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorSecret  string         `gorm:"type:varchar(255)" json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID before the row is inserted
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
