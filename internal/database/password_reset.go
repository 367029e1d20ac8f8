package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasswordResetToken represents a single-use password reset token
type PasswordResetToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(255);index" json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID before the row is inserted
func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// CreatePasswordResetToken stores a reset token for a user
func CreatePasswordResetToken(db *gorm.DB, userID uuid.UUID, token string, expiresAt time.Time) (*PasswordResetToken, error) {
	resetToken := PasswordResetToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(&resetToken).Error; err != nil {
		return nil, err
	}
	return &resetToken, nil
}

// FindPasswordResetToken looks up a reset token
func FindPasswordResetToken(db *gorm.DB, token string) (*PasswordResetToken, error) {
	var resetToken PasswordResetToken
	if err := db.Where("token = ?", token).First(&resetToken).Error; err != nil {
		return nil, err
	}
	return &resetToken, nil
}

// DeletePasswordResetToken removes a used or expired token
func DeletePasswordResetToken(db *gorm.DB, tokenID uuid.UUID) error {
	return db.Delete(&PasswordResetToken{}, "id = ?", tokenID).Error
}
