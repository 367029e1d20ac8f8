package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/referhub/backend/internal/models"
	"github.com/referhub/backend/internal/services/ledger"
	"gorm.io/gorm"
)

// ReferralHandler handles referral related requests
type ReferralHandler struct {
	db          *gorm.DB
	ledger      *ledger.LedgerService
	frontendURL string
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(db *gorm.DB, ledgerService *ledger.LedgerService, frontendURL string) *ReferralHandler {
	return &ReferralHandler{
		db:          db,
		ledger:      ledgerService,
		frontendURL: frontendURL,
	}
}

// currentUserID reads the authenticated user's id from the request context
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("user_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication context"})
		return uuid.Nil, false
	}
	return id, true
}

// GetMyReferrals returns the authenticated user's referrals, newest first
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	referrals, err := h.ledger.Referrals(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"count":     len(referrals),
	})
}

// GetReferralInfo returns the user's referral code, share link and totals
func (h *ReferralHandler) GetReferralInfo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var referralCount int64
	if err := h.db.Model(&models.Referral{}).Where("referrer_id = ?", userID).Count(&referralCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch referral info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":  user.ReferralCode,
		"share_link":     fmt.Sprintf("%s/signup?ref=%s", h.frontendURL, user.ReferralCode),
		"referral_count": referralCount,
		"points":         user.Points,
	})
}
