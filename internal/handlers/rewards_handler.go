package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/referhub/backend/internal/catalog"
	"github.com/referhub/backend/internal/models"
	"github.com/referhub/backend/internal/services/ledger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RewardsHandler handles reward catalog and redemption requests
type RewardsHandler struct {
	db      *gorm.DB
	ledger  *ledger.LedgerService
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewRewardsHandler creates a new RewardsHandler
func NewRewardsHandler(db *gorm.DB, ledgerService *ledger.LedgerService, cat *catalog.Catalog, logger *zap.Logger) *RewardsHandler {
	return &RewardsHandler{
		db:      db,
		ledger:  ledgerService,
		catalog: cat,
		logger:  logger,
	}
}

// rewardView is a catalog entry decorated with the caller's eligibility
type rewardView struct {
	catalog.Reward
	Eligible bool `json:"eligible"`
}

// ListRewards returns the catalog with an eligibility flag for the
// authenticated user
func (h *RewardsHandler) ListRewards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	rewards := h.catalog.List()
	views := make([]rewardView, 0, len(rewards))
	for _, r := range rewards {
		views = append(views, rewardView{
			Reward:   r,
			Eligible: h.catalog.Eligible(&user, r.ID),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"rewards": views,
		"points":  user.Points,
	})
}

// Redeem exchanges the authenticated user's points for a reward
func (h *RewardsHandler) Redeem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rewardID := c.Param("id")

	redemption, err := h.ledger.Redeem(userID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrRewardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Reward not found"})
		case errors.Is(err, ledger.ErrInsufficientPoints):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough points to redeem this reward"})
		case errors.Is(err, ledger.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			h.logger.Error("redemption failed", zap.Error(err), zap.String("user_id", userID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem reward"})
		}
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Reward redeemed successfully",
		"redemption": redemption,
		"points":     user.Points,
	})
}

// GetRedemptions returns the authenticated user's redemption history
func (h *RewardsHandler) GetRedemptions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	redemptions, err := h.ledger.Redemptions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch redemptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redemptions": redemptions,
		"count":       len(redemptions),
	})
}

// GetPointsHistory returns the authenticated user's points audit trail
func (h *RewardsHandler) GetPointsHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	transactions, err := h.ledger.PointsHistory(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch points history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
