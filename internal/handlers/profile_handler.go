package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/referhub/backend/internal/database"
	"github.com/referhub/backend/internal/models"
	"github.com/referhub/backend/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// otpIssuer is the issuer shown in authenticator apps
const otpIssuer = "ReferHub"

// ProfileHandler handles user profile requests
type ProfileHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(db *gorm.DB, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{db: db, logger: logger}
}

// GetProfile returns the authenticated user's profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfileRequest represents the profile update request body
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// UpdateProfile updates the authenticated user's profile fields
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.Model(&user).UpdateColumn("name", req.Name).Error; err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	user.Name = req.Name

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// Enable2FA generates a TOTP secret for the user and returns the otpauth URL.
// The secret is stored but two-factor stays off until verified.
func (h *ProfileHandler) Enable2FA(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.TwoFactorEnabled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Two-factor authentication is already enabled"})
		return
	}

	secret := utils.GenerateOTPSecret()
	if err := h.db.Model(&user).UpdateColumn("two_factor_secret", secret).Error; err != nil {
		h.logger.Error("failed to store 2fa secret", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable two-factor authentication"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret":      secret,
		"otpauth_url": utils.GenerateOTPQRCode(secret, user.Email, otpIssuer),
	})
}

// TwoFactorCodeRequest represents a TOTP code submission
type TwoFactorCodeRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

// Verify2FA confirms the user's authenticator setup and switches 2FA on
func (h *ProfileHandler) Verify2FA(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TwoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.TwoFactorSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Two-factor setup has not been started"})
		return
	}

	if !utils.ValidateTOTP(user.TwoFactorSecret, req.Code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code"})
		return
	}

	if err := h.db.Model(&user).UpdateColumn("two_factor_enabled", true).Error; err != nil {
		h.logger.Error("failed to enable 2fa", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable two-factor authentication"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Two-factor authentication enabled"})
}

// Disable2FA turns off two-factor authentication after verifying a code,
// then invalidates the user's other sessions
func (h *ProfileHandler) Disable2FA(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TwoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !user.TwoFactorEnabled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Two-factor authentication is not enabled"})
		return
	}

	if !utils.ValidateTOTP(user.TwoFactorSecret, req.Code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code"})
		return
	}

	updates := map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_secret":  "",
	}
	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		h.logger.Error("failed to disable 2fa", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable two-factor authentication"})
		return
	}

	if err := database.InvalidateAllUserSessions(h.db, user.ID); err != nil {
		h.logger.Warn("failed to invalidate sessions after 2fa change", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Two-factor authentication disabled"})
}
