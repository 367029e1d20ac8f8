package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/referhub/backend/internal/config"
	"github.com/referhub/backend/internal/database"
	"github.com/referhub/backend/internal/jobs"
	"github.com/referhub/backend/internal/models"
	"github.com/referhub/backend/internal/queue"
	"github.com/referhub/backend/internal/services/email"
	"github.com/referhub/backend/internal/services/ledger"
	"github.com/referhub/backend/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// AuthHandler handles authentication related requests
type AuthHandler struct {
	db           *gorm.DB
	ledger       *ledger.LedgerService
	emailService *email.EmailService
	jobQueue     *queue.RedisQueue
	cfg          *config.Config
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(db *gorm.DB, ledgerService *ledger.LedgerService, emailService *email.EmailService, jobQueue *queue.RedisQueue, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		db:           db,
		ledger:       ledgerService,
		emailService: emailService,
		jobQueue:     jobQueue,
		cfg:          cfg,
		logger:       logger,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Name         string `json:"name" binding:"required,min=2,max=100"`
	Password     string `json:"password" binding:"required,min=8"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// RefreshTokenRequest represents the refresh token request body
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Signup registers a new user, settling referral bonuses when a valid code
// is supplied
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.ProcessSignup(ledger.SignupInput{
		Email:        req.Email,
		Name:         req.Name,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		case errors.Is(err, ledger.ErrSelfReferral):
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot use your own referral code"})
		default:
			h.logger.Error("signup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		}
		return
	}

	user := result.User

	// Welcome email goes through the job queue so SMTP latency never sits
	// on the signup path
	if h.jobQueue != nil {
		err := jobs.EnqueueWelcomeEmail(c.Request.Context(), h.jobQueue, jobs.WelcomeEmailJobPayload{
			UserID:       user.ID,
			Email:        user.Email,
			Name:         user.Name,
			ReferralCode: user.ReferralCode,
		})
		if err != nil {
			h.logger.Warn("failed to enqueue welcome email", zap.Error(err), zap.String("user_id", user.ID.String()))
		}
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		h.logger.Error("failed to generate tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication tokens"})
		return
	}

	_, err = database.CreateSession(h.db, user.ID, tokens.RefreshToken, c.Request.UserAgent(), c.ClientIP(), time.Now().Add(7*24*time.Hour))
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	response := gin.H{
		"message":          "Account created successfully",
		"user":             user,
		"referral_applied": result.ReferralApplied,
		"tokens":           tokens,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}

	c.JSON(http.StatusCreated, response)
}

// Login authenticates a user and returns a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if user.TwoFactorEnabled {
		if req.TOTPCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":        "Two-factor authentication code required",
				"requires_2fa": true,
			})
			return
		}
		if !utils.ValidateTOTP(user.TwoFactorSecret, req.TOTPCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid two-factor authentication code"})
			return
		}
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		h.logger.Error("failed to generate tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication tokens"})
		return
	}

	_, err = database.CreateSession(h.db, user.ID, tokens.RefreshToken, c.Request.UserAgent(), c.ClientIP(), time.Now().Add(7*24*time.Hour))
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	now := time.Now()
	if err := h.db.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		h.logger.Warn("failed to record last login", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := utils.ValidateToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	session, err := database.FindSessionByRefreshToken(h.db, req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found or expired"})
		return
	}

	tokens, err := utils.GenerateTokenPair(claims.UserID, claims.Email)
	if err != nil {
		h.logger.Error("failed to generate tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication tokens"})
		return
	}

	if err := database.UpdateSession(h.db, session.ID, tokens.RefreshToken, time.Now().Add(7*24*time.Hour)); err != nil {
		h.logger.Error("failed to update session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout invalidates the session tied to the supplied refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := database.FindSessionByRefreshToken(h.db, req.RefreshToken)
	if err != nil {
		// Already logged out
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		return
	}

	if err := database.InvalidateSession(h.db, session.ID); err != nil {
		h.logger.Error("failed to invalidate session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ForgotPasswordRequest represents the forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword issues a password reset token and emails it to the user.
// The response is the same whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"message": "If an account with that email exists, a reset link has been sent"}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	token := utils.GenerateSecureToken(32)

	if _, err := database.CreatePasswordResetToken(h.db, user.ID, token, time.Now().Add(24*time.Hour)); err != nil {
		h.logger.Error("failed to store reset token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	if err := h.emailService.SendPasswordResetEmail(user.Email, user.Name, token); err != nil {
		h.logger.Warn("failed to send reset email", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	c.JSON(http.StatusOK, response)
}

// ResetPasswordRequest represents the reset password request body
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// ResetPassword sets a new password using a reset token and invalidates all
// of the user's sessions
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resetToken, err := database.FindPasswordResetToken(h.db, req.Token)
	if err != nil || time.Now().After(resetToken.ExpiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", resetToken.UserID).
		UpdateColumn("password", hashedPassword).Error; err != nil {
		h.logger.Error("failed to update password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	if err := database.DeletePasswordResetToken(h.db, resetToken.ID); err != nil {
		h.logger.Warn("failed to delete used reset token", zap.Error(err))
	}
	if err := database.InvalidateAllUserSessions(h.db, resetToken.UserID); err != nil {
		h.logger.Warn("failed to invalidate sessions after reset", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// GoogleAuthRequest represents the Google sign-in request body
type GoogleAuthRequest struct {
	Code        string `json:"code" binding:"required"`
	RedirectURI string `json:"redirect_uri" binding:"required"`
}

// GoogleAuth signs a user in with a Google OAuth authorization code,
// creating an account on first sign-in
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oauthConfig := &oauth2.Config{
		ClientID:     h.cfg.Google.ClientID,
		ClientSecret: h.cfg.Google.ClientSecret,
		RedirectURL:  req.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{"openid", "email", "profile"},
	}

	token, err := oauthConfig.Exchange(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	userInfo, err := fetchGoogleUserInfo(c.Request.Context(), oauthConfig, token)
	if err != nil {
		h.logger.Error("failed to fetch google user info", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to verify Google account"})
		return
	}

	var user models.User
	err = h.db.Where("email = ?", userInfo.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First sign-in through Google creates the account via the normal
		// signup path so the referral code is allocated the same way
		result, signupErr := h.ledger.ProcessSignup(ledger.SignupInput{
			Email:    userInfo.Email,
			Name:     userInfo.Name,
			Password: utils.GenerateSecureToken(24),
		})
		if signupErr != nil {
			h.logger.Error("google signup failed", zap.Error(signupErr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		user = *result.User

		// Google has already verified the address
		if err := h.db.Model(&user).UpdateColumn("is_verified", true).Error; err != nil {
			h.logger.Warn("failed to mark google user verified", zap.Error(err))
		}
	} else if err != nil {
		h.logger.Error("failed to look up user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		h.logger.Error("failed to generate tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication tokens"})
		return
	}

	_, err = database.CreateSession(h.db, user.ID, tokens.RefreshToken, c.Request.UserAgent(), c.ClientIP(), time.Now().Add(7*24*time.Hour))
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// googleUserInfo is the subset of the Google userinfo response we use
type googleUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// fetchGoogleUserInfo retrieves the profile for an exchanged token
func fetchGoogleUserInfo(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*googleUserInfo, error) {
	client := cfg.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.New("google userinfo response missing email")
	}
	return &info, nil
}
