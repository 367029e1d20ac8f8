package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/referhub/backend/internal/catalog"
	"github.com/referhub/backend/internal/config"
	"github.com/referhub/backend/internal/handlers"
	"github.com/referhub/backend/internal/middleware"
	"github.com/referhub/backend/internal/queue"
	"github.com/referhub/backend/internal/services/email"
	"github.com/referhub/backend/internal/services/ledger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	ledgerService *ledger.LedgerService,
	rewardCatalog *catalog.Catalog,
	emailService *email.EmailService,
	jobQueue *queue.RedisQueue,
	logger *zap.Logger,
) {
	authHandler := handlers.NewAuthHandler(db, ledgerService, emailService, jobQueue, cfg, logger)
	referralHandler := handlers.NewReferralHandler(db, ledgerService, cfg.FrontendURL)
	rewardsHandler := handlers.NewRewardsHandler(db, ledgerService, rewardCatalog, logger)
	profileHandler := handlers.NewProfileHandler(db, logger)

	rateLimiter := middleware.NewRateLimiter(10, 20, 20, 5)
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Public auth routes with a stricter per-endpoint budget
	auth := api.Group("/auth")
	auth.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/google", authHandler.GoogleAuth)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/profile", profileHandler.GetProfile)
		protected.PATCH("/profile", profileHandler.UpdateProfile)
		protected.POST("/profile/2fa/enable", profileHandler.Enable2FA)
		protected.POST("/profile/2fa/verify", profileHandler.Verify2FA)
		protected.POST("/profile/2fa/disable", profileHandler.Disable2FA)

		protected.GET("/referrals", referralHandler.GetMyReferrals)
		protected.GET("/referrals/info", referralHandler.GetReferralInfo)

		protected.GET("/rewards", rewardsHandler.ListRewards)
		protected.POST("/rewards/:id/redeem", rewardsHandler.Redeem)
		protected.GET("/redemptions", rewardsHandler.GetRedemptions)
		protected.GET("/points/history", rewardsHandler.GetPointsHistory)
	}
}
