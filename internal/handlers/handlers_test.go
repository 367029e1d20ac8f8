package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/referhub/backend/internal/catalog"
	"github.com/referhub/backend/internal/config"
	"github.com/referhub/backend/internal/database"
	"github.com/referhub/backend/internal/middleware"
	"github.com/referhub/backend/internal/models"
	"github.com/referhub/backend/internal/services/email"
	"github.com/referhub/backend/internal/services/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Referral:    config.ReferralConfig{RefereeBonus: 5, ReferrerReward: 10},
		FrontendURL: "http://localhost:3000",
	}

	log := zap.NewNop()
	rewardCatalog := catalog.NewCatalog()
	emailService := email.NewEmailService(cfg.SMTP, cfg.FrontendURL)
	ledgerService := ledger.NewLedgerService(db, rewardCatalog, cfg.Referral, log)

	authHandler := NewAuthHandler(db, ledgerService, emailService, nil, cfg, log)
	referralHandler := NewReferralHandler(db, ledgerService, cfg.FrontendURL)
	rewardsHandler := NewRewardsHandler(db, ledgerService, rewardCatalog, log)
	profileHandler := NewProfileHandler(db, log)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/profile", profileHandler.GetProfile)
	protected.GET("/referrals", referralHandler.GetMyReferrals)
	protected.GET("/referrals/info", referralHandler.GetReferralInfo)
	protected.GET("/rewards", rewardsHandler.ListRewards)
	protected.POST("/rewards/:id/redeem", rewardsHandler.Redeem)
	protected.GET("/redemptions", rewardsHandler.GetRedemptions)

	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signupUser(t *testing.T, router *gin.Engine, email, name, code string) map[string]interface{} {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":         email,
		"name":          name,
		"password":      "password123",
		"referral_code": code,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func accessToken(t *testing.T, resp map[string]interface{}) string {
	t.Helper()
	tokens, ok := resp["tokens"].(map[string]interface{})
	require.True(t, ok)
	token, ok := tokens["access_token"].(string)
	require.True(t, ok)
	return token
}

func TestSignupEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	resp := signupUser(t, router, "alice@example.com", "Alice", "")

	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotEmpty(t, user["referral_code"])
	assert.Equal(t, float64(0), user["points"])
	assert.Equal(t, false, resp["referral_applied"])
	assert.NotContains(t, resp, "warning")
	assert.NotContains(t, user, "password")
}

func TestSignupEndpointValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    "not-an-email",
		"name":     "Alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupEndpointDuplicateEmail(t *testing.T) {
	router, _ := setupTestRouter(t)

	signupUser(t, router, "alice@example.com", "Alice", "")

	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    "alice@example.com",
		"name":     "Alice Again",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignupEndpointUnknownCodeWarns(t *testing.T) {
	router, _ := setupTestRouter(t)

	resp := signupUser(t, router, "bob@example.com", "Bob", "NOPE123")

	assert.Equal(t, false, resp["referral_applied"])
	assert.Equal(t, ledger.WarnInvalidReferralCode, resp["warning"])
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, float64(0), user["points"])
}

func TestSignupEndpointWithReferral(t *testing.T) {
	router, _ := setupTestRouter(t)

	alice := signupUser(t, router, "alice@example.com", "Alice", "")
	aliceUser := alice["user"].(map[string]interface{})
	code := aliceUser["referral_code"].(string)

	bob := signupUser(t, router, "bob@example.com", "Bob", code)
	assert.Equal(t, true, bob["referral_applied"])
	bobUser := bob["user"].(map[string]interface{})
	assert.Equal(t, float64(5), bobUser["points"])

	// Referrer sees the referral and the reward
	w := doJSON(t, router, http.MethodGet, "/api/referrals/info", accessToken(t, alice), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, float64(10), info["points"])
	assert.Equal(t, float64(1), info["referral_count"])
	assert.Equal(t, fmt.Sprintf("http://localhost:3000/signup?ref=%s", code), info["share_link"])

	w = doJSON(t, router, http.MethodGet, "/api/referrals", accessToken(t, alice), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var referrals map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &referrals))
	assert.Equal(t, float64(1), referrals["count"])
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	signupUser(t, router, "alice@example.com", "Alice", "")

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, path := range []string{"/api/profile", "/api/referrals", "/api/rewards", "/api/redemptions"} {
		w := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := doJSON(t, router, http.MethodGet, "/api/profile", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRewardsEndpoint(t *testing.T) {
	router, db := setupTestRouter(t)

	alice := signupUser(t, router, "alice@example.com", "Alice", "")
	token := accessToken(t, alice)

	w := doJSON(t, router, http.MethodGet, "/api/rewards", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rewards []struct {
			ID         string `json:"id"`
			PointsCost int    `json:"points_cost"`
			Eligible   bool   `json:"eligible"`
		} `json:"rewards"`
		Points int `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rewards, 4)
	for _, r := range resp.Rewards {
		assert.False(t, r.Eligible)
	}

	// With enough points the cheap rewards unlock
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "alice@example.com").
		UpdateColumn("points", 50).Error)

	w = doJSON(t, router, http.MethodGet, "/api/rewards", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, r := range resp.Rewards {
		assert.Equal(t, r.PointsCost <= 50, r.Eligible, r.ID)
	}
}

func TestRedeemEndpoint(t *testing.T) {
	router, db := setupTestRouter(t)

	alice := signupUser(t, router, "alice@example.com", "Alice", "")
	token := accessToken(t, alice)

	// Not enough points
	w := doJSON(t, router, http.MethodPost, "/api/rewards/reward1/redeem", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown reward
	w = doJSON(t, router, http.MethodPost, "/api/rewards/bogus/redeem", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "alice@example.com").
		UpdateColumn("points", 100).Error)

	w = doJSON(t, router, http.MethodPost, "/api/rewards/reward1/redeem", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(70), resp["points"])

	redemption := resp["redemption"].(map[string]interface{})
	assert.Equal(t, "reward1", redemption["reward_id"])
	assert.Equal(t, "Free eBook", redemption["reward_name"])
	assert.Equal(t, float64(30), redemption["points_cost"])

	w = doJSON(t, router, http.MethodGet, "/api/redemptions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["count"])
}
