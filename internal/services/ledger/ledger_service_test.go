package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/referhub/backend/internal/catalog"
	"github.com/referhub/backend/internal/config"
	"github.com/referhub/backend/internal/database"
	"github.com/referhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{3}\d{3}$`)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func setupService(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	svc := NewLedgerService(db, catalog.NewCatalog(), config.ReferralConfig{
		RefereeBonus:   5,
		ReferrerReward: 10,
	}, zap.NewNop())
	return svc, db
}

func signup(t *testing.T, svc *LedgerService, email, name, code string) *SignupResult {
	t.Helper()

	result, err := svc.ProcessSignup(SignupInput{
		Email:        email,
		Name:         name,
		Password:     "password123",
		ReferralCode: code,
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)
	return result
}

func TestProcessSignupWithoutCode(t *testing.T) {
	svc, db := setupService(t)

	result := signup(t, svc, "alice@example.com", "Alice Smith", "")

	assert.False(t, result.ReferralApplied)
	assert.Empty(t, result.Warning)
	assert.Equal(t, 0, result.User.Points)
	assert.Nil(t, result.User.ReferredBy)
	assert.Regexp(t, codePattern, result.User.ReferralCode)
	assert.Equal(t, "ALI", result.User.ReferralCode[:3])

	var referralCount int64
	require.NoError(t, db.Model(&models.Referral{}).Count(&referralCount).Error)
	assert.Zero(t, referralCount)

	var txCount int64
	require.NoError(t, db.Model(&models.PointsTransaction{}).Count(&txCount).Error)
	assert.Zero(t, txCount)
}

func TestProcessSignupLowercasesEmail(t *testing.T) {
	svc, _ := setupService(t)

	result := signup(t, svc, "  Alice@Example.COM ", "Alice", "")
	assert.Equal(t, "alice@example.com", result.User.Email)
}

func TestProcessSignupWithValidCode(t *testing.T) {
	svc, db := setupService(t)

	referrer := signup(t, svc, "alice@example.com", "Alice", "")
	referee := signup(t, svc, "bob@example.com", "Bob", referrer.User.ReferralCode)

	assert.True(t, referee.ReferralApplied)
	assert.Empty(t, referee.Warning)
	assert.Equal(t, 5, referee.User.Points)
	require.NotNil(t, referee.User.ReferredBy)
	assert.Equal(t, referrer.User.ID, *referee.User.ReferredBy)

	var reloadedReferrer models.User
	require.NoError(t, db.First(&reloadedReferrer, "id = ?", referrer.User.ID).Error)
	assert.Equal(t, 10, reloadedReferrer.Points)

	var referrals []models.Referral
	require.NoError(t, db.Find(&referrals).Error)
	require.Len(t, referrals, 1)
	assert.Equal(t, referrer.User.ID, referrals[0].ReferrerID)
	assert.Equal(t, referrer.User.ReferralCode, referrals[0].ReferrerCode)
	assert.Equal(t, referee.User.ID, referrals[0].ReferredUserID)
	assert.Equal(t, "bob@example.com", referrals[0].RefereeEmail)
	assert.Equal(t, models.ReferralStatusCompleted, referrals[0].Status)

	// One audit row per credit, carrying the balance transition
	var refereeTxs []models.PointsTransaction
	require.NoError(t, db.Where("user_id = ?", referee.User.ID).Find(&refereeTxs).Error)
	require.Len(t, refereeTxs, 1)
	assert.Equal(t, models.PointsTxReferralBonus, refereeTxs[0].Type)
	assert.Equal(t, 5, refereeTxs[0].Amount)
	assert.Equal(t, 0, refereeTxs[0].BalanceBefore)
	assert.Equal(t, 5, refereeTxs[0].BalanceAfter)

	var referrerTxs []models.PointsTransaction
	require.NoError(t, db.Where("user_id = ?", referrer.User.ID).Find(&referrerTxs).Error)
	require.Len(t, referrerTxs, 1)
	assert.Equal(t, models.PointsTxReferralReward, referrerTxs[0].Type)
	assert.Equal(t, 10, referrerTxs[0].Amount)
}

func TestProcessSignupCodeIsCaseInsensitive(t *testing.T) {
	svc, _ := setupService(t)

	referrer := signup(t, svc, "alice@example.com", "Alice", "")
	referee := signup(t, svc, "bob@example.com", "Bob", "  "+referrer.User.ReferralCode+" ")

	assert.True(t, referee.ReferralApplied)
	assert.Equal(t, 5, referee.User.Points)
}

func TestProcessSignupWithUnknownCode(t *testing.T) {
	svc, db := setupService(t)

	result := signup(t, svc, "bob@example.com", "Bob", "NOPE123")

	assert.False(t, result.ReferralApplied)
	assert.Equal(t, WarnInvalidReferralCode, result.Warning)
	assert.Equal(t, 0, result.User.Points)
	assert.Nil(t, result.User.ReferredBy)

	var referralCount int64
	require.NoError(t, db.Model(&models.Referral{}).Count(&referralCount).Error)
	assert.Zero(t, referralCount)
}

func TestProcessSignupDuplicateEmail(t *testing.T) {
	svc, _ := setupService(t)

	first := signup(t, svc, "alice@example.com", "Alice", "")

	_, err := svc.ProcessSignup(SignupInput{
		Email:    "Alice@Example.com",
		Name:     "Alice Again",
		Password: "password123",
	})
	assert.True(t, errors.Is(err, ErrEmailTaken))

	// Still refused when a valid referral code is attached
	bob := signup(t, svc, "bob@example.com", "Bob", "")
	_, err = svc.ProcessSignup(SignupInput{
		Email:        first.User.Email,
		Name:         "Alice Again",
		Password:     "password123",
		ReferralCode: bob.User.ReferralCode,
	})
	assert.True(t, errors.Is(err, ErrEmailTaken))
}

func TestProcessSignupSelfReferral(t *testing.T) {
	svc, db := setupService(t)

	// Seed the owner directly with a non-normalized email so the duplicate
	// check does not fire first and the self-referral rule is what decides
	owner := models.User{
		Email:        "Alice@Example.com",
		Name:         "Alice",
		Password:     "hash",
		ReferralCode: "ALI123",
	}
	require.NoError(t, db.Create(&owner).Error)

	_, err := svc.ProcessSignup(SignupInput{
		Email:        "alice@example.com",
		Name:         "Alice",
		Password:     "password123",
		ReferralCode: "ALI123",
	})
	assert.True(t, errors.Is(err, ErrSelfReferral))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(1), userCount)
}

func TestRedeemUnknownReward(t *testing.T) {
	svc, _ := setupService(t)

	user := signup(t, svc, "alice@example.com", "Alice", "")

	_, err := svc.Redeem(user.User.ID, "no-such-reward")
	assert.True(t, errors.Is(err, ErrRewardNotFound))
}

func TestRedeemInsufficientPoints(t *testing.T) {
	svc, db := setupService(t)

	user := signup(t, svc, "alice@example.com", "Alice", "")

	_, err := svc.Redeem(user.User.ID, "reward1")
	assert.True(t, errors.Is(err, ErrInsufficientPoints))

	// The rejected redemption leaves nothing behind
	var redemptionCount int64
	require.NoError(t, db.Model(&models.Redemption{}).Count(&redemptionCount).Error)
	assert.Zero(t, redemptionCount)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.User.ID).Error)
	assert.Equal(t, 0, reloaded.Points)
}

func TestRedeemSuccess(t *testing.T) {
	svc, db := setupService(t)

	user := signup(t, svc, "alice@example.com", "Alice", "")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.User.ID).
		UpdateColumn("points", 100).Error)

	redemption, err := svc.Redeem(user.User.ID, "reward1")
	require.NoError(t, err)

	assert.Equal(t, "reward1", redemption.RewardID)
	assert.Equal(t, "Free eBook", redemption.RewardName)
	assert.Equal(t, 30, redemption.PointsCost)
	assert.Equal(t, models.RedemptionStatusCompleted, redemption.Status)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.User.ID).Error)
	assert.Equal(t, 70, reloaded.Points)

	var txs []models.PointsTransaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", user.User.ID, models.PointsTxRedemption).Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, -30, txs[0].Amount)
	assert.Equal(t, 100, txs[0].BalanceBefore)
	assert.Equal(t, 70, txs[0].BalanceAfter)
}

func TestRedeemExactBalance(t *testing.T) {
	svc, db := setupService(t)

	user := signup(t, svc, "alice@example.com", "Alice", "")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.User.ID).
		UpdateColumn("points", 30).Error)

	_, err := svc.Redeem(user.User.ID, "reward1")
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.User.ID).Error)
	assert.Equal(t, 0, reloaded.Points)
}

func TestReferralProgramFlow(t *testing.T) {
	svc, db := setupService(t)

	// Alice refers three signups, earning 10 points each
	alice := signup(t, svc, "alice@example.com", "Alice", "")
	for _, email := range []string{"bob@example.com", "carol@example.com", "dave@example.com"} {
		signup(t, svc, email, "Friend", alice.User.ReferralCode)
	}

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", alice.User.ID).Error)
	assert.Equal(t, 30, reloaded.Points)

	referrals, err := svc.Referrals(alice.User.ID)
	require.NoError(t, err)
	assert.Len(t, referrals, 3)

	// Enough for the cheapest reward, and only that one
	redemption, err := svc.Redeem(alice.User.ID, "reward1")
	require.NoError(t, err)
	assert.Equal(t, 30, redemption.PointsCost)

	_, err = svc.Redeem(alice.User.ID, "reward1")
	assert.True(t, errors.Is(err, ErrInsufficientPoints))

	redemptions, err := svc.Redemptions(alice.User.ID)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)

	history, err := svc.PointsHistory(alice.User.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	// Newest first: the redemption debit precedes the referral credits
	assert.Equal(t, models.PointsTxRedemption, history[0].Type)
	assert.Equal(t, 0, history[0].BalanceAfter)
}

func TestUniqueReferralCodeRetries(t *testing.T) {
	svc, db := setupService(t)

	// Occupy a code so a collision forces a retry. The prefix is
	// deterministic for a given name, the suffix is random, so seed every
	// possible suffix for a different prefix and confirm generation for
	// that name still fails within the attempt budget.
	for i := 100; i <= 999; i++ {
		user := models.User{
			Email:        fmt.Sprintf("taken%d@example.com", i),
			Name:         "Taken",
			Password:     "hash",
			ReferralCode: fmt.Sprintf("ZZZ%03d", i),
		}
		require.NoError(t, db.Create(&user).Error)
	}

	_, err := svc.ProcessSignup(SignupInput{
		Email:    "zzz@example.com",
		Name:     "Zzz",
		Password: "password123",
	})
	assert.Error(t, err)
}
