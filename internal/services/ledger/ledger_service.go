package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/referhub/backend/internal/catalog"
	"github.com/referhub/backend/internal/config"
	"github.com/referhub/backend/internal/metrics"
	"github.com/referhub/backend/internal/models"
	"github.com/referhub/backend/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxCodeAttempts bounds the retry loop for referral code generation. The
// code space (3 letters + 3 digits) is small enough that collisions happen,
// so every generated code is checked against the store before use.
const maxCodeAttempts = 5

// WarnInvalidReferralCode is surfaced when a signup supplies a code that does
// not resolve to any user. The signup itself still succeeds with zero bonus.
const WarnInvalidReferralCode = "the referral code you entered is not valid"

// LedgerService owns every points balance mutation: signup referral bonuses,
// referrer credits and redemption debits. Balances are only ever changed
// through conditional updates inside a transaction, together with an audit row.
type LedgerService struct {
	db      *gorm.DB
	catalog *catalog.Catalog
	cfg     config.ReferralConfig
	logger  *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *gorm.DB, cat *catalog.Catalog, cfg config.ReferralConfig, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		db:      db,
		catalog: cat,
		cfg:     cfg,
		logger:  logger,
	}
}

// SignupInput carries the fields needed to register a user
type SignupInput struct {
	Email        string
	Name         string
	Password     string
	ReferralCode string
}

// SignupResult is the outcome of a successful signup. Warning is non-empty
// when the supplied referral code did not resolve; the account was still
// created.
type SignupResult struct {
	User            *models.User
	ReferralApplied bool
	Warning         string
}

// ProcessSignup registers a new user and settles any referral bonuses in the
// same database transaction. Duplicate emails and self-referrals refuse the
// signup; an unknown referral code downgrades to a warning.
func (s *LedgerService) ProcessSignup(input SignupInput) (*SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var existing models.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}

	// Resolve the referrer up front so self-referrals and unknown codes are
	// decided before anything is written.
	var referrer *models.User
	warning := ""
	if input.ReferralCode != "" {
		var candidate models.User
		err := s.db.Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(input.ReferralCode))).First(&candidate).Error
		switch {
		case err == nil:
			if strings.EqualFold(candidate.Email, email) {
				return nil, ErrSelfReferral
			}
			referrer = &candidate
		case errors.Is(err, gorm.ErrRecordNotFound):
			warning = WarnInvalidReferralCode
			s.logger.Warn("signup with unknown referral code",
				zap.String("email", email),
				zap.String("referral_code", input.ReferralCode))
		default:
			return nil, fmt.Errorf("error resolving referral code: %w", err)
		}
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	code, err := s.uniqueReferralCode(input.Name)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		Name:         input.Name,
		Password:     hashedPassword,
		ReferralCode: code,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		if referrer == nil {
			return nil
		}

		referral := models.Referral{
			ReferrerID:     referrer.ID,
			ReferrerCode:   referrer.ReferralCode,
			ReferredUserID: user.ID,
			RefereeEmail:   user.Email,
			Status:         models.ReferralStatusCompleted,
		}
		if err := tx.Create(&referral).Error; err != nil {
			return fmt.Errorf("error creating referral: %w", err)
		}

		meta := models.JSON{
			"referral_id":   referral.ID.String(),
			"referrer_code": referral.ReferrerCode,
		}

		if err := s.creditPoints(tx, user.ID, s.cfg.RefereeBonus, models.PointsTxReferralBonus,
			referral.ID.String(), fmt.Sprintf("Signup bonus for joining via %s", referral.ReferrerCode), meta); err != nil {
			return err
		}

		if err := s.creditPoints(tx, referrer.ID, s.cfg.ReferrerReward, models.PointsTxReferralReward,
			referral.ID.String(), fmt.Sprintf("Referral reward for %s", user.Email), meta); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload so the returned user carries the post-bonus balance
	if err := s.db.First(&user, "id = ?", user.ID).Error; err != nil {
		return nil, fmt.Errorf("error reloading user: %w", err)
	}

	metrics.SignupsTotal.Inc()
	if referrer != nil {
		metrics.ReferralsTotal.Inc()
	}

	s.logger.Info("user signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.Bool("referred", referrer != nil))

	return &SignupResult{
		User:            &user,
		ReferralApplied: referrer != nil,
		Warning:         warning,
	}, nil
}

// Redeem exchanges points for a catalog reward. The balance check and the
// debit are a single conditional UPDATE, so two concurrent redemptions can
// never both pass the check against a stale balance.
func (s *LedgerService) Redeem(userID uuid.UUID, rewardID string) (*models.Redemption, error) {
	reward, ok := s.catalog.Get(rewardID)
	if !ok {
		return nil, ErrRewardNotFound
	}

	var redemption models.Redemption
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("error finding user: %w", err)
		}

		redemption = models.Redemption{
			UserID:     userID,
			RewardID:   reward.ID,
			RewardName: reward.Name,
			PointsCost: reward.PointsCost,
			Status:     models.RedemptionStatusCompleted,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return fmt.Errorf("error creating redemption: %w", err)
		}

		return s.debitPoints(tx, userID, reward.PointsCost, models.PointsTxRedemption,
			redemption.ID.String(), fmt.Sprintf("Redeemed %s", reward.Name), models.JSON{
				"redemption_id": redemption.ID.String(),
				"reward_id":     reward.ID,
			})
	})
	if err != nil {
		return nil, err
	}

	metrics.RedemptionsTotal.Inc()

	s.logger.Info("reward redeemed",
		zap.String("user_id", userID.String()),
		zap.String("reward_id", reward.ID),
		zap.Int("points_cost", reward.PointsCost))

	return &redemption, nil
}

// Referrals returns the referrals a user has made, newest first
func (s *LedgerService) Referrals(userID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	if err := s.db.Where("referrer_id = ?", userID).Order("created_at DESC").Find(&referrals).Error; err != nil {
		return nil, fmt.Errorf("error finding referrals: %w", err)
	}
	return referrals, nil
}

// Redemptions returns a user's redemption history, newest first
func (s *LedgerService) Redemptions(userID uuid.UUID) ([]models.Redemption, error) {
	var redemptions []models.Redemption
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&redemptions).Error; err != nil {
		return nil, fmt.Errorf("error finding redemptions: %w", err)
	}
	return redemptions, nil
}

// PointsHistory returns the audit trail for a user's balance, newest first
func (s *LedgerService) PointsHistory(userID uuid.UUID) ([]models.PointsTransaction, error) {
	var transactions []models.PointsTransaction
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("error finding points transactions: %w", err)
	}
	return transactions, nil
}

// uniqueReferralCode generates a referral code and retries on collision
// against the store
func (s *LedgerService) uniqueReferralCode(name string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := utils.GenerateReferralCode(name)

		var count int64
		if err := s.db.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("error checking referral code: %w", err)
		}
		if count == 0 {
			return code, nil
		}

		s.logger.Warn("referral code collision, retrying",
			zap.String("code", code),
			zap.Int("attempt", attempt+1))
	}
	return "", fmt.Errorf("could not generate a unique referral code after %d attempts", maxCodeAttempts)
}

// creditPoints adds points to a user's balance and writes the audit row.
// Must run inside a transaction.
func (s *LedgerService) creditPoints(tx *gorm.DB, userID uuid.UUID, amount int, txType, reference, description string, metadata models.JSON) error {
	result := tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("error crediting points: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return s.recordTransaction(tx, userID, amount, txType, reference, description, metadata)
}

// debitPoints removes points from a user's balance. The WHERE clause carries
// the balance check, which is what makes the check-then-debit atomic.
func (s *LedgerService) debitPoints(tx *gorm.DB, userID uuid.UUID, amount int, txType, reference, description string, metadata models.JSON) error {
	result := tx.Model(&models.User{}).Where("id = ? AND points >= ?", userID, amount).
		UpdateColumn("points", gorm.Expr("points - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("error debiting points: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// The user row exists (checked by the caller), so the guard that
		// failed is the balance.
		return ErrInsufficientPoints
	}

	return s.recordTransaction(tx, userID, -amount, txType, reference, description, metadata)
}

// recordTransaction writes the points audit row with the post-mutation balance
func (s *LedgerService) recordTransaction(tx *gorm.DB, userID uuid.UUID, amount int, txType, reference, description string, metadata models.JSON) error {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("error reading balance: %w", err)
	}

	transaction := models.PointsTransaction{
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: user.Points - amount,
		BalanceAfter:  user.Points,
		Reference:     reference,
		Description:   description,
		Metadata:      metadata,
	}

	if err := tx.Create(&transaction).Error; err != nil {
		return fmt.Errorf("error creating points transaction: %w", err)
	}
	return nil
}
