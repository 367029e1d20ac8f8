package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateReferralTables creates the referral, redemption and points audit tables
func CreateReferralTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_referral_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS referrals (
					id UUID PRIMARY KEY,
					referrer_id UUID NOT NULL REFERENCES users(id),
					referrer_code VARCHAR(20) NOT NULL,
					referred_user_id UUID NOT NULL REFERENCES users(id),
					referee_email VARCHAR(255) NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'completed',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_referrals_referrer_id ON referrals(referrer_id);
				CREATE UNIQUE INDEX idx_referrals_referred_user_id ON referrals(referred_user_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS redemptions (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id),
					reward_id VARCHAR(50) NOT NULL,
					reward_name VARCHAR(100) NOT NULL,
					points_cost INTEGER NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'completed',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_redemptions_user_id ON redemptions(user_id);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS points_transactions (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id),
					type VARCHAR(50) NOT NULL,
					amount INTEGER NOT NULL,
					balance_before INTEGER NOT NULL,
					balance_after INTEGER NOT NULL,
					reference VARCHAR(100),
					description TEXT,
					metadata JSONB,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_points_transactions_user_id ON points_transactions(user_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS points_transactions;
				DROP TABLE IF EXISTS redemptions;
				DROP TABLE IF EXISTS referrals;
			`).Error
		},
	}
}
