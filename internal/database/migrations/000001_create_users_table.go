package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateUsersTable creates the users, sessions and password reset tables
func CreateUsersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_users_table",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					name VARCHAR(100) NOT NULL,
					password VARCHAR(255) NOT NULL,
					referral_code VARCHAR(20) NOT NULL UNIQUE,
					points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
					referred_by UUID REFERENCES users(id),
					is_verified BOOLEAN DEFAULT FALSE,
					two_factor_enabled BOOLEAN DEFAULT FALSE,
					two_factor_secret VARCHAR(255),
					last_login_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_users_email ON users(email);
				CREATE INDEX idx_users_referral_code ON users(referral_code);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sessions (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id),
					refresh_token VARCHAR(512) NOT NULL,
					user_agent TEXT,
					ip_address VARCHAR(45),
					expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_sessions_refresh_token ON sessions(refresh_token);
				CREATE INDEX idx_sessions_user_id ON sessions(user_id);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS password_reset_tokens (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id),
					token VARCHAR(255) NOT NULL,
					expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					UNIQUE(user_id, token)
				);

				CREATE INDEX idx_password_reset_tokens_token ON password_reset_tokens(token);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS password_reset_tokens;
				DROP TABLE IF EXISTS sessions;
				DROP TABLE IF EXISTS users;
			`).Error
		},
	}
}
