package email

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/referhub/backend/internal/config"
)

// EmailService handles sending emails
type EmailService struct {
	cfg         config.SMTPConfig
	frontendURL string
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.SMTPConfig, frontendURL string) *EmailService {
	return &EmailService{cfg: cfg, frontendURL: frontendURL}
}

// SendWelcomeEmail sends the post-signup welcome email with the user's
// referral code and share link
func (s *EmailService) SendWelcomeEmail(toEmail, name, referralCode string) error {
	subject := "Welcome to ReferHub"
	shareLink := fmt.Sprintf("%s/signup?ref=%s", s.frontendURL, referralCode)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #4F46E5; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.code { font-size: 24px; font-weight: bold; letter-spacing: 2px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>ReferHub</h1>
			</div>
			<div class="content">
				<h2>Hello %s,</h2>
				<p>Welcome to the referral program! Your personal referral code is:</p>
				<p class="code">%s</p>
				<p>Share this link with friends and earn points every time someone signs up with it:</p>
				<p><a href="%s">%s</a></p>
				<p>Best regards,<br>The ReferHub Team</p>
			</div>
		</div>
	</body>
	</html>
	`, name, referralCode, shareLink, shareLink)

	return s.sendEmail(toEmail, subject, body)
}

// SendPasswordResetEmail sends an email with a password reset link
func (s *EmailService) SendPasswordResetEmail(toEmail, name, token string) error {
	subject := "Reset Your ReferHub Password"
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #4F46E5; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.button { display: inline-block; background-color: #4F46E5; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>ReferHub</h1>
			</div>
			<div class="content">
				<h2>Hello %s,</h2>
				<p>We received a request to reset your ReferHub password. Click the button below to create a new password:</p>
				<p><a href="%s" class="button">Reset Password</a></p>
				<p>Or copy and paste this link in your browser: %s</p>
				<p>This link will expire in 24 hours.</p>
				<p>If you did not request a password reset, please ignore this email.</p>
				<p>Best regards,<br>The ReferHub Team</p>
			</div>
		</div>
	</body>
	</html>
	`, name, resetLink, resetLink)

	return s.sendEmail(toEmail, subject, body)
}

// sendEmail sends an email with HTML content
func (s *EmailService) sendEmail(toEmail, subject, htmlBody string) error {
	if s.cfg.Host == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		log.Println("Email service not configured properly. Check environment variables.")
		return fmt.Errorf("email service not configured")
	}

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	from := fmt.Sprintf("From: ReferHub <%s>\n", s.cfg.From)
	to := fmt.Sprintf("To: %s\n", toEmail)
	subject = fmt.Sprintf("Subject: %s\n", subject)

	message := []byte(from + to + subject + mime + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{toEmail}, message)
}
