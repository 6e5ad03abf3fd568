package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/username/bundlefolio/backend/src/config"
	"github.com/username/bundlefolio/backend/src/logger"
)

type emailServiceImpl struct {
	provider string
}

// NewEmailService picks the delivery mechanism from configuration. Any
// provider other than "smtp" falls back to logging the mail, which is what
// local development runs with.
func NewEmailService() EmailService {
	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	if provider == "smtp" && config.Cfg.SMTPServer == "" {
		logger.L.Warn("SMTP provider selected but SMTP_SERVER is empty; falling back to log-only email delivery")
		provider = "log"
	}
	return &emailServiceImpl{provider: provider}
}

func (s *emailServiceImpl) SendVerificationEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.VerificationEmailBaseURL, token)
	subject := "Verify your email address"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWelcome! Please confirm your email address by opening the link below:\r\n\r\n%s\r\n\r\nThe link expires in %s. If you did not create an account, you can ignore this message.\r\n",
		username, link, config.Cfg.VerificationTokenExpiry)
	return s.send(toEmail, subject, body)
}

func (s *emailServiceImpl) SendPasswordResetEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.PasswordResetBaseURL, token)
	subject := "Reset your password"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nA password reset was requested for your account. Open the link below to choose a new password:\r\n\r\n%s\r\n\r\nThe link expires in %s. If you did not request this, you can ignore this message.\r\n",
		username, link, config.Cfg.PasswordResetTokenExpiry)
	return s.send(toEmail, subject, body)
}

func (s *emailServiceImpl) send(toEmail, subject, body string) error {
	if s.provider != "smtp" {
		logger.L.Info("Email delivery (log-only mode)", "to", toEmail, "subject", subject, "body", body)
		return nil
	}

	from := config.Cfg.SenderEmail
	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", config.Cfg.SenderName, from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", toEmail))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", config.Cfg.SMTPServer, config.Cfg.SMTPPort)
	var auth smtp.Auth
	if config.Cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", config.Cfg.SMTPUser, config.Cfg.SMTPPassword, config.Cfg.SMTPServer)
	}
	if err := smtp.SendMail(addr, auth, from, []string{toEmail}, []byte(msg.String())); err != nil {
		logger.L.Error("Failed to send email via SMTP", "to", toEmail, "subject", subject, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	logger.L.Info("Email sent", "to", toEmail, "subject", subject)
	return nil
}
