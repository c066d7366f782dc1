// File: /services/email_service.go
package services

import (
	"fmt"
	"html"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"bikerental-api/config"
)

// Notifier delivers account mails. Delivery failures are returned to the
// caller; none of the mails are retried.
type Notifier interface {
	SendLoginOTP(email, name, code string) error
	SendWelcome(email, name string) error
	SendPasswordChanged(email, name string) error
}

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		config: cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (es *EmailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}
	return nil
}

func (es *EmailService) SendLoginOTP(email, name, code string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Hello %s,</h2>
    <p>Use the code below to finish signing in to %s.</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">%s</p>
    <p>The code expires in %d minutes. If you did not try to sign in, change your password.</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(es.config.FromName), code, int(es.config.OTPTTL.Minutes()))

	return es.send(email, es.config.FromName+" - Login Code", body)
}

func (es *EmailService) SendWelcome(email, name string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Welcome, %s!</h2>
    <p>Your %s account is ready. Sign in with your email and password; we will send you a one-time code to confirm it is you.</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(es.config.FromName))

	return es.send(email, "Welcome to "+es.config.FromName, body)
}

func (es *EmailService) SendPasswordChanged(email, name string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Hello %s,</h2>
    <p>The password of your %s account was just changed. If this was not you, contact support immediately.</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(es.config.FromName))

	return es.send(email, es.config.FromName+" - Password Changed", body)
}

// LogNotifier writes mails to the log instead of sending them. Used when no
// SMTP server is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendLoginOTP(email, name, code string) error {
	n.logger.Info("login OTP issued", zap.String("email", email), zap.String("code", code))
	return nil
}

func (n *LogNotifier) SendWelcome(email, name string) error {
	n.logger.Info("welcome mail", zap.String("email", email))
	return nil
}

func (n *LogNotifier) SendPasswordChanged(email, name string) error {
	n.logger.Info("password changed mail", zap.String("email", email))
	return nil
}

// RecordingNotifier keeps every message in memory; tests read it back.
type RecordingNotifier struct {
	mutex            sync.Mutex
	OTPs             map[string]string
	Welcomes         []string
	PasswordsChanged []string
	Err              error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{OTPs: make(map[string]string)}
}

func (n *RecordingNotifier) SendLoginOTP(email, name, code string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.OTPs[email] = code
	return nil
}

func (n *RecordingNotifier) SendWelcome(email, name string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.Welcomes = append(n.Welcomes, email)
	return n.Err
}

func (n *RecordingNotifier) SendPasswordChanged(email, name string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.PasswordsChanged = append(n.PasswordsChanged, email)
	return n.Err
}

// LastOTP returns the most recent code sent to email.
func (n *RecordingNotifier) LastOTP(email string) string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.OTPs[email]
}

// PasswordChangedCount returns how many password-changed mails were sent.
func (n *RecordingNotifier) PasswordChangedCount() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return len(n.PasswordsChanged)
}

// WelcomeCount returns how many welcome mails were sent.
func (n *RecordingNotifier) WelcomeCount() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return len(n.Welcomes)
}
