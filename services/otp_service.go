package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrNoPendingLogin     = errors.New("no pending login for this email")
	ErrOTPExpired         = errors.New("OTP has expired")
	ErrOTPUsed            = errors.New("OTP has already been used")
	ErrOTPTooManyAttempts = errors.New("too many invalid OTP attempts")
	ErrOTPInvalid         = errors.New("invalid OTP")
	ErrOTPResendLimit     = errors.New("too many OTP resends")
)

const (
	// maxResends caps how often one challenge can be re-issued without a
	// new password check.
	maxResends = 3
	// expiredRetention keeps expired challenges around so the user can
	// still ask for a resend.
	expiredRetention = 30 * time.Minute
)

// LoginChallenge is the pending second step of a login.
type LoginChallenge struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Attempts  int
	Resends   int
	Used      bool
}

// OTPService issues and checks login codes. Codes are TOTP values of the
// user's secret at issue time; the challenge map makes each one single-use
// and limits guesses.
type OTPService struct {
	issuer      string
	ttl         time.Duration
	maxAttempts int
	clock       clockwork.Clock

	challenges map[string]*LoginChallenge
	mutex      sync.Mutex
}

func NewOTPService(issuer string, ttl time.Duration, maxAttempts int, clock clockwork.Clock) *OTPService {
	return &OTPService{
		issuer:      issuer,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		clock:       clock,
		challenges:  make(map[string]*LoginChallenge),
	}
}

// GenerateSecret creates a new base32 TOTP secret for an account.
func (s *OTPService) GenerateSecret(email string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email,
		SecretSize:  20,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP secret: %w", err)
	}
	return key.Secret(), nil
}

func (s *OTPService) validateOpts() totp.ValidateOpts {
	period := uint(s.ttl / time.Second)
	if period == 0 {
		period = 30
	}
	return totp.ValidateOpts{
		Period:    period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Issue opens a new challenge for email, replacing any previous one, and
// returns the code to deliver. Only a password-checked login may call it.
func (s *OTPService) Issue(userID, email, secret string) (string, error) {
	now := s.clock.Now()
	code, err := totp.GenerateCodeCustom(secret, now, s.validateOpts())
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	s.mutex.Lock()
	s.challenges[email] = &LoginChallenge{
		UserID:    userID,
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mutex.Unlock()

	return code, nil
}

// Reissue renews the expiry of the open challenge for email and returns
// the current code. Expired challenges can be renewed; the attempt
// counter carries over so a challenge locked by wrong guesses stays
// locked.
func (s *OTPService) Reissue(email, secret string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch, ok := s.challenges[email]
	if !ok || ch.Used {
		return "", ErrNoPendingLogin
	}
	if ch.Attempts >= s.maxAttempts {
		return "", ErrOTPTooManyAttempts
	}
	if ch.Resends >= maxResends {
		return "", ErrOTPResendLimit
	}

	now := s.clock.Now()
	code, err := totp.GenerateCodeCustom(secret, now, s.validateOpts())
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	ch.IssuedAt = now
	ch.ExpiresAt = now.Add(s.ttl)
	ch.Resends++
	return code, nil
}

// Verify checks code against the challenge for email and consumes it on
// success. It returns the user id the challenge was issued for.
func (s *OTPService) Verify(email, code, secret string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch, ok := s.challenges[email]
	if !ok {
		return "", ErrNoPendingLogin
	}
	if ch.Used {
		return "", ErrOTPUsed
	}
	if !s.clock.Now().Before(ch.ExpiresAt) {
		return "", ErrOTPExpired
	}
	if ch.Attempts >= s.maxAttempts {
		return "", ErrOTPTooManyAttempts
	}

	valid, err := totp.ValidateCustom(code, secret, ch.IssuedAt, s.validateOpts())
	if err != nil || !valid {
		ch.Attempts++
		if ch.Attempts >= s.maxAttempts {
			return "", ErrOTPTooManyAttempts
		}
		return "", ErrOTPInvalid
	}

	ch.Used = true
	return ch.UserID, nil
}

// Cleanup removes used challenges and those expired for longer than
// expiredRetention, and returns how many were removed.
func (s *OTPService) Cleanup() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.clock.Now()
	removed := 0
	for email, ch := range s.challenges {
		if ch.Used || !now.Before(ch.ExpiresAt.Add(expiredRetention)) {
			delete(s.challenges, email)
			removed++
		}
	}
	return removed
}
