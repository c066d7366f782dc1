package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bikerental-api/models"
	"bikerental-api/repositories"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrSamePassword       = errors.New("new password must differ from the old one")
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

type LoginResult struct {
	Tokens TokenPair
	User   *models.User
}

type AuthService struct {
	users     *repositories.UserRepository
	tokens    *TokenService
	otp       *OTPService
	blacklist TokenBlacklist
	notifier  Notifier
	clock     clockwork.Clock
	logger    *zap.Logger
}

func NewAuthService(
	users *repositories.UserRepository,
	tokens *TokenService,
	otp *OTPService,
	blacklist TokenBlacklist,
	notifier Notifier,
	clock clockwork.Clock,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		otp:       otp,
		blacklist: blacklist,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

func (s *AuthService) Register(in RegisterInput) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)

	exists, err := s.users.EmailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	secret, err := s.otp.GenerateSecret(email)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:         uuid.New().String(),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      email,
		Phone:      in.Phone,
		Password:   string(hashed),
		OTPSecret:  secret,
		IsActive:   true,
		DateJoined: s.clock.Now().UTC(),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	go func() {
		if err := s.notifier.SendWelcome(user.Email, user.FullName()); err != nil {
			s.logger.Warn("failed to send welcome mail", zap.String("email", user.Email), zap.Error(err))
		}
	}()

	return user, nil
}

// Login checks the password and opens an OTP challenge. The returned code
// has already been handed to the notifier.
func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrInactiveAccount
	}

	return s.issueOTP(user)
}

// ResendOTP re-sends the code for a login that is still pending, even
// when the code has expired.
func (s *AuthService) ResendOTP(email string) (string, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInactiveAccount
	}

	code, err := s.otp.Reissue(user.Email, user.OTPSecret)
	if err != nil {
		return "", err
	}
	return s.deliverOTP(user, code)
}

func (s *AuthService) issueOTP(user *models.User) (string, error) {
	code, err := s.otp.Issue(user.ID, user.Email, user.OTPSecret)
	if err != nil {
		return "", err
	}
	return s.deliverOTP(user, code)
}

func (s *AuthService) deliverOTP(user *models.User, code string) (string, error) {
	if err := s.notifier.SendLoginOTP(user.Email, user.FullName(), code); err != nil {
		return "", fmt.Errorf("failed to deliver OTP: %w", err)
	}
	return code, nil
}

// VerifyOTP completes a login: it consumes the challenge, stamps last_login
// and issues a token pair.
func (s *AuthService) VerifyOTP(email, code, clientIP string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPendingLogin
		}
		return nil, err
	}

	if _, err := s.otp.Verify(user.Email, code, user.OTPSecret); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if err := s.users.UpdateLastLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	err = s.users.RecordActivity(&models.UserActivity{
		UserID:    user.ID,
		Timestamp: now,
		IPAddress: clientIP,
		Path:      "login",
	})
	if err != nil {
		s.logger.Warn("failed to record login activity", zap.String("user_id", user.ID), zap.Error(err))
	}

	tokens, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: tokens, User: user}, nil
}

// Logout revokes the presented access token and, when given, the refresh
// token of the same user.
func (s *AuthService) Logout(ctx context.Context, access *Claims, refreshToken string) error {
	var refresh *Claims
	if refreshToken != "" {
		claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
		if err != nil {
			return err
		}
		if claims.UserID != access.UserID {
			return ErrInvalidToken
		}
		refresh = claims
	}

	if err := s.blacklist.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}
	if refresh != nil {
		if err := s.blacklist.Revoke(ctx, refresh.ID, refresh.ExpiresAt.Time); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	return nil
}

// Refresh trades a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", ErrInvalidToken
	}

	user, err := s.users.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInactiveAccount
	}
	return s.tokens.GenerateAccess(user)
}

// Authenticate resolves an access token to its claims, rejecting revoked
// tokens.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.tokens.Parse(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(user.ID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	go func() {
		if err := s.notifier.SendPasswordChanged(user.Email, user.FullName()); err != nil {
			s.logger.Warn("failed to send password changed mail", zap.String("email", user.Email), zap.Error(err))
		}
	}()
	return nil
}

func (s *AuthService) Profile(userID string) (*models.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
