package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bikerental-api/database"
	"bikerental-api/models"
	"bikerental-api/repositories"
)

type authEnv struct {
	db        *gorm.DB
	auth      *AuthService
	users     *repositories.UserRepository
	clock     *clockwork.FakeClock
	notifier  *RecordingNotifier
	blacklist *MemoryBlacklist
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	db := database.OpenTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	users := repositories.NewUserRepository(db)
	notifier := NewRecordingNotifier()
	blacklist := NewMemoryBlacklist(clock)

	auth := NewAuthService(
		users,
		NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour, clock),
		NewOTPService("BikeRental", 5*time.Minute, 5, clock),
		blacklist,
		notifier,
		clock,
		zap.NewNop(),
	)
	return &authEnv{db: db, auth: auth, users: users, clock: clock, notifier: notifier, blacklist: blacklist}
}

func (e *authEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.auth.Register(RegisterInput{
		FirstName: "Sita",
		LastName:  "Rai",
		Email:     email,
		Password:  "Pedal!2026",
	})
	require.NoError(t, err)
	return user
}

func (e *authEnv) login(t *testing.T, email string) *LoginResult {
	t.Helper()
	code, err := e.auth.Login(email, "Pedal!2026")
	require.NoError(t, err)
	result, err := e.auth.VerifyOTP(email, code, "10.0.0.1")
	require.NoError(t, err)
	return result
}

func TestRegister(t *testing.T) {
	env := newAuthEnv(t)

	user := env.register(t, "  Sita@Example.com ")
	assert.Equal(t, "sita@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)
	assert.NotEmpty(t, user.OTPSecret)
	assert.NotEqual(t, "Pedal!2026", user.Password)
	assert.True(t, user.DateJoined.Equal(env.clock.Now()))
	assert.Eventually(t, func() bool { return env.notifier.WelcomeCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := env.auth.Register(RegisterInput{FirstName: "Other", Email: "SITA@example.com", Password: "Pedal!2026"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")

	_, err := env.auth.Login("sita@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login("nobody@example.com", "Pedal!2026")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	env := newAuthEnv(t)
	user := env.register(t, "sita@example.com")
	require.NoError(t, env.users.SetActive(user.ID, false))

	_, err := env.auth.Login("sita@example.com", "Pedal!2026")
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestLoginDeliversOTP(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")

	code, err := env.auth.Login("sita@example.com", "Pedal!2026")
	require.NoError(t, err)
	assert.Equal(t, code, env.notifier.LastOTP("sita@example.com"))
}

func TestLoginFailsWhenDeliveryFails(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")
	env.notifier.Err = errors.New("smtp down")

	_, err := env.auth.Login("sita@example.com", "Pedal!2026")
	assert.Error(t, err)
}

func TestVerifyOTPCompletesLogin(t *testing.T) {
	env := newAuthEnv(t)
	user := env.register(t, "sita@example.com")

	result := env.login(t, "sita@example.com")
	assert.NotEmpty(t, result.Tokens.Access)
	assert.NotEmpty(t, result.Tokens.Refresh)
	require.NotNil(t, result.User.LastLogin)

	stored, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(env.clock.Now()))

	var activities []models.UserActivity
	require.NoError(t, env.db.Find(&activities).Error)
	require.Len(t, activities, 1)
	assert.Equal(t, user.ID, activities[0].UserID)
	assert.Equal(t, "10.0.0.1", activities[0].IPAddress)

	claims, err := env.auth.Authenticate(context.Background(), result.Tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestVerifyOTPErrors(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")

	_, err := env.auth.VerifyOTP("sita@example.com", "123456", "")
	assert.ErrorIs(t, err, ErrNoPendingLogin)
	_, err = env.auth.VerifyOTP("nobody@example.com", "123456", "")
	assert.ErrorIs(t, err, ErrNoPendingLogin)

	code, err := env.auth.Login("sita@example.com", "Pedal!2026")
	require.NoError(t, err)
	_, err = env.auth.VerifyOTP("sita@example.com", code, "")
	require.NoError(t, err)
	_, err = env.auth.VerifyOTP("sita@example.com", code, "")
	assert.ErrorIs(t, err, ErrOTPUsed)

	code, err = env.auth.Login("sita@example.com", "Pedal!2026")
	require.NoError(t, err)
	env.clock.Advance(6 * time.Minute)
	_, err = env.auth.VerifyOTP("sita@example.com", code, "")
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestResendOTP(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")

	_, err := env.auth.ResendOTP("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = env.auth.ResendOTP("sita@example.com")
	assert.ErrorIs(t, err, ErrNoPendingLogin)

	_, err = env.auth.Login("sita@example.com", "Pedal!2026")
	require.NoError(t, err)

	env.clock.Advance(4 * time.Minute)
	code, err := env.auth.ResendOTP("sita@example.com")
	require.NoError(t, err)
	assert.Equal(t, code, env.notifier.LastOTP("sita@example.com"))

	// The resent challenge has a fresh expiry.
	env.clock.Advance(4 * time.Minute)
	_, err = env.auth.VerifyOTP("sita@example.com", code, "")
	assert.NoError(t, err)
}

func TestResendOTPAfterExpiry(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")

	_, err := env.auth.Login("sita@example.com", "Pedal!2026")
	require.NoError(t, err)
	env.clock.Advance(6 * time.Minute)

	code, err := env.auth.ResendOTP("sita@example.com")
	require.NoError(t, err)
	assert.Equal(t, code, env.notifier.LastOTP("sita@example.com"))
	_, err = env.auth.VerifyOTP("sita@example.com", code, "")
	assert.NoError(t, err)
}

func TestResendOTPKeepsAttemptLimit(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")

	code, err := env.auth.Login("sita@example.com", "Pedal!2026")
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		_, err = env.auth.VerifyOTP("sita@example.com", wrong, "")
		require.Error(t, err)
	}
	_, err = env.auth.ResendOTP("sita@example.com")
	assert.ErrorIs(t, err, ErrOTPTooManyAttempts)
	_, err = env.auth.VerifyOTP("sita@example.com", code, "")
	assert.ErrorIs(t, err, ErrOTPTooManyAttempts)

	// Only a new password login opens another challenge.
	code, err = env.auth.Login("sita@example.com", "Pedal!2026")
	require.NoError(t, err)
	_, err = env.auth.VerifyOTP("sita@example.com", code, "")
	assert.NoError(t, err)
}

func TestLogoutRevokesTokens(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")
	result := env.login(t, "sita@example.com")
	ctx := context.Background()

	claims, err := env.auth.Authenticate(ctx, result.Tokens.Access)
	require.NoError(t, err)
	require.NoError(t, env.auth.Logout(ctx, claims, result.Tokens.Refresh))

	_, err = env.auth.Authenticate(ctx, result.Tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = env.auth.Refresh(ctx, result.Tokens.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRejectsForeignRefreshToken(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "sita@example.com")
	env.register(t, "ram@example.com")
	sita := env.login(t, "sita@example.com")
	ram := env.login(t, "ram@example.com")
	ctx := context.Background()

	claims, err := env.auth.Authenticate(ctx, sita.Tokens.Access)
	require.NoError(t, err)
	assert.ErrorIs(t, env.auth.Logout(ctx, claims, ram.Tokens.Refresh), ErrInvalidToken)
	assert.ErrorIs(t, env.auth.Logout(ctx, claims, "garbage"), ErrInvalidToken)
}

func TestRefresh(t *testing.T) {
	env := newAuthEnv(t)
	user := env.register(t, "sita@example.com")
	result := env.login(t, "sita@example.com")
	ctx := context.Background()

	env.clock.Advance(20 * time.Minute)
	_, err := env.auth.Authenticate(ctx, result.Tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := env.auth.Refresh(ctx, result.Tokens.Refresh)
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, access)
	assert.NoError(t, err)

	_, err = env.auth.Refresh(ctx, access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, env.users.SetActive(user.ID, false))
	_, err = env.auth.Refresh(ctx, result.Tokens.Refresh)
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestChangePassword(t *testing.T) {
	env := newAuthEnv(t)
	user := env.register(t, "sita@example.com")

	assert.ErrorIs(t, env.auth.ChangePassword(user.ID, "wrong", "NewPedal!2026"), ErrWrongPassword)
	assert.ErrorIs(t, env.auth.ChangePassword(user.ID, "Pedal!2026", "Pedal!2026"), ErrSamePassword)
	assert.ErrorIs(t, env.auth.ChangePassword("missing", "Pedal!2026", "NewPedal!2026"), ErrUserNotFound)

	require.NoError(t, env.auth.ChangePassword(user.ID, "Pedal!2026", "NewPedal!2026"))
	assert.Eventually(t, func() bool { return env.notifier.PasswordChangedCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := env.auth.Login("sita@example.com", "Pedal!2026")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login("sita@example.com", "NewPedal!2026")
	assert.NoError(t, err)
}
