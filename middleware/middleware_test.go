package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bikerental-api/database"
	"bikerental-api/models"
	"bikerental-api/repositories"
	"bikerental-api/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	auth   *services.AuthService
	tokens *services.TokenService
	clock  *clockwork.FakeClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := database.OpenTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	tokens := services.NewTokenService("test-secret", 15*time.Minute, time.Hour, clock)
	auth := services.NewAuthService(
		repositories.NewUserRepository(db),
		tokens,
		services.NewOTPService("BikeRental", 5*time.Minute, 5, clock),
		services.NewMemoryBlacklist(clock),
		services.NewRecordingNotifier(),
		clock,
		zap.NewNop(),
	)
	return &authFixture{auth: auth, tokens: tokens, clock: clock}
}

func (f *authFixture) token(t *testing.T, admin bool) string {
	t.Helper()
	token, err := f.tokens.GenerateAccess(&models.User{ID: "user-1", Email: "rider@example.com", IsAdmin: admin})
	require.NoError(t, err)
	return token
}

func protectedRouter(f *authFixture) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(f.auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID), "email": CurrentClaims(c).Email})
	})
	r.GET("/admin", AuthMiddleware(f.auth), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	f := newAuthFixture(t)
	r := protectedRouter(f)

	w := get(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication credentials were not provided.")

	w = get(r, "/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Given token not valid for any token type")

	w = get(r, "/me", f.token(t, false))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1","email":"rider@example.com"}`, w.Body.String())
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	r := protectedRouter(f)
	token := f.token(t, false)

	f.clock.Advance(16 * time.Minute)
	w := get(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnly(t *testing.T) {
	f := newAuthFixture(t)
	r := protectedRouter(f)

	w := get(r, "/admin", f.token(t, false))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail":"You do not have permission to perform this action."}`, w.Body.String())

	w = get(r, "/admin", f.token(t, true))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	r := gin.New()
	r.GET("/limited", RateLimit(rl, 60), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "/limited", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, rl.CleanupLimiters(time.Hour))
	assert.Equal(t, 2, rl.CleanupLimiters(0))
}

func TestValidateJSON(t *testing.T) {
	r := gin.New()
	r.Use(ValidateJSON())
	r.POST("/items", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("city=Pokhara"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"city":"Pokhara"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/items", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestErrorHandlerAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), ErrorHandler(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	w := get(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	r := gin.New()
	r.Use(metrics.Middleware())
	r.GET("/bikes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(r, "/bikes/1", "")
	get(r, "/bikes/2", "")
	get(r, "/missing", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("/bikes/:id", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("unmatched", "GET", "404")))
}
