package routes

import (
	"fmt"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bikerental-api/config"
	"bikerental-api/jobs"
	"bikerental-api/middleware"
	"bikerental-api/repositories"
	"bikerental-api/services"
	"bikerental-api/utils"
)

// activityInterval throttles UserActivity rows to one per user per minute.
const activityInterval = time.Minute

// Dependencies are the collaborators main (or a test) chooses.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Clock     clockwork.Clock
	Notifier  services.Notifier
	Blacklist services.TokenBlacklist
}

// App holds the wired services and the HTTP router.
type App struct {
	Router      *gin.Engine
	Logger      *zap.Logger
	Clock       clockwork.Clock
	Auth        *services.AuthService
	OTP         *services.OTPService
	Analytics   *services.AnalyticsService
	Activity    *services.ActivityTracker
	Blacklist   services.TokenBlacklist
	Bikes       *repositories.BikeRepository
	Locations   *repositories.LocationRepository
	RateLimiter *middleware.RateLimiter
}

func NewApp(deps Dependencies) (*App, error) {
	cfg := deps.Config
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	userRepo := repositories.NewUserRepository(deps.DB)
	otpService := services.NewOTPService(cfg.OTPIssuer, cfg.OTPTTL, cfg.OTPMaxAttempts, clock)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, clock)

	app := &App{
		Logger:      deps.Logger,
		Clock:       clock,
		OTP:         otpService,
		Blacklist:   deps.Blacklist,
		Auth:        services.NewAuthService(userRepo, tokenService, otpService, deps.Blacklist, deps.Notifier, clock, deps.Logger),
		Analytics:   services.NewAnalyticsService(repositories.NewReportRepository(deps.DB), clock, cfg.ReportLocation()),
		Activity:    services.NewActivityTracker(userRepo, clock, activityInterval),
		Bikes:       repositories.NewBikeRepository(deps.DB),
		Locations:   repositories.NewLocationRepository(deps.DB),
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}

	if err := utils.RegisterValidators(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewHTTPMetrics(registry)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(ginzap.Ginzap(deps.Logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(deps.Logger, true))
	router.Use(SetupCORS(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(metrics.Middleware())
	router.Use(middleware.ErrorHandler(deps.Logger))
	router.Use(middleware.ValidateJSON())

	SetupRoutes(router, app, cfg, registry)
	app.Router = router
	return app, nil
}

// CleanupJob returns the periodic job that purges the app's in-memory
// state.
func (a *App) CleanupJob(clock clockwork.Clock, interval time.Duration) *jobs.CleanupJob {
	tasks := []jobs.CleanupTask{
		{Name: "otp_challenges", Run: a.OTP.Cleanup},
		{Name: "activity_throttle", Run: a.Activity.Prune},
		{Name: "rate_limiters", Run: func() int { return a.RateLimiter.CleanupLimiters(10 * time.Minute) }},
	}
	if mem, ok := a.Blacklist.(*services.MemoryBlacklist); ok {
		tasks = append(tasks, jobs.CleanupTask{Name: "revoked_tokens", Run: mem.Purge})
	}
	return jobs.NewCleanupJob(clock, interval, a.Logger, tasks...)
}
