package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bikerental-api/services"
	"bikerental-api/utils"
)

const (
	ContextUserID  = "user_id"
	ContextIsAdmin = "is_admin"
	ContextClaims  = "claims"
)

// AuthMiddleware requires a valid, non-revoked bearer access token.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.Abort()
			utils.SendDetail(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.Abort()
			if errors.Is(err, services.ErrInvalidToken) {
				utils.SendDetail(c, http.StatusUnauthorized, "Given token not valid for any token type")
				return
			}
			_ = c.Error(err)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			c.Abort()
			utils.SendDetail(c, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		c.Next()
	}
}

// TrackActivity records the authenticated user's request for usage
// reports. Failures are logged and never fail the request.
func TrackActivity(tracker *services.ActivityTracker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID != "" {
			if _, err := tracker.Track(userID, c.ClientIP(), c.FullPath()); err != nil {
				logger.Warn("failed to record user activity", zap.String("user_id", userID), zap.Error(err))
			}
		}
		c.Next()
	}
}

// CurrentClaims returns the claims stored by AuthMiddleware.
func CurrentClaims(c *gin.Context) *services.Claims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*services.Claims); ok {
			return claims
		}
	}
	return nil
}
