package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bikerental-api/middleware"
	"bikerental-api/services"
	"bikerental-api/utils"
)

type AuthController struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewAuthController(auth *services.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

type RegisterRequest struct {
	FirstName       string `json:"first_name" binding:"required,max=150"`
	LastName        string `json:"last_name" binding:"max=150"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Phone           string `json:"phone" binding:"omitempty,max=20"`
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	user, err := ac.auth.Register(services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"email": []string{"A user with this email already exists."}})
			return
		}
		ac.logger.Error("registration failed", zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": "User Registered Successfully.",
		"user":    user,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	code, err := ac.auth.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			utils.SendDetail(c, http.StatusUnauthorized, "Invalid email or password.")
		case errors.Is(err, services.ErrInactiveAccount):
			utils.SendDetail(c, http.StatusForbidden, "This account is disabled.")
		default:
			ac.logger.Error("login failed", zap.String("email", req.Email), zap.Error(err))
			utils.SendError(c, http.StatusInternalServerError, "Failed to send OTP")
		}
		return
	}

	ac.otpSent(c, req.Email, code, "OTP sent to your email. Please verify to complete login.")
}

func (ac *AuthController) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	result, err := ac.auth.VerifyOTP(req.Email, req.OTP, c.ClientIP())
	if err != nil {
		if msg, ok := otpErrorMessage(err); ok {
			utils.SendDetail(c, http.StatusBadRequest, msg)
			return
		}
		ac.logger.Error("OTP verification failed", zap.String("email", req.Email), zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": "Login Successful.",
		"access":  result.Tokens.Access,
		"refresh": result.Tokens.Refresh,
		"user":    result.User,
	})
}

func (ac *AuthController) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	code, err := ac.auth.ResendOTP(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendDetail(c, http.StatusNotFound, "User with this email does not exist.")
		case errors.Is(err, services.ErrInactiveAccount):
			utils.SendDetail(c, http.StatusForbidden, "This account is disabled.")
		default:
			if msg, ok := otpErrorMessage(err); ok {
				utils.SendDetail(c, http.StatusBadRequest, msg)
				return
			}
			ac.logger.Error("resend OTP failed", zap.String("email", req.Email), zap.Error(err))
			utils.SendError(c, http.StatusInternalServerError, "Failed to send OTP")
		}
		return
	}

	ac.otpSent(c, req.Email, code, "OTP resent to your email.")
}

func (ac *AuthController) otpSent(c *gin.Context, email, code, message string) {
	response := gin.H{"message": message, "email": email}

	// Only include the code in development mode
	if gin.Mode() == gin.DebugMode {
		response["debug_code"] = code
	}
	c.JSON(http.StatusOK, response)
}

func otpErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrNoPendingLogin):
		return "No login in progress. Please log in again.", true
	case errors.Is(err, services.ErrOTPExpired):
		return "OTP has expired. Please request a new one.", true
	case errors.Is(err, services.ErrOTPUsed):
		return "OTP has already been used.", true
	case errors.Is(err, services.ErrOTPTooManyAttempts):
		return "Too many invalid attempts. Please log in again.", true
	case errors.Is(err, services.ErrOTPResendLimit):
		return "Too many OTP resends. Please log in again.", true
	case errors.Is(err, services.ErrOTPInvalid):
		return "Invalid OTP.", true
	}
	return "", false
}

func (ac *AuthController) Logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendValidationError(c, err)
			return
		}
	}

	claims := middleware.CurrentClaims(c)
	if err := ac.auth.Logout(c.Request.Context(), claims, req.Refresh); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			utils.SendDetail(c, http.StatusBadRequest, "Invalid refresh token.")
			return
		}
		ac.logger.Error("logout failed", zap.String("user_id", claims.UserID), zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to log out")
		return
	}

	utils.SendSuccess(c, http.StatusOK, "Logged out successfully.")
}

func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	access, err := ac.auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrInactiveAccount) {
			utils.SendDetail(c, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		ac.logger.Error("token refresh failed", zap.Error(err))
		utils.SendError(c, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err)
		return
	}

	userID := c.GetString(middleware.ContextUserID)
	err := ac.auth.ChangePassword(userID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWrongPassword):
			c.JSON(http.StatusBadRequest, gin.H{"old_password": []string{"Old password is incorrect."}})
		case errors.Is(err, services.ErrSamePassword):
			c.JSON(http.StatusBadRequest, gin.H{"new_password": []string{"New password must differ from the old password."}})
		case errors.Is(err, services.ErrUserNotFound):
			utils.SendDetail(c, http.StatusNotFound, "User not found.")
		default:
			ac.logger.Error("change password failed", zap.String("user_id", userID), zap.Error(err))
			utils.SendError(c, http.StatusInternalServerError, "Failed to change password")
		}
		return
	}

	utils.SendSuccess(c, http.StatusOK, "Password Changed Successfully.")
}

func (ac *AuthController) Profile(c *gin.Context) {
	user, err := ac.auth.Profile(c.GetString(middleware.ContextUserID))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.SendDetail(c, http.StatusNotFound, "User not found.")
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
