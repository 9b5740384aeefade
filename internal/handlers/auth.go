package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/errors"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/response"
)

// AuthHandler manages registration, login, token refresh, password reset and profiles.
type AuthHandler struct {
	registration *services.RegistrationService
	auth         *services.AuthService
	profiles     *services.ProfileService
}

func NewAuthHandler(registration *services.RegistrationService, auth *services.AuthService, profiles *services.ProfileService) *AuthHandler {
	return &AuthHandler{registration: registration, auth: auth, profiles: profiles}
}

type requestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /auth/request-otp
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req requestOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	expiresAt, err := h.registration.IssueOTP(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":    "Verification code sent",
		"expires_at": expiresAt,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// POST /auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.registration.VerifyOTP(requestContext(c), req.Email, req.OTP); err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Email verified"})
}

type setPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /auth/set-password
func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.registration.SetPassword(requestContext(c), req.Email, req.Name, req.Role, req.Password)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// POST /auth/login
// Credentials arrive form-encoded with the email in the username field.
func (h *AuthHandler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if email == "" || password == "" {
		response.Error(c, errors.NewBadRequest("username and password are required"))
		return
	}

	result, err := h.auth.Login(requestContext(c), email, password)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.auth.Refresh(requestContext(c), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, pair)
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /auth/forgot-password
// The response never discloses whether the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ForgotPassword(requestContext(c), req.Email); err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "If the email is registered, a reset code has been sent",
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(requestContext(c), req.Email, req.OTP, req.NewPassword); err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password has been reset"})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	view, err := h.profiles.GetByEmail(requestContext(c), currentUserEmail(c))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GET /auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	view, err := h.profiles.GetByEmail(requestContext(c), currentUserEmail(c))
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, view)
}

// PUT /auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var patch services.ProfilePatch
	if !bindAndValidate(c, &patch) {
		return
	}

	view, err := h.profiles.Update(requestContext(c), currentUserEmail(c), patch)
	if err != nil {
		response.Error(c, mapServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, view)
}
