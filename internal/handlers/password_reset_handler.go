package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"expertgate/internal/services"
)

const (
	msgResetRequested = "If an account exists for this email, a verification code has been sent"
	msgResetDone      = "Password has been reset successfully"
)

type PasswordResetHandler struct {
	svc               services.PasswordResetService
	minPasswordLength int
	log               *slog.Logger
}

func NewPasswordResetHandler(svc services.PasswordResetService, minPasswordLength int, log *slog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc, minPasswordLength: minPasswordLength, log: log}
}

type resetRequestBody struct {
	Email string `json:"email"`
}

type resetVerifyBody struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// @Summary      Request a password reset code
// @Description  Emails a 6-digit verification code. The response is the same whether or not the account exists.
// @Tags         PasswordReset
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequestBody  true  "Account email"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/password-reset/request [post]
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req resetRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	err := h.svc.RequestReset(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": msgResetRequested})
	case errors.Is(err, services.ErrEmailRequired):
		badRequest(c, "Email is required")
	case errors.Is(err, services.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
	default:
		internalError(c, h.log, "password reset request", err)
	}
}

// @Summary      Verify a reset code and set a new password
// @Tags         PasswordReset
// @Accept       json
// @Produce      json
// @Param        body  body      resetVerifyBody  true  "Email, code and new password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/password-reset/verify [post]
func (h *PasswordResetHandler) Verify(c *gin.Context) {
	var req resetVerifyBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": msgResetDone})
	case errors.Is(err, services.ErrEmailRequired):
		badRequest(c, "Email is required")
	case errors.Is(err, services.ErrCodeRequired):
		badRequest(c, "Code is required")
	case errors.Is(err, services.ErrPasswordRequired):
		badRequest(c, "New password is required")
	case errors.Is(err, services.ErrWeakPassword):
		badRequest(c, fmt.Sprintf("Password must be at least %d characters", h.minPasswordLength))
	case errors.Is(err, services.ErrInvalidCode):
		badRequest(c, "Invalid or expired verification code")
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		internalError(c, h.log, "password reset verify", err)
	}
}
