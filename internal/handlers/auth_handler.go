package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"expertgate/internal/middleware"
	"expertgate/internal/models"
	"expertgate/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
	accessTTL   time.Duration
	log         *slog.Logger
}

func NewAuthHandler(authService services.AuthService, jwtSecret []byte, accessTTL time.Duration, log *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, jwtSecret: jwtSecret, accessTTL: accessTTL, log: log}
}

// @Summary      Sign in
// @Description  Checks credentials and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		internalError(c, h.log, "login", err)
		return
	}

	token, exp, err := middleware.NewAccessToken(h.jwtSecret, user.ID, user.Role, h.accessTTL)
	if err != nil {
		internalError(c, h.log, "sign access token", err)
		return
	}
	h.log.InfoContext(c.Request.Context(), "login succeeded", "user_id", user.ID, "role", user.Role)

	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"expiresAt":   exp.UTC().Format(time.RFC3339),
		"role":        user.Role,
	})
}
