package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"expertgate/internal/services"
)

type ProfileHandler struct {
	svc services.ProfileService
	log *slog.Logger
}

func NewProfileHandler(svc services.ProfileService, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

// @Summary      Resolve which dashboard the signed-in user should see
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/profile/view [get]
func (h *ProfileHandler) View(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	view, err := h.svc.ResolveView(c.Request.Context(), userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"view": view})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		internalError(c, h.log, "resolve profile view", err)
	}
}
