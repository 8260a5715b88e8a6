package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"expertgate/internal/models"
	"expertgate/internal/services"
)

type NotificationHandler struct {
	svc services.NotificationService
	log *slog.Logger
}

func NewNotificationHandler(svc services.NotificationService, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log}
}

// @Summary      Notify admins about a new expert signup
// @Tags         Notifications
// @Accept       json
// @Produce      json
// @Param        body  body      models.ExpertSignup  true  "Signup"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/notifications/expert-signup [post]
func (h *NotificationHandler) ExpertSignup(c *gin.Context) {
	var req models.ExpertSignup
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	err := h.svc.NotifyExpertSignup(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Signup notification sent"})
	case errors.Is(err, services.ErrMissingFields):
		badRequest(c, "Name and email are required")
	default:
		internalError(c, h.log, "expert signup notification", err)
	}
}

// @Summary      Mark an expert as verified and notify them
// @Tags         Notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.ExpertVerification  true  "Expert"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/notifications/expert-verified [post]
func (h *NotificationHandler) ExpertVerified(c *gin.Context) {
	var req models.ExpertVerification
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	err := h.svc.NotifyExpertVerified(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Expert verified"})
	case errors.Is(err, services.ErrEmailRequired):
		badRequest(c, "Email is required")
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		internalError(c, h.log, "expert verified notification", err)
	}
}

// @Summary      Submit a support ticket
// @Tags         Support
// @Accept       json
// @Produce      json
// @Param        body  body      models.SupportTicket  true  "Ticket"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/support-tickets [post]
func (h *NotificationHandler) SupportTicket(c *gin.Context) {
	var req models.SupportTicket
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	err := h.svc.SubmitSupportTicket(c.Request.Context(), &req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Support ticket submitted", "ticketId": req.ID})
	case errors.Is(err, services.ErrMissingFields):
		badRequest(c, "Email and message are required")
	default:
		internalError(c, h.log, "support ticket", err)
	}
}
