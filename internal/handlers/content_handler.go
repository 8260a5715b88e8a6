package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"expertgate/internal/models"
	"expertgate/internal/services"
)

// ContentReader is satisfied by *services.ContentService.
type ContentReader interface {
	Get(ctx context.Context, key string) (string, error)
	All(ctx context.Context) ([]models.ContentEntry, error)
}

type ContentHandler struct {
	content ContentReader
	log     *slog.Logger
}

func NewContentHandler(content ContentReader, log *slog.Logger) *ContentHandler {
	return &ContentHandler{content: content, log: log}
}

// @Summary      List site content
// @Tags         Content
// @Produce      json
// @Success      200  {array}   models.ContentEntry
// @Failure      500  {object}  map[string]string
// @Router       /api/content [get]
func (h *ContentHandler) List(c *gin.Context) {
	entries, err := h.content.All(c.Request.Context())
	if err != nil {
		internalError(c, h.log, "list content", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary      Get one content entry
// @Tags         Content
// @Produce      json
// @Param        key  path      string  true  "Content key"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/content/{key} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	key := c.Param("key")
	value, err := h.content.Get(c.Request.Context(), key)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
	case errors.Is(err, services.ErrContentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
	default:
		internalError(c, h.log, "get content", err)
	}
}
