package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"expertgate/internal/middleware"
)

const msgInternal = "Internal server error"

// более устойчиво к типам (int / int64 / float64 / string)
func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func currentUserID(c *gin.Context) (int64, bool) {
	id, ok := getInt64FromCtx(c, middleware.CtxUserID)
	return id, ok && id > 0
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// internalError logs the cause and answers with a generic body.
func internalError(c *gin.Context, log *slog.Logger, op string, err error) {
	log.ErrorContext(c.Request.Context(), op+" failed",
		"error", err,
		"path", c.FullPath(),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
