package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/gsqlai/internal/middleware"
	appErr "github.com/xxxsen/gsqlai/internal/pkg/errors"
	"github.com/xxxsen/gsqlai/internal/pkg/response"
)

const (
	msgInvalidRequest = "Invalid request"
	msgPromptRequired = "Prompt is required"
	msgUnauthorized   = "Authentication required"
	msgNotConfigured  = "GSQL AI service is not configured"
	msgMisconfigured  = "GSQL AI service configuration error"
	msgRateLimited    = "AI service rate limit reached, please try again later"
	msgInternal       = "Failed to process GSQL AI request"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// requireUser returns the authenticated user id, or writes a 401 when the
// route was reached without one.
func requireUser(c *gin.Context, debug bool) (string, bool) {
	userID := getUserID(c)
	if userID == "" {
		handleError(c, appErr.ErrUnauthorized, debug)
		return "", false
	}
	return userID, true
}

// handleError writes the status for err. The raw error text is only exposed
// when debug is set.
func handleError(c *gin.Context, err error, debug bool) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	requestIDStr, _ := requestID.(string)
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", requestIDStr),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, msgInvalidRequest)
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, appErr.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, msgNotConfigured)
	case errors.Is(err, appErr.ErrMisconfigured):
		response.Error(c, http.StatusServiceUnavailable, msgMisconfigured)
	default:
		if debug {
			response.ErrorWithDetails(c, http.StatusInternalServerError, msgInternal, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, msgInternal)
	}
}
