package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/liveroom/internal/apperr"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, &APIResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now(),
		RequestID: c.GetString(requestIDKey),
	})
}

func ok(c *gin.Context, data any) {
	respond(c, http.StatusOK, data, "")
}

func created(c *gin.Context, data any, message string) {
	respond(c, http.StatusCreated, data, message)
}

// fail writes err using the status of its kind. Unclassified errors are
// logged and reported without their detail.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", c.GetString(requestIDKey),
			"path", c.FullPath(),
			"error", err.Error())
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, &APIResponse{
		Success:   false,
		Error:     &APIError{Code: string(kind), Message: message},
		Timestamp: time.Now(),
		RequestID: c.GetString(requestIDKey),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindQuotaExceeded:
		return http.StatusPaymentRequired
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
