package gateway

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rbxsync/rbxsync-server/internal/extraction"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/orchestration"
	"github.com/rbxsync/rbxsync-server/internal/rbxtypes"
)

// classify maps an error to its HTTP status and response body.
func classify(err error) (int, models.ErrorResponse) {
	var remote *models.RemoteError
	var decodeErr *rbxtypes.DecodeError

	switch {
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, models.ErrorResponse{Error: "Plugin did not respond in time", Code: models.ErrCodeTimeout, Details: details(err)}
	case errors.As(err, &remote):
		return http.StatusBadGateway, models.ErrorResponse{Error: remote.Message, Code: models.ErrCodeRemoteError}
	case errors.Is(err, models.ErrBrokerUnavailable):
		return http.StatusServiceUnavailable, models.ErrorResponse{Error: "Server is shutting down", Code: models.ErrCodeBrokerUnavailable}
	case errors.Is(err, models.ErrInvalidSession):
		return http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID", Code: models.ErrCodeInvalidSession}
	case errors.Is(err, extraction.ErrNoActiveSession):
		return http.StatusBadRequest, models.ErrorResponse{Error: "No active extraction session", Code: models.ErrCodeNoActiveSession}
	case errors.Is(err, orchestration.ErrCodeRequired):
		return http.StatusBadRequest, models.ErrorResponse{Error: "Code is required", Code: models.ErrCodeInvalidRequest}
	case errors.Is(err, extraction.ErrChunkOutOfRange),
		errors.Is(err, extraction.ErrTotalMismatch),
		errors.Is(err, extraction.ErrDuplicateChunk):
		return http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: models.ErrCodeInvalidRequest}
	case errors.Is(err, extraction.ErrSessionActive),
		errors.Is(err, extraction.ErrFinalizeRunning),
		errors.Is(err, extraction.ErrIncomplete):
		return http.StatusConflict, models.ErrorResponse{Error: err.Error(), Code: models.ErrCodeConflict}
	case errors.As(err, &decodeErr), errors.Is(err, rbxtypes.ErrUnknownVariant):
		return http.StatusUnprocessableEntity, models.ErrorResponse{Error: err.Error(), Code: models.ErrCodeDecodeError}
	}
	return http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Code: models.ErrCodeInternalError}
}

func details(err error) map[string]string {
	return map[string]string{"cause": err.Error()}
}

func writeError(c *gin.Context, err error) {
	status, resp := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf(`{"level":"error","message":"request failed","path":"%s","status":%d,"error":"%v"}`, c.Request.URL.Path, status, err)
	}
	c.Error(err)
	c.JSON(status, resp)
}

// writeHarnessError answers harness routes with {success:false, message}.
func writeHarnessError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, harness.ErrFeatureNotFound), errors.Is(err, harness.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, harness.ErrNotInitialized),
		errors.Is(err, harness.ErrUnknownTemplate),
		errors.Is(err, harness.ErrNameRequired),
		errors.Is(err, harness.ErrInvalidStatus),
		errors.Is(err, harness.ErrInvalidPriority),
		errors.Is(err, harness.ErrProjectRequired):
		status = http.StatusBadRequest
	}
	c.Error(err)
	c.JSON(status, gin.H{"success": false, "message": capitalize(err.Error())})
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "Invalid request",
		Code:    models.ErrCodeInvalidRequest,
		Details: map[string]string{"cause": strings.TrimSpace(err.Error())},
	})
}
