package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonforge-backend/internal/gateway"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondResult maps a gateway result onto an HTTP response. Debounced
// calls report 202 since the write was superseded, not performed.
func RespondResult(c *gin.Context, result gateway.Result) {
	if result.IsDebounced() {
		c.JSON(http.StatusAccepted, result.Payload())
		return
	}
	if resErr, failed := result.Err(); failed {
		c.JSON(statusForKind(resErr.Kind), result.Payload())
		return
	}
	c.JSON(http.StatusOK, result.Payload())
}

func statusForKind(kind gateway.ErrorKind) int {
	switch kind {
	case gateway.KindNotFound:
		return http.StatusNotFound
	case gateway.KindValidation:
		return http.StatusBadRequest
	case gateway.KindProtected:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
