package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/auction-engine/internal/api/dto"
	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/domain"
)

const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeEngineStopped  = "ENGINE_STOPPED"
	codeTimeout        = "TIMEOUT"
	codeCanceled       = "CANCELED"
	codeInternal       = "INTERNAL"
)

// statusClientClosed is the nginx convention for a caller that went away.
const statusClientClosed = 499

// statusOf maps an engine error to an HTTP status and a response code.
func statusOf(err error) (int, string) {
	if code := domain.CodeOf(err); code != "" {
		switch code {
		case domain.CodeNotFound:
			return http.StatusNotFound, string(code)
		case domain.CodeConflict:
			return http.StatusConflict, string(code)
		default:
			return http.StatusBadRequest, string(code)
		}
	}
	switch {
	case errors.Is(err, core.ErrEngineStopped):
		return http.StatusServiceUnavailable, codeEngineStopped
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosed, codeCanceled
	}
	return http.StatusInternalServerError, codeInternal
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.JSON(status, dto.ErrorResponse{Error: msg, Code: code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: codeInvalidRequest})
}
