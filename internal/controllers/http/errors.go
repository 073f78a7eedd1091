package http

import (
	"errors"
	"log"
	"net/http"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"

	"github.com/gin-gonic/gin"
)

// ErrorStatus maps a service error to its HTTP status and error code.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, gateway.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid_signature"
	case errors.Is(err, domain.ErrGateway):
		if domain.IsTransient(err) {
			return http.StatusServiceUnavailable, "gateway_unavailable"
		}
		return http.StatusPaymentRequired, "payment_failed"
	}
	return http.StatusInternalServerError, "internal_error"
}

func respondError(c *gin.Context, route string, err error) {
	status, code := ErrorStatus(err)
	resp := ErrorResponse{Error: code, Message: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Message = "validation failed"
		resp.Details = verr.Fields
	}
	if status == http.StatusInternalServerError {
		log.Printf("[%s] internal error: %v", route, err)
		resp.Message = "internal server error"
	}

	c.AbortWithStatusJSON(status, resp)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}
