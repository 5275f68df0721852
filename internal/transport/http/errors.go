package http

import (
	"errors"
	"net/http"

	"fakeartist/internal/domain"
)

// StatusFor maps an engine error to an HTTP status and a stable error code
func StatusFor(err error) (int, string) {
	code := domain.CodeOf(err)

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, orDefault(code, "VALIDATION_ERROR")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, orDefault(code, "NOT_FOUND")
	case errors.Is(err, domain.ErrClockNotReady):
		return http.StatusServiceUnavailable, code
	case errors.Is(err, domain.ErrPrecondition):
		return http.StatusConflict, orDefault(code, "PRECONDITION_FAILED")
	case errors.Is(err, domain.ErrCollision):
		return http.StatusServiceUnavailable, orDefault(code, "CODE_COLLISION")
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func orDefault(code, fallback string) string {
	if code == "" {
		return fallback
	}
	return code
}
