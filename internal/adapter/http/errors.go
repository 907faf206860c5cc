package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// APIError is the body of every error response.
type APIError struct {
	Status  int    `json:"status" doc:"HTTP status code"`
	Kind    string `json:"kind" doc:"Error classification"`
	Message string `json:"message" doc:"Human-readable description"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.Status }

var statusByKind = map[domain.Kind]int{
	domain.KindValidation:        http.StatusBadRequest,
	domain.KindUnauthorized:      http.StatusUnauthorized,
	domain.KindForbidden:         http.StatusForbidden,
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindConflict:          http.StatusConflict,
	domain.KindInvalidTransition: http.StatusConflict,
	domain.KindDependency:        http.StatusInternalServerError,
	domain.KindTimeout:           http.StatusGatewayTimeout,
}

// toAPIError translates domain errors to HTTP errors. Dependency and timeout
// details are logged and replaced with a generic message.
func toAPIError(ctx context.Context, logger *slog.Logger, err error) error {
	kind := domain.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
		kind = domain.KindDependency
	}

	message := err.Error()
	switch kind {
	case domain.KindDependency:
		logger.ErrorContext(ctx, "request failed", "error", err)
		message = "internal server error"
	case domain.KindTimeout:
		logger.WarnContext(ctx, "request timed out", "error", err)
		message = "operation timed out"
	case domain.KindNotFound:
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			message = nf.Entity + " not found"
		}
	}

	return &APIError{Status: status, Kind: string(kind), Message: message}
}

var kindByStatus = map[int]domain.Kind{
	http.StatusUnauthorized:   domain.KindUnauthorized,
	http.StatusForbidden:      domain.KindForbidden,
	http.StatusNotFound:       domain.KindNotFound,
	http.StatusConflict:       domain.KindConflict,
	http.StatusGatewayTimeout: domain.KindTimeout,
}

var installErrorsOnce sync.Once

// installErrors routes errors raised by huma itself (schema validation,
// unreadable bodies) through APIError so every response carries a kind.
// A schema violation is a validation error and answers 400, not 422.
func installErrors() {
	installErrorsOnce.Do(func() {
		huma.NewError = newHumaError
	})
}

func newHumaError(status int, msg string, errs ...error) huma.StatusError {
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}

	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		return &APIError{Status: status, Kind: string(domain.KindDependency), Message: "internal server error"}
	}
	if kind, ok := kindByStatus[status]; ok {
		return &APIError{Status: status, Kind: string(kind), Message: msg}
	}
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	return &APIError{Status: status, Kind: string(domain.KindValidation), Message: msg}
}
