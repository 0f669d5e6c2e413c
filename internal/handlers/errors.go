package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	domain "github.com/lumina-studio/api/internal/domain"
	"github.com/lumina-studio/api/internal/platform/httpx"
	"github.com/lumina-studio/api/internal/platform/requestctx"
)

// writeDomainError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors are reported as a generic 500 without leaking internals.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		httpErr := httpx.NewError("validation_failed", validation.Reason, http.StatusBadRequest)
		if validation.Field != "" {
			httpErr = httpErr.WithDetails(map[string]any{"field": validation.Field})
		}
		httpx.WriteError(ctx, w, httpErr)
		return
	}

	var rule *domain.RuleViolation
	if errors.As(err, &rule) {
		httpx.WriteError(ctx, w, httpx.NewError("rule_violation", rule.Detail, http.StatusConflict).
			WithDetails(map[string]any{"rule": rule.Rule}))
		return
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		httpx.WriteError(ctx, w, httpx.NewError("not_found", notFound.Error(), http.StatusNotFound))
		return
	}

	var persistence *domain.PersistenceError
	if errors.As(err, &persistence) {
		requestctx.Logger(ctx).Warn("upstream dependency failed",
			zap.String("op", persistence.Op), zap.Error(persistence.Err))
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "a backing service failed, try again", http.StatusBadGateway))
		return
	}

	requestctx.Logger(ctx).Error("unhandled error in handler", zap.Error(err))
	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
}

// decodeError reports a malformed request body.
func decodeError(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("invalid_body", "request body must be valid JSON", http.StatusBadRequest))
}
