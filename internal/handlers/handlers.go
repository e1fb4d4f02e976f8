package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// IdempotencyKeyHeader заголовок ключа идемпотентности для
// создания заказов и платежей
const IdempotencyKeyHeader = "Idempotency-Key"

// errorResponse представляет тело ответа с ошибкой
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON сериализует ответ в JSON
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError отображает доменную ошибку на HTTP статус.
// Неопознанные ошибки логируются и отдаются как 500 без деталей.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, logger, http.StatusBadRequest, errorResponse{Error: ve.Error()})
		return
	}
	var se *domain.StateTransitionError
	if errors.As(err, &se) {
		writeJSON(w, logger, http.StatusConflict, errorResponse{Error: se.Error()})
		return
	}

	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrClientNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, logger, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrOutstandingBalance),
		errors.Is(err, domain.ErrConcurrencyConflict),
		errors.Is(err, domain.ErrClientExists),
		errors.Is(err, domain.ErrUserExists):
		writeJSON(w, logger, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, logger, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAdminRequired):
		writeJSON(w, logger, http.StatusForbidden, errorResponse{Error: err.Error()})
	default:
		logger.Error("unexpected error", zap.Error(err))
		writeJSON(w, logger, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// pathID извлекает числовой ID из URL параметра chi
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
