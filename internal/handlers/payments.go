package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/service"
)

// PaymentService определяет методы работы с платежами
type PaymentService interface {
	CreatePayment(ctx context.Context, req service.CreatePaymentRequest) (*domain.Payment, error)
	EncashPayment(ctx context.Context, id int64) (*domain.Payment, error)
	RejectPayment(ctx context.Context, id int64) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error)
}

type PaymentsHandler struct {
	paymentService PaymentService
	logger         *zap.Logger
}

func NewPaymentsHandler(paymentService PaymentService, logger *zap.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Create регистрирует платеж по заказу
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)

	payment, err := h.paymentService.CreatePayment(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, payment)
}

// Encash инкассирует платеж (PENDING -> CLEARED)
func (h *PaymentsHandler) Encash(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payment, err := h.paymentService.EncashPayment(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payment)
}

// Reject отклоняет платеж (PENDING -> REJECTED)
func (h *PaymentsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payment, err := h.paymentService.RejectPayment(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payment)
}

// ListByOrder возвращает платежи заказа в порядке их номеров
func (h *PaymentsHandler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payments, err := h.paymentService.ListByOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payments)
}
