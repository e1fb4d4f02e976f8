package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/money"
)

// CreatePaymentRequest представляет запрос на регистрацию платежа
type CreatePaymentRequest struct {
	OrderID        int64                `json:"orderId"`
	Amount         money.Money          `json:"amount"`
	Method         domain.PaymentMethod `json:"paymentMethod"`
	Reference      string               `json:"reference,omitempty"`
	Bank           *string              `json:"bank,omitempty"`
	ChequeNumber   *string              `json:"chequeNumber,omitempty"`
	DueDate        *time.Time           `json:"dueDate,omitempty"`
	IdempotencyKey string               `json:"-"`
}

// PaymentService управляет регистрацией платежей и переходами
// их жизненного цикла
type PaymentService struct {
	paymentRepo domain.PaymentRepository
}

// NewPaymentService создает новый PaymentService
func NewPaymentService(paymentRepo domain.PaymentRepository) *PaymentService {
	return &PaymentService{paymentRepo: paymentRepo}
}

// CreatePayment регистрирует платеж по заказу в статусе PENDING.
// Сумма не может превышать непогашенный остаток заказа; проверка
// остатка выполняется атомарно в репозитории.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	if err := validatePayment(req); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:      req.OrderID,
		Amount:       req.Amount,
		Method:       req.Method,
		Reference:    req.Reference,
		Bank:         req.Bank,
		ChequeNumber: req.ChequeNumber,
		DueDate:      req.DueDate,
	}

	created, err := s.paymentRepo.CreatePayment(ctx, payment, req.IdempotencyKey)
	if err != nil {
		// Повтор по idempotency key: возвращаем ранее созданный платеж
		if errors.Is(err, domain.ErrPaymentExists) && created != nil {
			return created, nil
		}
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("payment service: failed to create payment: %w", err)
	}

	return created, nil
}

// validatePayment проверяет сумму, способ оплаты и обязательные
// реквизиты способа
func validatePayment(req CreatePaymentRequest) error {
	if !req.Amount.IsPositive() {
		return domain.NewValidationError("amount", "amount must be positive")
	}
	if !req.Method.Valid() {
		return domain.NewValidationError("paymentMethod",
			fmt.Sprintf("unknown payment method %q", req.Method))
	}

	switch req.Method {
	case domain.PaymentMethodCheque:
		if req.Bank == nil || *req.Bank == "" {
			return domain.NewValidationError("bank", "bank is required for cheque payments")
		}
		if req.ChequeNumber == nil || *req.ChequeNumber == "" {
			return domain.NewValidationError("chequeNumber", "cheque number is required for cheque payments")
		}
		if req.DueDate == nil {
			return domain.NewValidationError("dueDate", "due date is required for cheque payments")
		}
	case domain.PaymentMethodTransfer:
		if req.Bank == nil || *req.Bank == "" {
			return domain.NewValidationError("bank", "bank is required for transfer payments")
		}
	}

	return nil
}

// EncashPayment инкассирует платеж (PENDING -> CLEARED)
func (s *PaymentService) EncashPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.EncashPayment(ctx, id)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("payment service: failed to encash payment %d: %w", id, err)
	}

	return payment, nil
}

// RejectPayment отклоняет платеж (PENDING -> REJECTED)
func (s *PaymentService) RejectPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.RejectPayment(ctx, id)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("payment service: failed to reject payment %d: %w", id, err)
	}

	return payment, nil
}

// GetPayment получает платеж по ID
func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("payment service: failed to get payment %d: %w", id, err)
	}

	return payment, nil
}

// ListByOrder получает платежи заказа в порядке их номеров
func (s *PaymentService) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	payments, err := s.paymentRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment service: failed to list payments for order %d: %w", orderID, err)
	}
	return payments, nil
}
