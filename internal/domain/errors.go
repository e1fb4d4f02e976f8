package domain

import (
	"errors"
	"fmt"
)

// Ошибки пользователей и аутентификации
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminRequired      = errors.New("admin role required")
)

// Ошибки каталога и клиентов
var (
	ErrProductNotFound = errors.New("product not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrClientExists    = errors.New("client with this email already exists")
)

// Ошибки заказов и склада
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderExists        = errors.New("order already exists")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOutstandingBalance = errors.New("order has outstanding balance")
)

// Ошибки платежей и промокодов
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentExists   = errors.New("payment already exists")
	ErrPromoNotFound   = errors.New("promo code not found")
)

// ErrConcurrencyConflict возвращается после исчерпания повторов
// на транзитных конфликтах БД; вызывающая сторона может повторить запрос
var ErrConcurrencyConflict = errors.New("concurrent modification, retry the request")

// ValidationError представляет ошибку валидации входных данных
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError создает новую ошибку валидации
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StateTransitionError представляет запрещенный переход конечного автомата
type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition from %s to %s", e.Entity, e.From, e.To)
}

// NewOrderTransitionError создает ошибку перехода статуса заказа
func NewOrderTransitionError(from, to OrderStatus) *StateTransitionError {
	return &StateTransitionError{Entity: "order", From: string(from), To: string(to)}
}

// NewPaymentTransitionError создает ошибку перехода статуса платежа
func NewPaymentTransitionError(from, to PaymentStatus) *StateTransitionError {
	return &StateTransitionError{Entity: "payment", From: string(from), To: string(to)}
}
