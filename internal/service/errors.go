package service

import (
	"errors"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// isDomainError сообщает, является ли ошибка доменной и должна ли
// пройти к обработчику как есть, без дополнительного оборачивания
func isDomainError(err error) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var se *domain.StateTransitionError
	if errors.As(err, &se) {
		return true
	}
	for _, sentinel := range []error{
		domain.ErrProductNotFound,
		domain.ErrClientNotFound,
		domain.ErrClientExists,
		domain.ErrOrderNotFound,
		domain.ErrOrderExists,
		domain.ErrPaymentNotFound,
		domain.ErrPaymentExists,
		domain.ErrInsufficientStock,
		domain.ErrOutstandingBalance,
		domain.ErrConcurrencyConflict,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
