package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/money"
)

func strPtr(s string) *string { return &s }

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Cash payment", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		created := &domain.Payment{ID: 1, OrderID: 5, Number: 1, Status: domain.PaymentStatusPending}
		repo.On("CreatePayment", mock.Anything, mock.AnythingOfType("*domain.Payment"), "pk-1").
			Return(created, nil).Once()

		payment, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID:        5,
			Amount:         money.FromCents(10000),
			Method:         domain.PaymentMethodCash,
			IdempotencyKey: "pk-1",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), payment.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Cheque requires bank, number and due date", func(t *testing.T) {
		svc := NewPaymentService(&paymentRepoMock{})
		due := time.Now().Add(30 * 24 * time.Hour)

		cases := []struct {
			name  string
			req   CreatePaymentRequest
			field string
		}{
			{
				name: "missing bank",
				req: CreatePaymentRequest{
					OrderID: 5, Amount: money.FromCents(100), Method: domain.PaymentMethodCheque,
					ChequeNumber: strPtr("000123"), DueDate: &due,
				},
				field: "bank",
			},
			{
				name: "missing cheque number",
				req: CreatePaymentRequest{
					OrderID: 5, Amount: money.FromCents(100), Method: domain.PaymentMethodCheque,
					Bank: strPtr("BNP"), DueDate: &due,
				},
				field: "chequeNumber",
			},
			{
				name: "missing due date",
				req: CreatePaymentRequest{
					OrderID: 5, Amount: money.FromCents(100), Method: domain.PaymentMethodCheque,
					Bank: strPtr("BNP"), ChequeNumber: strPtr("000123"),
				},
				field: "dueDate",
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.CreatePayment(ctx, tc.req)
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tc.field, ve.Field)
			})
		}
	})

	t.Run("Complete cheque accepted", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)
		due := time.Now().Add(30 * 24 * time.Hour)

		repo.On("CreatePayment", mock.Anything, mock.AnythingOfType("*domain.Payment"), "").
			Return(&domain.Payment{ID: 2}, nil).Once()

		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID:      5,
			Amount:       money.FromCents(100),
			Method:       domain.PaymentMethodCheque,
			Bank:         strPtr("BNP"),
			ChequeNumber: strPtr("000123"),
			DueDate:      &due,
		})
		require.NoError(t, err)
	})

	t.Run("Transfer requires bank", func(t *testing.T) {
		svc := NewPaymentService(&paymentRepoMock{})

		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID: 5,
			Amount:  money.FromCents(100),
			Method:  domain.PaymentMethodTransfer,
		})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "bank", ve.Field)
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		svc := NewPaymentService(&paymentRepoMock{})

		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID: 5,
			Amount:  money.FromCents(0),
			Method:  domain.PaymentMethodCash,
		})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
	})

	t.Run("Unknown method", func(t *testing.T) {
		svc := NewPaymentService(&paymentRepoMock{})

		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID: 5,
			Amount:  money.FromCents(100),
			Method:  "BITCOIN",
		})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "paymentMethod", ve.Field)
	})

	t.Run("Overpay rejected by repository", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		repo.On("CreatePayment", mock.Anything, mock.AnythingOfType("*domain.Payment"), "").
			Return(nil, domain.NewValidationError("amount", "amount exceeds outstanding balance")).Once()

		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID: 5,
			Amount:  money.FromCents(999999),
			Method:  domain.PaymentMethodCash,
		})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
	})

	t.Run("Idempotent replay returns existing payment", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		existing := &domain.Payment{ID: 7, OrderID: 5, Number: 2}
		repo.On("CreatePayment", mock.Anything, mock.AnythingOfType("*domain.Payment"), "pk-2").
			Return(existing, domain.ErrPaymentExists).Once()

		payment, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID:        5,
			Amount:         money.FromCents(100),
			Method:         domain.PaymentMethodCash,
			IdempotencyKey: "pk-2",
		})
		require.NoError(t, err)
		assert.Equal(t, existing, payment)
	})

	t.Run("Database error", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		repo.On("CreatePayment", mock.Anything, mock.AnythingOfType("*domain.Payment"), "").
			Return(nil, errors.New("db error")).Once()

		_, err := svc.CreatePayment(ctx, CreatePaymentRequest{
			OrderID: 5,
			Amount:  money.FromCents(100),
			Method:  domain.PaymentMethodCash,
		})
		assert.Error(t, err)
	})
}

func TestPaymentService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("Encash success", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		now := time.Now()
		cleared := &domain.Payment{ID: 1, Status: domain.PaymentStatusCleared, EncashedAt: &now}
		repo.On("EncashPayment", mock.Anything, int64(1)).Return(cleared, nil).Once()

		payment, err := svc.EncashPayment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCleared, payment.Status)
		assert.NotNil(t, payment.EncashedAt)
	})

	t.Run("Reject success", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		rejected := &domain.Payment{ID: 1, Status: domain.PaymentStatusRejected}
		repo.On("RejectPayment", mock.Anything, int64(1)).Return(rejected, nil).Once()

		payment, err := svc.RejectPayment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRejected, payment.Status)
	})

	t.Run("Encash already cleared", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		repo.On("EncashPayment", mock.Anything, int64(1)).
			Return(nil, domain.NewPaymentTransitionError(domain.PaymentStatusCleared, domain.PaymentStatusCleared)).Once()

		_, err := svc.EncashPayment(ctx, 1)
		var se *domain.StateTransitionError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "payment", se.Entity)
	})

	t.Run("Not found", func(t *testing.T) {
		repo := &paymentRepoMock{}
		svc := NewPaymentService(repo)

		repo.On("RejectPayment", mock.Anything, int64(9)).
			Return(nil, domain.ErrPaymentNotFound).Once()

		_, err := svc.RejectPayment(ctx, 9)
		assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	})
}

func TestPaymentService_ListByOrder(t *testing.T) {
	ctx := context.Background()
	repo := &paymentRepoMock{}
	svc := NewPaymentService(repo)

	payments := []*domain.Payment{
		{ID: 1, OrderID: 5, Number: 1},
		{ID: 2, OrderID: 5, Number: 2},
	}
	repo.On("ListByOrder", mock.Anything, int64(5)).Return(payments, nil).Once()

	result, err := svc.ListByOrder(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, payments, result)
}
