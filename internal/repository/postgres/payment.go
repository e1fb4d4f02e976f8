package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avc/commerce-backoffice/internal/domain"
)

const paymentColumns = `id, order_id, payment_number, amount, method, status, reference, bank, cheque_number, due_date, encashed_at, created_at`

// PaymentRepository реализует domain.PaymentRepository.
// Создание платежа и переходы статуса сериализуются advisory-блокировкой
// по ID заказа (общей с OrderRepository), чтобы ни сумма незакрытых
// платежей, ни остаток по заказу не читались устаревшими.
type PaymentRepository struct {
	db DBTX
}

// NewPaymentRepository создает новый PaymentRepository
func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	var reference *string
	err := row.Scan(&p.ID, &p.OrderID, &p.Number, &p.Amount, &p.Method, &p.Status,
		&reference, &p.Bank, &p.ChequeNumber, &p.DueDate, &p.EncashedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reference != nil {
		p.Reference = *reference
	}
	return p, nil
}

// CreatePayment создает платеж в статусе PENDING. Сумма не может
// превышать остаток по заказу: total за вычетом всех неотклоненных
// платежей. Номер платежа назначается последовательно в рамках заказа
// и не переиспользуется. Повтор с тем же idempotency key возвращает
// ранее созданный платеж и domain.ErrPaymentExists.
func (r *PaymentRepository) CreatePayment(ctx context.Context, p *domain.Payment, idempotencyKey string) (*domain.Payment, error) {
	var created *domain.Payment

	err := withRetry(ctx, func() error {
		var txErr error
		created, txErr = r.createPaymentTx(ctx, p, idempotencyKey)
		return txErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentExists) && idempotencyKey != "" {
			existing, getErr := r.getByIdempotencyKey(ctx, idempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("repository: failed to load payment for idempotency key: %w", getErr)
			}
			return existing, domain.ErrPaymentExists
		}
		return nil, err
	}

	return created, nil
}

func (r *PaymentRepository) createPaymentTx(ctx context.Context, p *domain.Payment, idempotencyKey string) (*domain.Payment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, p.OrderID); err != nil {
		return nil, fmt.Errorf("repository: failed to acquire lock for order %d: %w", p.OrderID, err)
	}

	var orderStatus domain.OrderStatus
	var total int64
	err = tx.QueryRow(ctx,
		`SELECT status, total FROM orders WHERE id = $1`,
		p.OrderID,
	).Scan(&orderStatus, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get order %d: %w", p.OrderID, err)
	}

	if orderStatus != domain.OrderStatusPending {
		return nil, domain.NewValidationError("orderId",
			fmt.Sprintf("order %d is %s, payments are accepted only for pending orders", p.OrderID, orderStatus))
	}

	// Остаток, доступный для оплаты: учитываются все неотклоненные платежи,
	// включая еще не инкассированные
	var committed int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)
		 FROM payments
		 WHERE order_id = $1 AND status <> $2`,
		p.OrderID, domain.PaymentStatusRejected,
	).Scan(&committed)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to sum payments for order %d: %w", p.OrderID, err)
	}

	if p.Amount.Cents() > total-committed {
		return nil, domain.NewValidationError("amount",
			fmt.Sprintf("amount exceeds remaining payable balance for order %d", p.OrderID))
	}

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}

	created := &domain.Payment{
		OrderID:      p.OrderID,
		Amount:       p.Amount,
		Method:       p.Method,
		Status:       domain.PaymentStatusPending,
		Reference:    p.Reference,
		Bank:         p.Bank,
		ChequeNumber: p.ChequeNumber,
		DueDate:      p.DueDate,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO payments (order_id, payment_number, amount, method, status, reference, bank, cheque_number, due_date, idempotency_key)
		 VALUES ($1, (SELECT COALESCE(MAX(payment_number), 0) + 1 FROM payments WHERE order_id = $1), $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, payment_number, created_at`,
		p.OrderID, p.Amount, p.Method, domain.PaymentStatusPending,
		p.Reference, p.Bank, p.ChequeNumber, p.DueDate, key,
	).Scan(&created.ID, &created.Number, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPaymentExists
		}
		return nil, fmt.Errorf("repository: failed to insert payment for order %d: %w", p.OrderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit payment creation: %w", err)
	}

	return created, nil
}

func (r *PaymentRepository) getByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE idempotency_key = $1`,
		key,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByID получает платеж по ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to get payment %d: %w", id, err)
	}

	return p, nil
}

// ListByOrder получает все платежи заказа в порядке их номеров
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE order_id = $1
		 ORDER BY payment_number`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list payments for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating payments: %w", err)
	}

	return payments, nil
}

// EncashPayment выполняет переход PENDING -> CLEARED и фиксирует момент
// инкассации. После этого остаток по заказу уменьшается на сумму платежа.
func (r *PaymentRepository) EncashPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.transition(ctx, id, domain.PaymentStatusCleared)
}

// RejectPayment выполняет переход PENDING -> REJECTED. Отклоненные
// платежи никогда не учитываются в остатке по заказу.
func (r *PaymentRepository) RejectPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	var p *domain.Payment
	err := withRetry(ctx, func() error {
		var txErr error
		p, txErr = r.transitionTx(ctx, id, domain.PaymentStatusRejected)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) transition(ctx context.Context, id int64, target domain.PaymentStatus) (*domain.Payment, error) {
	var p *domain.Payment
	err := withRetry(ctx, func() error {
		var txErr error
		p, txErr = r.transitionTx(ctx, id, target)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) transitionTx(ctx context.Context, id int64, target domain.PaymentStatus) (*domain.Payment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	var orderID int64
	var status domain.PaymentStatus
	err = tx.QueryRow(ctx,
		`SELECT order_id, status FROM payments WHERE id = $1`,
		id,
	).Scan(&orderID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to get payment %d: %w", id, err)
	}

	// Блокировка заказа берется до проверки статуса: переход платежа
	// не должен чередоваться с подтверждением или отменой заказа
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, orderID); err != nil {
		return nil, fmt.Errorf("repository: failed to acquire lock for order %d: %w", orderID, err)
	}

	err = tx.QueryRow(ctx,
		`SELECT status FROM payments WHERE id = $1`,
		id,
	).Scan(&status)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to re-check payment %d: %w", id, err)
	}

	if status != domain.PaymentStatusPending {
		return nil, domain.NewPaymentTransitionError(status, target)
	}

	var encashClause string
	if target == domain.PaymentStatusCleared {
		encashClause = `, encashed_at = now()`
	}

	p, err := scanPayment(tx.QueryRow(ctx,
		`UPDATE payments
		 SET status = $1`+encashClause+`
		 WHERE id = $2
		 RETURNING `+paymentColumns,
		target, id,
	))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update payment %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit payment transition: %w", err)
	}

	return p, nil
}
