package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avc/commerce-backoffice/internal/domain"
)

const orderColumns = `id, client_id, status, sub_total, tier_discount, promo_discount, discount, tax, total, promo_code, created_at, updated_at`

// OrderRepository реализует domain.OrderRepository.
// Все мутации выполняются в одной транзакции: заказ либо создается
// целиком вместе с резервированием остатков, либо не создается вовсе.
// Переходы статуса сериализуются advisory-блокировкой по ID заказа,
// общей с репозиторием платежей.
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository создает новый OrderRepository
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	var promoCode *string
	err := row.Scan(&o.ID, &o.ClientID, &o.Status, &o.SubTotal, &o.TierDiscount, &o.PromoDiscount,
		&o.Discount, &o.Tax, &o.Total, &promoCode, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if promoCode != nil {
		o.PromoCode = *promoCode
	}
	return o, nil
}

// CreateOrder создает заказ со строками и атомарно резервирует остатки
// по каждой строке. Повтор с тем же idempotency key возвращает ранее
// созданный заказ и domain.ErrOrderExists.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	var created *domain.Order

	err := withRetry(ctx, func() error {
		var txErr error
		created, txErr = r.createOrderTx(ctx, order, idempotencyKey)
		return txErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderExists) && idempotencyKey != "" {
			existing, getErr := r.getByIdempotencyKey(ctx, idempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("repository: failed to load order for idempotency key: %w", getErr)
			}
			return existing, domain.ErrOrderExists
		}
		return nil, err
	}

	return created, nil
}

func (r *OrderRepository) createOrderTx(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}
	var promoCode *string
	if order.PromoCode != "" {
		promoCode = &order.PromoCode
	}

	created := &domain.Order{
		ClientID:      order.ClientID,
		Lines:         order.Lines,
		SubTotal:      order.SubTotal,
		TierDiscount:  order.TierDiscount,
		PromoDiscount: order.PromoDiscount,
		Discount:      order.Discount,
		Tax:           order.Tax,
		Total:         order.Total,
		PromoCode:     order.PromoCode,
		Status:        domain.OrderStatusPending,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (client_id, status, sub_total, tier_discount, promo_discount, discount, tax, total, promo_code, idempotency_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		order.ClientID, domain.OrderStatusPending, order.SubTotal, order.TierDiscount,
		order.PromoDiscount, order.Discount, order.Tax, order.Total, promoCode, key,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrOrderExists
		}
		return nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	// Резервирование остатков: либо все строки, либо ни одной.
	// Условный UPDATE сериализует конкурентные заказы на строке товара;
	// проигравший гонку перечитывает остаток и завершается с ошибкой.
	for _, line := range order.Lines {
		if err := r.reserveLine(ctx, tx, line); err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5)`,
			created.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to insert order line for product %d: %w", line.ProductID, err)
		}
	}

	if order.PromoCode != "" {
		if err := r.recordPromoUsage(ctx, tx, order.PromoCode, order.ClientID, created.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit order creation: %w", err)
	}

	return created, nil
}

// reserveLine уменьшает остаток товара при достаточном количестве
func (r *OrderRepository) reserveLine(ctx context.Context, tx pgx.Tx, line domain.OrderLine) error {
	result, err := tx.Exec(ctx,
		`UPDATE products
		 SET stock = stock - $1, updated_at = now()
		 WHERE id = $2 AND deleted = FALSE AND stock >= $1`,
		line.Quantity, line.ProductID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to reserve stock for product %d: %w", line.ProductID, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Выясняем причину: товар отсутствует, удален или не хватает остатка
	var deleted bool
	var stock int32
	err = tx.QueryRow(ctx,
		`SELECT deleted, stock FROM products WHERE id = $1`,
		line.ProductID,
	).Scan(&deleted, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("repository: failed to check product %d: %w", line.ProductID, err)
	}
	if deleted {
		return domain.NewValidationError("productId", fmt.Sprintf("product %d is deleted", line.ProductID))
	}
	return domain.ErrInsufficientStock
}

// recordPromoUsage фиксирует применение промокода. Для одноразовых кодов
// строка реестра блокируется, чтобы конкурентные заказы одного клиента
// не применили код дважды.
func (r *OrderRepository) recordPromoUsage(ctx context.Context, tx pgx.Tx, code string, clientID, orderID int64) error {
	var singleUse bool
	err := tx.QueryRow(ctx,
		`SELECT single_use FROM promo_codes WHERE code = $1 FOR UPDATE`,
		code,
	).Scan(&singleUse)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPromoNotFound
		}
		return fmt.Errorf("repository: failed to lock promo code %q: %w", code, err)
	}

	if singleUse {
		var used bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM promo_usages
				WHERE code = $1 AND client_id = $2
			 )`,
			code, clientID,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("repository: failed to check promo usage %q: %w", code, err)
		}
		if used {
			return domain.NewValidationError("promoCode", fmt.Sprintf("promo code already used by this client: %s", code))
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO promo_usages (code, client_id, order_id)
		 VALUES ($1, $2, $3)`,
		code, clientID, orderID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to record promo usage %q: %w", code, err)
	}

	return nil
}

func (r *OrderRepository) getByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE idempotency_key = $1`,
		key,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// GetByID получает заказ со строками
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to get order %d: %w", id, err)
	}

	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// List получает все заказы со строками
func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 ORDER BY created_at DESC`,
	)
}

// ListByClient получает все заказы клиента
func (r *OrderRepository) ListByClient(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE client_id = $1
		 ORDER BY created_at DESC`,
		clientID,
	)
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := r.db.Query(ctx,
		`SELECT order_id, product_id, product_name, quantity, unit_price
		 FROM order_lines
		 WHERE order_id = ANY($1)
		 ORDER BY id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var line domain.OrderLine
		err := rows.Scan(&orderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order lines: %w", err)
	}

	return nil
}

// ConfirmOrder выполняет переход PENDING -> CONFIRMED. Переход разрешен
// только при нулевом непогашенном остатке: total за вычетом суммы
// инкассированных платежей. Чтение остатка и запись статуса выполняются
// под advisory-блокировкой заказа, агрегаты клиента обновляются ровно
// один раз в той же транзакции.
func (r *OrderRepository) ConfirmOrder(ctx context.Context, id int64) (*domain.Order, error) {
	err := withRetry(ctx, func() error {
		return r.confirmOrderTx(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) confirmOrderTx(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, id); err != nil {
		return fmt.Errorf("repository: failed to acquire lock for order %d: %w", id, err)
	}

	var clientID int64
	var status domain.OrderStatus
	var total int64
	err = tx.QueryRow(ctx,
		`SELECT client_id, status, total FROM orders WHERE id = $1`,
		id,
	).Scan(&clientID, &status, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("repository: failed to get order %d: %w", id, err)
	}

	if status != domain.OrderStatusPending {
		return domain.NewOrderTransitionError(status, domain.OrderStatusConfirmed)
	}

	var cleared int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)
		 FROM payments
		 WHERE order_id = $1 AND status = $2`,
		id, domain.PaymentStatusCleared,
	).Scan(&cleared)
	if err != nil {
		return fmt.Errorf("repository: failed to sum cleared payments for order %d: %w", id, err)
	}

	if total-cleared > 0 {
		return domain.ErrOutstandingBalance
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
		domain.OrderStatusConfirmed, id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to confirm order %d: %w", id, err)
	}

	// Агрегаты клиента - производные значения; обновляются только здесь,
	// атомарно со сменой статуса, чтобы повтор запроса не задвоил суммы
	_, err = tx.Exec(ctx,
		`UPDATE clients
		 SET total_spent = total_spent + $1,
		     total_orders = total_orders + 1,
		     first_order_at = COALESCE(first_order_at, now()),
		     last_order_at = now()
		 WHERE id = $2`,
		total, clientID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update client %d aggregates: %w", clientID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit order confirmation: %w", err)
	}

	return nil
}

// CancelOrder выполняет переход PENDING -> CANCELED или PENDING -> REJECTED:
// возвращает зарезервированные остатки и аннулирует неинкассированные
// платежи, все в одной транзакции.
func (r *OrderRepository) CancelOrder(ctx context.Context, id int64, target domain.OrderStatus) (*domain.Order, error) {
	if target != domain.OrderStatusCanceled && target != domain.OrderStatusRejected {
		return nil, fmt.Errorf("repository: unsupported cancel target status %q", target)
	}

	err := withRetry(ctx, func() error {
		return r.cancelOrderTx(ctx, id, target)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) cancelOrderTx(ctx context.Context, id int64, target domain.OrderStatus) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Rollback после Commit безопасен

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, id); err != nil {
		return fmt.Errorf("repository: failed to acquire lock for order %d: %w", id, err)
	}

	var status domain.OrderStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1`,
		id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("repository: failed to get order %d: %w", id, err)
	}

	if status != domain.OrderStatusPending {
		return domain.NewOrderTransitionError(status, target)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
		target, id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %d status: %w", id, err)
	}

	// Возврат остатков до уровня перед заказом
	_, err = tx.Exec(ctx,
		`UPDATE products p
		 SET stock = p.stock + l.qty, updated_at = now()
		 FROM (
			SELECT product_id, SUM(quantity) AS qty
			FROM order_lines
			WHERE order_id = $1
			GROUP BY product_id
		 ) l
		 WHERE p.id = l.product_id`,
		id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to release stock for order %d: %w", id, err)
	}

	// Неинкассированные платежи аннулируются: их нельзя инкассировать
	// против отмененного заказа
	_, err = tx.Exec(ctx,
		`UPDATE payments SET status = $1 WHERE order_id = $2 AND status = $3`,
		domain.PaymentStatusRejected, id, domain.PaymentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to void pending payments for order %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit order cancellation: %w", err)
	}

	return nil
}

// ListExpiredPending возвращает ID заказов в статусе PENDING, созданных
// раньше заданного момента. Используется фоновым обработчиком отклонения
// просроченных заказов.
func (r *OrderRepository) ListExpiredPending(ctx context.Context, before time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id
		 FROM orders
		 WHERE status = $1 AND created_at < $2
		 ORDER BY created_at ASC`,
		domain.OrderStatusPending, before,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list expired orders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating expired orders: %w", err)
	}

	return ids, nil
}
