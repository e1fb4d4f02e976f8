package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avc/commerce-backoffice/internal/domain"
)

const clientColumns = `id, name, email, tier, total_spent, total_orders, first_order_at, last_order_at, created_at`

// ClientRepository реализует domain.ClientRepository
type ClientRepository struct {
	db DBTX
}

// NewClientRepository создает новый ClientRepository
func NewClientRepository(db DBTX) *ClientRepository {
	return &ClientRepository{db: db}
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	c := &domain.Client{}
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Tier, &c.TotalSpent, &c.TotalOrders,
		&c.FirstOrderAt, &c.LastOrderAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create создает нового клиента. Агрегаты заполняются нулями:
// они пересчитываются только при подтверждении заказов.
func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	created, err := scanClient(r.db.QueryRow(ctx,
		`INSERT INTO clients (name, email, tier)
		 VALUES ($1, $2, $3)
		 RETURNING `+clientColumns,
		c.Name, c.Email, c.Tier,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrClientExists
		}
		return nil, fmt.Errorf("repository: failed to create client %q: %w", c.Email, err)
	}

	return created, nil
}

// Update обновляет имя, email и уровень клиента. Агрегаты намеренно
// не принимаются: их меняет только транзакция подтверждения заказа.
func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	updated, err := scanClient(r.db.QueryRow(ctx,
		`UPDATE clients
		 SET name = $1, email = $2, tier = $3
		 WHERE id = $4
		 RETURNING `+clientColumns,
		c.Name, c.Email, c.Tier, c.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrClientExists
		}
		return nil, fmt.Errorf("repository: failed to update client %d: %w", c.ID, err)
	}

	return updated, nil
}

// GetByID получает клиента по ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx,
		`SELECT `+clientColumns+`
		 FROM clients
		 WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("repository: failed to get client %d: %w", id, err)
	}

	return c, nil
}

// List получает всех клиентов
func (r *ClientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+clientColumns+`
		 FROM clients
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating clients: %w", err)
	}

	return clients, nil
}
