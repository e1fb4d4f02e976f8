package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// PromoRepository реализует domain.PromoRepository
type PromoRepository struct {
	db DBTX
}

// NewPromoRepository создает новый PromoRepository
func NewPromoRepository(db DBTX) *PromoRepository {
	return &PromoRepository{db: db}
}

// GetByCode получает запись реестра промокодов
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	p := &domain.PromoCode{}

	err := r.db.QueryRow(ctx,
		`SELECT code, active, single_use, created_at
		 FROM promo_codes
		 WHERE code = $1`,
		code,
	).Scan(&p.Code, &p.Active, &p.SingleUse, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, fmt.Errorf("repository: failed to get promo code %q: %w", code, err)
	}

	return p, nil
}

// WasUsedBy проверяет, использовал ли клиент данный промокод
func (r *PromoRepository) WasUsedBy(ctx context.Context, code string, clientID int64) (bool, error) {
	var used bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM promo_usages
			WHERE code = $1 AND client_id = $2
		 )`,
		code, clientID,
	).Scan(&used)

	if err != nil {
		return false, fmt.Errorf("repository: failed to check promo usage %q: %w", code, err)
	}

	return used, nil
}
