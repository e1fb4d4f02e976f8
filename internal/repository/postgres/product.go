package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avc/commerce-backoffice/internal/domain"
)

const productColumns = `id, name, unit_price, stock, deleted, created_at, updated_at`

// Белый список колонок сортировки для постраничной выборки.
// Значения приходят из query-параметра и не могут попадать в SQL напрямую.
var productSortColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"unitPrice": "unit_price",
	"stock":     "stock",
	"createdAt": "created_at",
}

// ProductRepository реализует domain.ProductRepository
type ProductRepository struct {
	db DBTX
}

// NewProductRepository создает новый ProductRepository
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.Stock, &p.Deleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create создает новый товар
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	created, err := scanProduct(r.db.QueryRow(ctx,
		`INSERT INTO products (name, unit_price, stock)
		 VALUES ($1, $2, $3)
		 RETURNING `+productColumns,
		p.Name, p.UnitPrice, p.Stock,
	))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create product %q: %w", p.Name, err)
	}

	return created, nil
}

// Update обновляет имя, цену и остаток товара. Цены уже размещенных
// заказов не меняются: они зафиксированы в order_lines.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	updated, err := scanProduct(r.db.QueryRow(ctx,
		`UPDATE products
		 SET name = $1, unit_price = $2, stock = $3, updated_at = now()
		 WHERE id = $4
		 RETURNING `+productColumns,
		p.Name, p.UnitPrice, p.Stock, p.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to update product %d: %w", p.ID, err)
	}

	return updated, nil
}

// SoftDelete помечает товар удаленным. Товар исключается из новых
// заказов, но остается для отображения исторических строк заказов.
func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE products
		 SET deleted = TRUE, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// Restore снимает пометку удаления с товара
func (r *ProductRepository) Restore(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE products
		 SET deleted = FALSE, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to restore product %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// GetByID получает товар по ID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to get product %d: %w", id, err)
	}

	return p, nil
}

// GetByIDs получает товары по списку ID одним запросом
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to get products by ids: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

// List получает все товары
func (r *ProductRepository) List(ctx context.Context, includeDeleted bool) ([]*domain.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE deleted = FALSE OR $1
		 ORDER BY id`,
		includeDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

// Page получает страницу товаров в конверте, ожидаемом фронтендом
func (r *ProductRepository) Page(ctx context.Context, q domain.PageQuery) (*domain.ProductPage, error) {
	sortColumn, ok := productSortColumns[q.SortBy]
	if !ok {
		sortColumn = "id"
	}
	direction := "ASC"
	if q.SortDir == "desc" {
		direction = "DESC"
	}

	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE deleted = FALSE OR $1`,
		q.IncludeDeleted,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to count products: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE deleted = FALSE OR $1
		 ORDER BY `+sortColumn+` `+direction+`
		 LIMIT $2 OFFSET $3`,
		q.IncludeDeleted, q.Size, q.Page*q.Size,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query product page: %w", err)
	}
	defer rows.Close()

	content := make([]*domain.Product, 0, q.Size)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		content = append(content, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating product page: %w", err)
	}

	totalPages := int((total + int64(q.Size) - 1) / int64(q.Size))

	return &domain.ProductPage{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Number:        q.Page,
		Size:          q.Size,
		First:         q.Page == 0,
		Last:          q.Page >= totalPages-1,
		Empty:         len(content) == 0,
	}, nil
}
