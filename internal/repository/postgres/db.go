package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// DBTX объединяет операции pgxpool.Pool, нужные репозиториям.
// Интерфейс позволяет подменять пул в тестах (pgxmock).
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	// Код ошибки PostgreSQL: нарушение уникальности
	pgUniqueViolation = "23505"

	maxRetries   = 3
	retryBackoff = 50 * time.Millisecond
)

// isUniqueViolation проверяет нарушение unique constraint
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isTransient проверяет, является ли ошибка транзитным конфликтом,
// который имеет смысл повторить: serialization failure, deadlock,
// недоступность блокировки. Ошибки бизнес-правил не повторяются.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

// withRetry выполняет fn с ограниченным числом повторов на транзитных
// конфликтах БД. После исчерпания повторов возвращается
// domain.ErrConcurrencyConflict, чтобы вызывающая сторона могла
// повторить запрос целиком.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}
	return domain.ErrConcurrencyConflict
}
