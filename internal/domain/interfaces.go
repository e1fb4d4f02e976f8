package domain

import (
	"context"
	"time"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	CreateUser(ctx context.Context, login, passwordHash string, role UserRole) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// ProductRepository определяет методы для работы с каталогом товаров
type ProductRepository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*Product, error)
	List(ctx context.Context, includeDeleted bool) ([]*Product, error)
	Page(ctx context.Context, q PageQuery) (*ProductPage, error)
}

// ClientRepository определяет методы для работы с клиентами
type ClientRepository interface {
	Create(ctx context.Context, c *Client) (*Client, error)
	Update(ctx context.Context, c *Client) (*Client, error)
	GetByID(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context) ([]*Client, error)
}

// PromoRepository определяет методы для работы с реестром промокодов
type PromoRepository interface {
	GetByCode(ctx context.Context, code string) (*PromoCode, error)
	WasUsedBy(ctx context.Context, code string, clientID int64) (bool, error)
}

// OrderRepository определяет методы для работы с заказами.
// CreateOrder атомарно резервирует остатки по всем строкам заказа;
// ConfirmOrder/CancelOrder сериализуются по заказу и выполняют переход
// статуса вместе со связанной бухгалтерией в одной транзакции.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order, idempotencyKey string) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByClient(ctx context.Context, clientID int64) ([]*Order, error)
	ConfirmOrder(ctx context.Context, id int64) (*Order, error)
	CancelOrder(ctx context.Context, id int64, target OrderStatus) (*Order, error)
	ListExpiredPending(ctx context.Context, before time.Time) ([]int64, error)
}

// PaymentRepository определяет методы для работы с платежами
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *Payment, idempotencyKey string) (*Payment, error)
	GetByID(ctx context.Context, id int64) (*Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*Payment, error)
	EncashPayment(ctx context.Context, id int64) (*Payment, error)
	RejectPayment(ctx context.Context, id int64) (*Payment, error)
}
