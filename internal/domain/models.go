package domain

import (
	"time"

	"github.com/avc/commerce-backoffice/internal/money"
)

// ClientTier представляет уровень лояльности клиента
type ClientTier string

const (
	TierBasic    ClientTier = "BASIC"
	TierSilver   ClientTier = "SILVER"
	TierGold     ClientTier = "GOLD"
	TierPlatinum ClientTier = "PLATINUM"
)

// Valid проверяет, что значение принадлежит множеству уровней
func (t ClientTier) Valid() bool {
	switch t {
	case TierBasic, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// Valid проверяет значение статуса
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCanceled, OrderStatusRejected:
		return true
	}
	return false
}

// Terminal сообщает, является ли статус конечным
func (s OrderStatus) Terminal() bool {
	return s != OrderStatusPending
}

// PaymentStatus представляет статус платежа
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCleared  PaymentStatus = "CLEARED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

// Valid проверяет значение статуса
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCleared, PaymentStatusRejected:
		return true
	}
	return false
}

// PaymentMethod представляет способ оплаты
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCheque   PaymentMethod = "CHEQUE"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

// Valid проверяет значение способа оплаты
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheque, PaymentMethodTransfer:
		return true
	}
	return false
}

// UserRole представляет роль пользователя админ-панели
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// User представляет пользователя админ-панели
type User struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"` // Не отправляем хеш в JSON
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product представляет товар каталога
type Product struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unitPrice"`
	Stock     int32       `json:"stock"`
	Deleted   bool        `json:"deleted"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Client представляет клиента. Агрегаты TotalSpent/TotalOrders/First/LastOrderAt
// являются производными: они пересчитываются только при подтверждении заказа
// и никогда не принимаются извне.
type Client struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Tier         ClientTier  `json:"tier"`
	TotalSpent   money.Money `json:"totalSpent"`
	TotalOrders  int64       `json:"totalOrders"`
	FirstOrderAt *time.Time  `json:"firstOrderDate,omitempty"`
	LastOrderAt  *time.Time  `json:"lastOrderDate,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// OrderLine представляет строку заказа. Цена фиксируется в момент
// создания заказа и не меняется при изменении цены в каталоге.
type OrderLine struct {
	ProductID   int64       `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int32       `json:"quantity"`
	UnitPrice   money.Money `json:"unitPrice"`
}

// Order представляет заказ. Все денежные поля вычисляются сервером,
// инвариант: Total = (SubTotal - Discount) + Tax, Total >= 0.
type Order struct {
	ID            int64       `json:"id"`
	ClientID      int64       `json:"clientId"`
	Lines         []OrderLine `json:"items"`
	SubTotal      money.Money `json:"subTotal"`
	TierDiscount  money.Money `json:"tierDiscount"`
	PromoDiscount money.Money `json:"promoDiscount"`
	Discount      money.Money `json:"discount"`
	Tax           money.Money `json:"tax"`
	Total         money.Money `json:"total"`
	PromoCode     string      `json:"promoCode,omitempty"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Payment представляет платеж по заказу. Number назначается
// последовательно в рамках заказа начиная с 1 и не переиспользуется.
type Payment struct {
	ID           int64         `json:"id"`
	OrderID      int64         `json:"orderId"`
	Number       int32         `json:"paymentNumber"`
	Amount       money.Money   `json:"amount"`
	Method       PaymentMethod `json:"paymentMethod"`
	Status       PaymentStatus `json:"status"`
	Reference    string        `json:"reference,omitempty"`
	Bank         *string       `json:"bank,omitempty"`
	ChequeNumber *string       `json:"chequeNumber,omitempty"`
	DueDate      *time.Time    `json:"dueDate,omitempty"`
	EncashedAt   *time.Time    `json:"encashedAt,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// PromoCode представляет запись реестра промокодов
type PromoCode struct {
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	SingleUse bool      `json:"singleUse"`
	CreatedAt time.Time `json:"createdAt"`
}

// PageQuery описывает параметры постраничной выборки
type PageQuery struct {
	Page           int
	Size           int
	SortBy         string
	SortDir        string
	IncludeDeleted bool
}

// ProductPage представляет страницу товаров в формате,
// ожидаемом таблицей фронтенда
type ProductPage struct {
	Content       []*Product `json:"content"`
	TotalElements int64      `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	Number        int        `json:"number"`
	Size          int        `json:"size"`
	First         bool       `json:"first"`
	Last          bool       `json:"last"`
	Empty         bool       `json:"empty"`
}
