package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// Ручные моки репозиториев для тестов сервисного слоя

type orderRepoMock struct {
	mock.Mock
}

func (m *orderRepoMock) CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	args := m.Called(ctx, order, idempotencyKey)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) List(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).([]*domain.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) ListByClient(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	args := m.Called(ctx, clientID)
	o, _ := args.Get(0).([]*domain.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) ConfirmOrder(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) CancelOrder(ctx context.Context, id int64, target domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, target)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) ListExpiredPending(ctx context.Context, before time.Time) ([]int64, error) {
	args := m.Called(ctx, before)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

type productRepoMock struct {
	mock.Mock
}

func (m *productRepoMock) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	r, _ := args.Get(0).(*domain.Product)
	return r, args.Error(1)
}

func (m *productRepoMock) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	r, _ := args.Get(0).(*domain.Product)
	return r, args.Error(1)
}

func (m *productRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *productRepoMock) Restore(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *productRepoMock) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Product)
	return r, args.Error(1)
}

func (m *productRepoMock) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	args := m.Called(ctx, ids)
	r, _ := args.Get(0).([]*domain.Product)
	return r, args.Error(1)
}

func (m *productRepoMock) List(ctx context.Context, includeDeleted bool) ([]*domain.Product, error) {
	args := m.Called(ctx, includeDeleted)
	r, _ := args.Get(0).([]*domain.Product)
	return r, args.Error(1)
}

func (m *productRepoMock) Page(ctx context.Context, q domain.PageQuery) (*domain.ProductPage, error) {
	args := m.Called(ctx, q)
	r, _ := args.Get(0).(*domain.ProductPage)
	return r, args.Error(1)
}

type clientRepoMock struct {
	mock.Mock
}

func (m *clientRepoMock) Create(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	args := m.Called(ctx, c)
	r, _ := args.Get(0).(*domain.Client)
	return r, args.Error(1)
}

func (m *clientRepoMock) Update(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	args := m.Called(ctx, c)
	r, _ := args.Get(0).(*domain.Client)
	return r, args.Error(1)
}

func (m *clientRepoMock) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Client)
	return r, args.Error(1)
}

func (m *clientRepoMock) List(ctx context.Context) ([]*domain.Client, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]*domain.Client)
	return r, args.Error(1)
}

type paymentRepoMock struct {
	mock.Mock
}

func (m *paymentRepoMock) CreatePayment(ctx context.Context, p *domain.Payment, idempotencyKey string) (*domain.Payment, error) {
	args := m.Called(ctx, p, idempotencyKey)
	r, _ := args.Get(0).(*domain.Payment)
	return r, args.Error(1)
}

func (m *paymentRepoMock) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Payment)
	return r, args.Error(1)
}

func (m *paymentRepoMock) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	args := m.Called(ctx, orderID)
	r, _ := args.Get(0).([]*domain.Payment)
	return r, args.Error(1)
}

func (m *paymentRepoMock) EncashPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Payment)
	return r, args.Error(1)
}

func (m *paymentRepoMock) RejectPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Payment)
	return r, args.Error(1)
}

type userRepoMock struct {
	mock.Mock
}

func (m *userRepoMock) CreateUser(ctx context.Context, login, passwordHash string, role domain.UserRole) (*domain.User, error) {
	args := m.Called(ctx, login, passwordHash, role)
	r, _ := args.Get(0).(*domain.User)
	return r, args.Error(1)
}

func (m *userRepoMock) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	args := m.Called(ctx, login)
	r, _ := args.Get(0).(*domain.User)
	return r, args.Error(1)
}

func (m *userRepoMock) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.User)
	return r, args.Error(1)
}

type promoRepoMock struct {
	mock.Mock
}

func (m *promoRepoMock) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(*domain.PromoCode)
	return r, args.Error(1)
}

func (m *promoRepoMock) WasUsedBy(ctx context.Context, code string, clientID int64) (bool, error) {
	args := m.Called(ctx, code, clientID)
	return args.Bool(0), args.Error(1)
}
