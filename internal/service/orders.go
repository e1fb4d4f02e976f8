package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/pricing"
)

// OrderItemRequest представляет строку запроса на создание заказа
type OrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// CreateOrderRequest представляет запрос на создание заказа.
// Итоговые суммы намеренно отсутствуют: они всегда вычисляются сервером
// и никогда не принимаются от клиента.
type CreateOrderRequest struct {
	ClientID       int64              `json:"clientId"`
	Items          []OrderItemRequest `json:"items"`
	PromoCode      string             `json:"promoCode,omitempty"`
	IdempotencyKey string             `json:"-"`
}

// OrderService оркестрирует создание заказа (расчет стоимости,
// резервирование остатков) и переходы его жизненного цикла
type OrderService struct {
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
	clientRepo  domain.ClientRepository
	engine      *pricing.Engine
}

// NewOrderService создает новый OrderService
func NewOrderService(
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	clientRepo domain.ClientRepository,
	engine *pricing.Engine,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		clientRepo:  clientRepo,
		engine:      engine,
	}
}

// CreateOrder создает заказ: фиксирует цены строк по каталогу,
// вычисляет итоговые суммы и атомарно резервирует остатки.
// Заказ создается в статусе PENDING.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, domain.NewValidationError("items", "order must contain at least one line")
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to get client %d: %w", req.ClientID, err)
	}

	lines, err := s.buildLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	totals, err := s.engine.ComputeTotals(ctx, lines, client.Tier, req.PromoCode, client.ID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ClientID:      client.ID,
		Lines:         lines,
		SubTotal:      totals.SubTotal,
		TierDiscount:  totals.TierDiscount,
		PromoDiscount: totals.PromoDiscount,
		Discount:      totals.TotalDiscount,
		Tax:           totals.Tax,
		Total:         totals.Total,
	}
	// Код сохраняется на заказе только если скидка реально применена
	if totals.PromoDiscount.IsPositive() {
		order.PromoCode = req.PromoCode
	}

	created, err := s.orderRepo.CreateOrder(ctx, order, req.IdempotencyKey)
	if err != nil {
		// Повтор по idempotency key: возвращаем ранее созданный заказ
		if errors.Is(err, domain.ErrOrderExists) && created != nil {
			return created, nil
		}
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to create order: %w", err)
	}

	return created, nil
}

// buildLines собирает строки заказа, фиксируя имя и цену товара
// на момент создания
func (s *OrderService) buildLines(ctx context.Context, items []OrderItemRequest) ([]domain.OrderLine, error) {
	ids := make([]int64, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity",
				fmt.Sprintf("quantity must be positive for product %d", item.ProductID))
		}
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to get products: %w", err)
	}

	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]domain.OrderLine, len(items))
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		if p.Deleted {
			return nil, domain.NewValidationError("productId",
				fmt.Sprintf("product %d is deleted", p.ID))
		}
		// Предварительная проверка остатка; авторитетная проверка
		// выполняется атомарно при резервировании
		if p.Stock < item.Quantity {
			return nil, domain.ErrInsufficientStock
		}
		lines[i] = domain.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   p.UnitPrice,
		}
	}

	return lines, nil
}

// ConfirmOrder подтверждает заказ. Переход разрешен только при
// полностью погашенном остатке.
func (s *OrderService) ConfirmOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.ConfirmOrder(ctx, id)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to confirm order %d: %w", id, err)
	}

	return order, nil
}

// CancelOrder отменяет заказ, возвращая остатки и аннулируя
// неинкассированные платежи
func (s *OrderService) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.CancelOrder(ctx, id, domain.OrderStatusCanceled)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to cancel order %d: %w", id, err)
	}

	return order, nil
}

// RejectOrder отклоняет заказ (системный переход: просрочка или
// недоступность остатков)
func (s *OrderService) RejectOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.CancelOrder(ctx, id, domain.OrderStatusRejected)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to reject order %d: %w", id, err)
	}

	return order, nil
}

// GetOrder получает заказ по ID
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("order service: failed to get order %d: %w", id, err)
	}

	return order, nil
}

// ListOrders получает все заказы
func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to list orders: %w", err)
	}
	return orders, nil
}

// ListExpiredPending возвращает ID просроченных PENDING заказов
// для фонового обработчика
func (s *OrderService) ListExpiredPending(ctx context.Context, before time.Time) ([]int64, error) {
	ids, err := s.orderRepo.ListExpiredPending(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("order service: failed to list expired orders: %w", err)
	}
	return ids, nil
}
