package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/domain"
)

// ExpiryService определяет операции, нужные пулу для отклонения
// просроченных заказов
type ExpiryService interface {
	ListExpiredPending(ctx context.Context, before time.Time) ([]int64, error)
	RejectOrder(ctx context.Context, id int64) (*domain.Order, error)
}

// Pool представляет пул воркеров, отклоняющих просроченные
// PENDING заказы. Отклонение возвращает остатки на склад и
// аннулирует неинкассированные платежи.
type Pool struct {
	workers      int
	queue        chan int64
	orders       ExpiryService
	orderTTL     time.Duration
	scanInterval time.Duration
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewPool создает новый worker pool
func NewPool(
	workers int,
	queueSize int,
	orders ExpiryService,
	orderTTL time.Duration,
	scanInterval time.Duration,
	logger *zap.Logger,
) *Pool {
	return &Pool{
		workers:      workers,
		queue:        make(chan int64, queueSize),
		orders:       orders,
		orderTTL:     orderTTL,
		scanInterval: scanInterval,
		logger:       logger,
	}
}

// Start запускает worker pool
func (p *Pool) Start(ctx context.Context) {
	// Запускаем воркеры
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	// Запускаем сканер просроченных заказов
	p.wg.Add(1)
	go p.scanner(ctx)
}

// Stop останавливает worker pool
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}

// worker обрабатывает заказы из очереди
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Info("worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping", zap.Int("worker_id", id))
			return
		case orderID, ok := <-p.queue:
			if !ok {
				return
			}
			p.expireOrder(ctx, orderID)
		}
	}
}

// scanner периодически сканирует просроченные PENDING заказы
func (p *Pool) scanner(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("scanner stopping")
			return
		case <-ticker.C:
			p.scanExpiredOrders(ctx)
		}
	}
}

// scanExpiredOrders сканирует и отправляет просроченные заказы в очередь
func (p *Pool) scanExpiredOrders(ctx context.Context) {
	before := time.Now().Add(-p.orderTTL)

	ids, err := p.orders.ListExpiredPending(ctx, before)
	if err != nil {
		p.logger.Error("failed to list expired orders", zap.Error(err))
		return
	}

	for _, id := range ids {
		select {
		case p.queue <- id:
			// Успешно добавлено в очередь
		case <-ctx.Done():
			return
		default:
			// Очередь заполнена, пропускаем
			p.logger.Warn("queue is full, skipping order", zap.Int64("order_id", id))
		}
	}
}

// expireOrder отклоняет один просроченный заказ
func (p *Pool) expireOrder(ctx context.Context, orderID int64) {
	p.logger.Debug("expiring order", zap.Int64("order_id", orderID))

	if _, err := p.orders.RejectOrder(ctx, orderID); err != nil {
		// Заказ мог быть подтвержден или отменен между сканом
		// и обработкой
		var se *domain.StateTransitionError
		if errors.As(err, &se) || errors.Is(err, domain.ErrOrderNotFound) {
			p.logger.Debug("order no longer pending, skipping",
				zap.Int64("order_id", orderID),
			)
			return
		}

		p.logger.Error("failed to reject expired order",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("expired order rejected", zap.Int64("order_id", orderID))
}
