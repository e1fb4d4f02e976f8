package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/domain"
)

type expiryServiceMock struct {
	mock.Mock
}

func (m *expiryServiceMock) ListExpiredPending(ctx context.Context, before time.Time) ([]int64, error) {
	args := m.Called(ctx, before)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *expiryServiceMock) RejectOrder(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func TestPool_ExpireOrder(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	ctx := context.Background()

	t.Run("Rejects expired order", func(t *testing.T) {
		orders := &expiryServiceMock{}
		pool := NewPool(1, 10, orders, time.Hour, time.Second, logger)

		rejected := &domain.Order{ID: 1, Status: domain.OrderStatusRejected}
		orders.On("RejectOrder", mock.Anything, int64(1)).Return(rejected, nil).Once()

		pool.expireOrder(ctx, 1)
		orders.AssertExpectations(t)
	})

	t.Run("Order confirmed between scan and processing", func(t *testing.T) {
		orders := &expiryServiceMock{}
		pool := NewPool(1, 10, orders, time.Hour, time.Second, logger)

		orders.On("RejectOrder", mock.Anything, int64(1)).
			Return(nil, domain.NewOrderTransitionError(domain.OrderStatusConfirmed, domain.OrderStatusRejected)).Once()

		// Не должно паниковать и не должно повторять попытку
		pool.expireOrder(ctx, 1)
		orders.AssertExpectations(t)
	})

	t.Run("Unexpected error is logged and skipped", func(t *testing.T) {
		orders := &expiryServiceMock{}
		pool := NewPool(1, 10, orders, time.Hour, time.Second, logger)

		orders.On("RejectOrder", mock.Anything, int64(1)).
			Return(nil, errors.New("db error")).Once()

		pool.expireOrder(ctx, 1)
		orders.AssertExpectations(t)
	})
}

func TestPool_ScanExpiredOrders(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	ctx := context.Background()

	t.Run("Queues expired orders", func(t *testing.T) {
		orders := &expiryServiceMock{}
		pool := NewPool(1, 10, orders, time.Hour, time.Second, logger)

		orders.On("ListExpiredPending", mock.Anything, mock.AnythingOfType("time.Time")).
			Return([]int64{7, 8}, nil).Once()

		pool.scanExpiredOrders(ctx)

		select {
		case id := <-pool.queue:
			if id != 7 && id != 8 {
				t.Errorf("unexpected order id in queue: %d", id)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("expected order in queue, got timeout")
		}
	})

	t.Run("Cutoff respects order TTL", func(t *testing.T) {
		orders := &expiryServiceMock{}
		ttl := 30 * time.Minute
		pool := NewPool(1, 10, orders, ttl, time.Second, logger)

		orders.On("ListExpiredPending", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
			expected := time.Now().Add(-ttl)
			diff := before.Sub(expected)
			return diff > -time.Minute && diff < time.Minute
		})).Return([]int64{}, nil).Once()

		pool.scanExpiredOrders(ctx)
		orders.AssertExpectations(t)
	})

	t.Run("Full queue is skipped without blocking", func(t *testing.T) {
		orders := &expiryServiceMock{}
		pool := NewPool(1, 1, orders, time.Hour, time.Second, logger)

		orders.On("ListExpiredPending", mock.Anything, mock.AnythingOfType("time.Time")).
			Return([]int64{1, 2, 3}, nil).Once()

		done := make(chan struct{})
		go func() {
			pool.scanExpiredOrders(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scan blocked on full queue")
		}
	})
}

func TestPool_StartStop(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	orders := &expiryServiceMock{}
	orders.On("ListExpiredPending", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]int64{}, nil).Maybe()

	pool := NewPool(2, 10, orders, time.Hour, 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()
	pool.Stop()
}
