package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/money"
	"github.com/avc/commerce-backoffice/internal/service"
)

// Ручные моки сервисных интерфейсов обработчиков

type authServiceMock struct {
	mock.Mock
}

func (m *authServiceMock) Login(ctx context.Context, login, password string) (string, *domain.User, error) {
	args := m.Called(ctx, login, password)
	u, _ := args.Get(1).(*domain.User)
	return args.String(0), u, args.Error(2)
}

func (m *authServiceMock) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

type orderServiceMock struct {
	mock.Mock
}

func (m *orderServiceMock) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderServiceMock) ConfirmOrder(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderServiceMock) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderServiceMock) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *orderServiceMock) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).([]*domain.Order)
	return o, args.Error(1)
}

type paymentServiceMock struct {
	mock.Mock
}

func (m *paymentServiceMock) CreatePayment(ctx context.Context, req service.CreatePaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *paymentServiceMock) EncashPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *paymentServiceMock) RejectPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *paymentServiceMock) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	args := m.Called(ctx, orderID)
	p, _ := args.Get(0).([]*domain.Payment)
	return p, args.Error(1)
}

type productServiceMock struct {
	mock.Mock
}

func (m *productServiceMock) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	r, _ := args.Get(0).(*domain.Product)
	return r, args.Error(1)
}

func (m *productServiceMock) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	r, _ := args.Get(0).(*domain.Product)
	return r, args.Error(1)
}

func (m *productServiceMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *productServiceMock) Restore(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *productServiceMock) List(ctx context.Context, includeDeleted bool) ([]*domain.Product, error) {
	args := m.Called(ctx, includeDeleted)
	r, _ := args.Get(0).([]*domain.Product)
	return r, args.Error(1)
}

func (m *productServiceMock) Page(ctx context.Context, q domain.PageQuery) (*domain.ProductPage, error) {
	args := m.Called(ctx, q)
	r, _ := args.Get(0).(*domain.ProductPage)
	return r, args.Error(1)
}

// withPathParam добавляет chi URL параметр в контекст запроса
func withPathParam(r *http.Request, name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAuthHandler_Login(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("Success sets session cookie", func(t *testing.T) {
		mockService := &authServiceMock{}
		handler := NewAuthHandler(mockService, time.Hour, logger)

		user := &domain.User{ID: 1, Login: "admin", Role: domain.RoleAdmin}
		mockService.On("Login", mock.Anything, "admin", "secret").Return("token", user, nil).Once()

		body := `{"login":"admin","password":"secret"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.Equal(t, "token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("Invalid credentials", func(t *testing.T) {
		mockService := &authServiceMock{}
		handler := NewAuthHandler(mockService, time.Hour, logger)

		mockService.On("Login", mock.Anything, "admin", "wrong").
			Return("", nil, domain.ErrInvalidCredentials).Once()

		body := `{"login":"admin","password":"wrong"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		handler := NewAuthHandler(&authServiceMock{}, time.Hour, logger)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"login":}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Logout expires cookie", func(t *testing.T) {
		handler := NewAuthHandler(&authServiceMock{}, time.Hour, logger)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		w := httptest.NewRecorder()

		handler.Logout(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})
}

func TestOrdersHandler_Create(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("Success passes idempotency key", func(t *testing.T) {
		mockService := &orderServiceMock{}
		handler := NewOrdersHandler(mockService, logger)

		order := &domain.Order{ID: 42, Status: domain.OrderStatusPending, Total: money.FromCents(140400)}
		mockService.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req service.CreateOrderRequest) bool {
			return req.ClientID == 10 && req.IdempotencyKey == "key-1" && len(req.Items) == 1
		})).Return(order, nil).Once()

		body := `{"clientId":10,"items":[{"productId":1,"quantity":2}]}`
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		w := httptest.NewRecorder()

		handler.Create(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var got domain.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, int64(42), got.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("Insufficient stock maps to conflict", func(t *testing.T) {
		mockService := &orderServiceMock{}
		handler := NewOrdersHandler(mockService, logger)

		mockService.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, domain.ErrInsufficientStock).Once()

		body := `{"clientId":10,"items":[{"productId":1,"quantity":2}]}`
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		handler.Create(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Validation error maps to bad request", func(t *testing.T) {
		mockService := &orderServiceMock{}
		handler := NewOrdersHandler(mockService, logger)

		mockService.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, domain.NewValidationError("items", "order must contain at least one line")).Once()

		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"clientId":10}`))
		w := httptest.NewRecorder()

		handler.Create(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrdersHandler_Lifecycle(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("Validate success", func(t *testing.T) {
		mockService := &orderServiceMock{}
		handler := NewOrdersHandler(mockService, logger)

		confirmed := &domain.Order{ID: 1, Status: domain.OrderStatusConfirmed}
		mockService.On("ConfirmOrder", mock.Anything, int64(1)).Return(confirmed, nil).Once()

		req := withPathParam(httptest.NewRequest(http.MethodPut, "/orders/1/validate", nil), "id", "1")
		w := httptest.NewRecorder()

		handler.Validate(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Validate with outstanding balance", func(t *testing.T) {
		mockService := &orderServiceMock{}
		handler := NewOrdersHandler(mockService, logger)

		mockService.On("ConfirmOrder", mock.Anything, int64(1)).
			Return(nil, domain.ErrOutstandingBalance).Once()

		req := withPathParam(httptest.NewRequest(http.MethodPut, "/orders/1/validate", nil), "id", "1")
		w := httptest.NewRecorder()

		handler.Validate(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Cancel already terminal", func(t *testing.T) {
		mockService := &orderServiceMock{}
		handler := NewOrdersHandler(mockService, logger)

		mockService.On("CancelOrder", mock.Anything, int64(1)).
			Return(nil, domain.NewOrderTransitionError(domain.OrderStatusConfirmed, domain.OrderStatusCanceled)).Once()

		req := withPathParam(httptest.NewRequest(http.MethodPut, "/orders/1/cancel", nil), "id", "1")
		w := httptest.NewRecorder()

		handler.Cancel(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Get not found", func(t *testing.T) {
		mockService := &orderServiceMock{}
		handler := NewOrdersHandler(mockService, logger)

		mockService.On("GetOrder", mock.Anything, int64(9)).Return(nil, domain.ErrOrderNotFound).Once()

		req := withPathParam(httptest.NewRequest(http.MethodGet, "/orders/9", nil), "id", "9")
		w := httptest.NewRecorder()

		handler.Get(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Bad ID", func(t *testing.T) {
		handler := NewOrdersHandler(&orderServiceMock{}, logger)

		req := withPathParam(httptest.NewRequest(http.MethodGet, "/orders/abc", nil), "id", "abc")
		w := httptest.NewRecorder()

		handler.Get(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentsHandler(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("Create success", func(t *testing.T) {
		mockService := &paymentServiceMock{}
		handler := NewPaymentsHandler(mockService, logger)

		payment := &domain.Payment{ID: 1, OrderID: 5, Number: 1, Status: domain.PaymentStatusPending}
		mockService.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req service.CreatePaymentRequest) bool {
			return req.OrderID == 5 && req.Method == domain.PaymentMethodCash && req.IdempotencyKey == "pk-1"
		})).Return(payment, nil).Once()

		body := `{"orderId":5,"amount":100.00,"paymentMethod":"CASH"}`
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
		req.Header.Set(IdempotencyKeyHeader, "pk-1")
		w := httptest.NewRecorder()

		handler.Create(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Missing cheque fields", func(t *testing.T) {
		mockService := &paymentServiceMock{}
		handler := NewPaymentsHandler(mockService, logger)

		mockService.On("CreatePayment", mock.Anything, mock.Anything).
			Return(nil, domain.NewValidationError("bank", "bank is required for cheque payments")).Once()

		body := `{"orderId":5,"amount":100.00,"paymentMethod":"CHEQUE"}`
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		handler.Create(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Encash already cleared", func(t *testing.T) {
		mockService := &paymentServiceMock{}
		handler := NewPaymentsHandler(mockService, logger)

		mockService.On("EncashPayment", mock.Anything, int64(1)).
			Return(nil, domain.NewPaymentTransitionError(domain.PaymentStatusCleared, domain.PaymentStatusCleared)).Once()

		req := withPathParam(httptest.NewRequest(http.MethodPut, "/payments/1/encash", nil), "id", "1")
		w := httptest.NewRecorder()

		handler.Encash(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("List by order", func(t *testing.T) {
		mockService := &paymentServiceMock{}
		handler := NewPaymentsHandler(mockService, logger)

		payments := []*domain.Payment{{ID: 1, Number: 1}, {ID: 2, Number: 2}}
		mockService.On("ListByOrder", mock.Anything, int64(5)).Return(payments, nil).Once()

		req := withPathParam(httptest.NewRequest(http.MethodGet, "/payments/order/5", nil), "orderId", "5")
		w := httptest.NewRecorder()

		handler.ListByOrder(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		var got []*domain.Payment
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Len(t, got, 2)
	})
}

func TestProductsHandler_Page(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("Query parameters forwarded", func(t *testing.T) {
		mockService := &productServiceMock{}
		handler := NewProductsHandler(mockService, logger)

		page := &domain.ProductPage{
			Content:       []*domain.Product{{ID: 1, Name: "Widget"}},
			TotalElements: 1,
			TotalPages:    1,
			Size:          20,
			First:         true,
			Last:          true,
		}
		mockService.On("Page", mock.Anything, domain.PageQuery{
			Page:    2,
			Size:    50,
			SortBy:  "name",
			SortDir: "desc",
		}).Return(page, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/products/page?page=2&size=50&sortBy=name&sortDir=desc", nil)
		w := httptest.NewRecorder()

		handler.Page(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		var got domain.ProductPage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, int64(1), got.TotalElements)
		assert.True(t, got.First)
		mockService.AssertExpectations(t)
	})

	t.Run("Create validation error", func(t *testing.T) {
		mockService := &productServiceMock{}
		handler := NewProductsHandler(mockService, logger)

		mockService.On("Create", mock.Anything, mock.Anything).
			Return(nil, domain.NewValidationError("name", "name is required")).Once()

		req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(`{"unitPrice":10.00}`))
		w := httptest.NewRecorder()

		handler.Create(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
