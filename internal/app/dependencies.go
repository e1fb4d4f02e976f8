package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/config"
	"github.com/avc/commerce-backoffice/internal/domain"
	"github.com/avc/commerce-backoffice/internal/handlers"
	"github.com/avc/commerce-backoffice/internal/money"
	"github.com/avc/commerce-backoffice/internal/pricing"
	"github.com/avc/commerce-backoffice/internal/repository/postgres"
	"github.com/avc/commerce-backoffice/internal/service"
	"github.com/avc/commerce-backoffice/internal/utils/jwt"
	"github.com/avc/commerce-backoffice/internal/utils/password"
	"github.com/avc/commerce-backoffice/internal/worker"
)

// repositories содержит все репозитории приложения
type repositories struct {
	user    domain.UserRepository
	product domain.ProductRepository
	client  domain.ClientRepository
	promo   domain.PromoRepository
	order   domain.OrderRepository
	payment domain.PaymentRepository
}

// services содержит все сервисы приложения
type services struct {
	auth    *service.AuthService
	product *service.ProductService
	client  *service.ClientService
	order   *service.OrderService
	payment *service.PaymentService
}

// handlerSet содержит все хендлеры приложения
type handlerSet struct {
	auth     *handlers.AuthHandler
	products *handlers.ProductsHandler
	clients  *handlers.ClientsHandler
	orders   *handlers.OrdersHandler
	payments *handlers.PaymentsHandler
	health   *handlers.HealthHandler
}

// dependencies содержит все зависимости приложения
type dependencies struct {
	repos      *repositories
	services   *services
	handlers   *handlerSet
	jwtManager *jwt.Manager
	workerPool *worker.Pool
}

// initDependencies создает все зависимости приложения
func initDependencies(cfg *config.Config, dbPool *pgxpool.Pool, logger *zap.Logger) *dependencies {
	// Создание репозиториев
	repos := &repositories{
		user:    postgres.NewUserRepository(dbPool),
		product: postgres.NewProductRepository(dbPool),
		client:  postgres.NewClientRepository(dbPool),
		promo:   postgres.NewPromoRepository(dbPool),
		order:   postgres.NewOrderRepository(dbPool),
		payment: postgres.NewPaymentRepository(dbPool),
	}

	// Создание утилит
	passwordHasher := password.NewBCryptHasher(password.DefaultCost)
	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTTokenTTL)

	// Ценовой движок
	engine := pricing.NewEngine(pricing.Config{
		TaxRate:     money.BasisPoints(cfg.TaxRateBP),
		PromoRate:   money.BasisPoints(cfg.PromoRateBP),
		StrictPromo: cfg.StrictPromo,
	}, repos.promo)

	// Создание сервисов
	svcs := &services{
		auth:    service.NewAuthService(repos.user, passwordHasher, jwtManager),
		product: service.NewProductService(repos.product),
		client:  service.NewClientService(repos.client, repos.order),
		order:   service.NewOrderService(repos.order, repos.product, repos.client, engine),
		payment: service.NewPaymentService(repos.payment),
	}

	// Создание handlers
	hdlrs := &handlerSet{
		auth:     handlers.NewAuthHandler(svcs.auth, jwtManager.TTL(), logger),
		products: handlers.NewProductsHandler(svcs.product, logger),
		clients:  handlers.NewClientsHandler(svcs.client, logger),
		orders:   handlers.NewOrdersHandler(svcs.order, logger),
		payments: handlers.NewPaymentsHandler(svcs.payment, logger),
		health:   handlers.NewHealthHandler(dbPool, logger),
	}

	// Создание worker pool просроченных заказов
	workerPool := worker.NewPool(
		cfg.WorkerPoolSize,
		cfg.WorkerQueueSize,
		svcs.order,
		cfg.OrderTTL,
		cfg.WorkerScanInterval,
		logger,
	)

	return &dependencies{
		repos:      repos,
		services:   svcs,
		handlers:   hdlrs,
		jwtManager: jwtManager,
		workerPool: workerPool,
	}
}
