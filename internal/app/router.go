package app

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/avc/commerce-backoffice/internal/handlers"
	"github.com/avc/commerce-backoffice/internal/utils/jwt"
)

// setupRouter создает и настраивает роутер
func setupRouter(deps *dependencies, jwtManager *jwt.Manager, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	setupMiddleware(r, logger)

	// Маршруты
	setupRoutes(r, deps, jwtManager)

	return r
}

// setupMiddleware настраивает middleware для роутера
func setupMiddleware(r *chi.Mux, logger *zap.Logger) {
	r.Use(handlers.RequestIDMiddleware())
	r.Use(handlers.LoggingMiddleware(logger))
	r.Use(handlers.RecoveryMiddleware(logger))
	r.Use(middleware.Compress(5))
}

// setupRoutes настраивает маршруты приложения.
// Чтение доступно любому аутентифицированному пользователю;
// мутации каталога, клиентов и переходы жизненного цикла
// заказов и платежей требуют роли ADMIN.
func setupRoutes(r *chi.Mux, deps *dependencies, jwtManager *jwt.Manager) {
	// Health check эндпоинты
	r.Get("/health", deps.handlers.health.Health)
	r.Get("/ready", deps.handlers.health.Ready)

	// Публичные эндпоинты
	r.Post("/auth/login", deps.handlers.auth.Login)
	r.Post("/auth/logout", deps.handlers.auth.Logout)

	// Защищенные эндпоинты
	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(jwtManager))

		r.Get("/auth/me", deps.handlers.auth.Me)

		r.Get("/products", deps.handlers.products.List)
		r.Get("/products/page", deps.handlers.products.Page)
		r.Get("/clients", deps.handlers.clients.List)
		r.Get("/clients/{id}", deps.handlers.clients.Get)
		r.Get("/clients/{id}/orders", deps.handlers.clients.Orders)
		r.Get("/orders", deps.handlers.orders.List)
		r.Get("/orders/{id}", deps.handlers.orders.Get)
		r.Get("/payments/order/{orderId}", deps.handlers.payments.ListByOrder)

		r.Post("/orders", deps.handlers.orders.Create)
		r.Post("/payments", deps.handlers.payments.Create)

		// Эндпоинты только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireAdmin)

			r.Post("/products", deps.handlers.products.Create)
			r.Put("/products/{id}", deps.handlers.products.Update)
			r.Delete("/products/{id}", deps.handlers.products.Delete)
			r.Put("/products/{id}/restore", deps.handlers.products.Restore)

			r.Post("/clients", deps.handlers.clients.Create)
			r.Put("/clients/{id}", deps.handlers.clients.Update)

			r.Put("/orders/{id}/validate", deps.handlers.orders.Validate)
			r.Put("/orders/{id}/cancel", deps.handlers.orders.Cancel)

			r.Put("/payments/{id}/encash", deps.handlers.payments.Encash)
			r.Put("/payments/{id}/reject", deps.handlers.payments.Reject)
		})
	})
}
