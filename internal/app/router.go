package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/bakery-shop/internal/app/handlers"
	"github.com/linemk/bakery-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/bakery-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/bakery-shop/internal/lib/metrics"
	"github.com/linemk/bakery-shop/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

// Services - всё, что нужно обработчикам
type Services struct {
	Cart     service.CartService
	Checkout service.CheckoutService
	Orders   service.OrderService
	Invoices service.InvoiceService
}

// RouterOptions - настройки маршрутизатора
type RouterOptions struct {
	JWTSecret string
	// MetricsPath пустой - /metrics не отдаётся
	MetricsPath   string
	ServerMetrics *metrics.ServerMetrics
	Gatherer      prometheus.Gatherer
}

func NewRouter(log *slog.Logger, svc Services, opts RouterOptions) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	if opts.ServerMetrics != nil {
		router.Use(opts.ServerMetrics.Middleware)
	}

	if opts.MetricsPath != "" && opts.Gatherer != nil {
		router.Handle(opts.MetricsPath, metrics.Handler(opts.Gatherer))
	}

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(opts.JWTSecret))

		r.Get("/api/cart", handlers.CartHandler(log, svc.Cart))
		r.Post("/api/cart/items", handlers.AddCartItemHandler(log, svc.Cart))
		r.Put("/api/cart/items/{id}", handlers.UpdateCartItemHandler(log, svc.Cart))
		r.Delete("/api/cart/items/{id}", handlers.RemoveCartItemHandler(log, svc.Cart))

		r.Post("/api/checkout", handlers.CheckoutHandler(log, svc.Checkout))

		r.Get("/api/orders", handlers.OrdersHandler(log, svc.Orders))
		r.Get("/api/orders/{id}", handlers.OrderHandler(log, svc.Orders))
		// файлы счетов отдаются только через проверку владельца
		r.Get("/api/orders/{id}/invoice", handlers.InvoiceDownloadHandler(log, svc.Invoices))
	})

	return router
}
