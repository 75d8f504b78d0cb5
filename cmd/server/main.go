package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemk/bakery-shop/internal/app"
	"github.com/linemk/bakery-shop/internal/artifact"
	"github.com/linemk/bakery-shop/internal/config"
	"github.com/linemk/bakery-shop/internal/invoice"
	"github.com/linemk/bakery-shop/internal/lib/logger"
	"github.com/linemk/bakery-shop/internal/lib/metrics"
	"github.com/linemk/bakery-shop/internal/service"
	"github.com/linemk/bakery-shop/internal/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// объект приложения с конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	store, err := artifact.NewLocalStore(cfg.Invoices.Dir)
	if err != nil {
		log.Error("failed to initialize invoice storage", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize invoice storage"))
	}

	var (
		checkoutMetrics *metrics.CheckoutMetrics
		serverMetrics   *metrics.ServerMetrics
		metricsPath     string
	)
	if cfg.Metrics.Enabled {
		checkoutMetrics = metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
		serverMetrics = metrics.NewServerMetrics(prometheus.DefaultRegisterer)
		metricsPath = cfg.Metrics.Path
	}

	// слои по работе с БД по каждому направлению
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	invoiceRepo := storage.NewInvoiceRepository(application.DB)

	generator := invoice.NewGenerator(log, application.DB, orderRepo, invoiceRepo, store, invoice.NewPDFRenderer(),
		invoice.Branding{
			ShopName: cfg.Invoices.ShopName,
			Tagline:  cfg.Invoices.Tagline,
			Contact:  cfg.Invoices.Contact,
		},
	)

	services := app.Services{
		Cart: service.NewCartService(log, cartRepo, productRepo),
		Checkout: service.NewCheckoutService(log, application.DB, cartRepo,
			service.NewPriceResolver(log, productRepo),
			service.NewOrderAssembler(log, orderRepo),
			generator,
			checkoutMetrics,
		),
		Orders:   service.NewOrderService(log, orderRepo, invoiceRepo),
		Invoices: service.NewInvoiceService(log, orderRepo, invoiceRepo, store),
	}

	router := app.NewRouter(log, services, app.RouterOptions{
		JWTSecret:     cfg.JWT.Secret,
		MetricsPath:   metricsPath,
		ServerMetrics: serverMetrics,
		Gatherer:      prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
