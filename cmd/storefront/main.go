package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pix"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

func main() {
	cfg := config.Load()

	logging.Setup(cfg.Environment, cfg.LogLevel)
	logger := logging.NewLogger("storefront-service")

	logging.Infof("Starting storefront-service on port %d", cfg.Server.Port)

	store, db, err := initStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", logging.Fields{"error": err.Error()})
	}
	if db != nil {
		defer db.Close()
	}

	m := metrics.NewDefault()

	var orderCache repository.OrderCache
	if cfg.Redis.Enabled {
		redisClient := repository.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		orderCache = repository.NewRedisOrderCache(redisClient, cfg.Redis.TTL, logger)
	}

	gateway := clients.NewPaymentGateway(cfg.PaymentGateway, logger)
	if gateway == nil {
		logger.Warn("Payment gateway not configured, PIX checkouts will use fallback payloads")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
	}
	defer publisher.Close()

	renderer := pix.NewQRRenderer(cfg.Pix.QRCodeSize)
	paymentService := service.NewPaymentService(gateway, store, renderer, cfg, m)
	orderService := service.NewOrderService(store, paymentService, orderCache, publisher, cfg, m)
	catalogService := service.NewCatalogService(store)

	h := handlers.NewHandlers(catalogService, orderService, store)
	srv := server.New(h, cfg, m)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                 cfg.Server.Port,
			"store_driver":         cfg.Store.Driver,
			"gateway_configured":   gateway != nil,
			"enable_order_caching": cfg.Features.EnableOrderCaching,
			"enable_order_events":  cfg.Features.EnableOrderEvents,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var consumer *events.KafkaConsumer
	if cfg.Kafka.Enabled {
		consumer = events.NewKafkaConsumer(cfg.Kafka, orderService, logger)
		go func() {
			if err := consumer.Start(context.Background()); err != nil {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}

// initStore opens the configured store. db is nil for the memory driver.
func initStore(cfg *config.Config, logger *logging.Logger) (repository.Store, *sql.DB, error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("Using in-memory store, data will not survive restarts")
		return repository.NewMemoryStore(), nil, nil
	}

	db, err := repository.OpenPostgres(context.Background(), cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	logging.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db, logger); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return repository.NewPostgresStore(db, logger), db, nil
}
