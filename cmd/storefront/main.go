package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/identity"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger("storefront")

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{
			"error": err.Error(),
		})
	}
	defer db.Close()

	productRepo := repository.NewPostgresProductRepository(db, logging.NewLogger("product-repository"))
	categoryRepo := repository.NewPostgresCategoryRepository(db, logging.NewLogger("category-repository"))
	cartRepo := repository.NewPostgresCartRepository(db, logging.NewLogger("cart-repository"))
	orderRepo := repository.NewPostgresOrderRepository(db, logging.NewLogger("order-repository"))
	productCache := repository.NewRedisProductCache(cfg.Redis)

	sessionStore := session.NewRedisStore(cfg.Redis, cfg.Session.TTL)
	resolver := identity.NewResolver(sessionStore)

	userClient := clients.NewHTTPUserClient(cfg.UserService, logging.NewLogger("user-client"))
	notificationClient := clients.NewHTTPNotificationClient(cfg.NotificationService, logging.NewLogger("notification-client"))

	publisher := events.NewKafkaPublisher(cfg.Kafka, logging.NewLogger("event-publisher"))
	defer publisher.Close()

	catalogService := service.NewCatalogService(productRepo, categoryRepo, productCache, cfg.Features, cfg.Currency)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, userClient, notificationClient, publisher, cfg.Features)

	h := handlers.New(catalogService, cartService, orderService, resolver)
	health := handlers.NewHealthHandlers(db)
	authMW := auth.NewMiddleware(cfg)

	srv := server.New(cfg, h, health, authMW)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server error", logging.Fields{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("Storefront service started", logging.Fields{
		"port": cfg.Server.Port,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", logging.Fields{
			"error": err.Error(),
		})
	}

	logger.Info("Storefront service stopped")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
