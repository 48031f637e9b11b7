// Package server wires the gin router and owns the HTTP server lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/identity"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
)

// Server is the storefront HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

// New builds the router and returns a server ready to start.
func New(cfg *config.Config, h *handlers.Handlers, health *handlers.HealthHandlers, authMW *auth.Middleware) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(authMW.Session())
	router.Use(authMW.Identify())

	registerRoutes(router, h, health, authMW)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logging.NewLogger("server"),
	}
}

func registerRoutes(router *gin.Engine, h *handlers.Handlers, health *handlers.HealthHandlers, authMW *auth.Middleware) {
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/categories", h.ListCategories)
		v1.GET("/categories/:id", h.GetCategory)

		cart := v1.Group("/cart")
		{
			cart.GET("", h.GetCart)
			cart.POST("/lines", h.AddToCart)
			cart.PUT("/lines/:lineId", h.UpdateCartLine)
			cart.DELETE("/lines/:lineId", h.RemoveCartLine)
			cart.DELETE("", h.ClearCart)
			cart.POST("/merge", authMW.RequireAuth(), h.MergeCart)
		}

		checkout := v1.Group("/checkout", authMW.RequireAuth())
		{
			checkout.POST("", h.PlaceOrder)
			checkout.POST("/quick", h.QuickCheckout)
		}

		orders := v1.Group("/orders", authMW.RequireAuth())
		{
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
		}

		admin := v1.Group("/admin", authMW.RequireRole(identity.RoleAdmin))
		{
			admin.GET("/orders", h.AdminListOrders)
			admin.GET("/orders/:id", h.AdminGetOrder)
			admin.PUT("/orders/:id/status", h.AdminUpdateOrderStatus)

			admin.POST("/products", h.AdminCreateProduct)
			admin.PUT("/products/:id", h.AdminUpdateProduct)
			admin.DELETE("/products/:id", h.AdminDeleteProduct)

			admin.POST("/categories", h.AdminCreateCategory)
			admin.PUT("/categories/:id", h.AdminUpdateCategory)
			admin.DELETE("/categories/:id", h.AdminDeleteCategory)
		}
	}
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", logging.Fields{
		"addr": s.httpServer.Addr,
	})

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
