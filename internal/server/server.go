package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matthieukhl/freshmart/internal/analytics"
	"github.com/matthieukhl/freshmart/internal/auth"
	"github.com/matthieukhl/freshmart/internal/catalog"
	"github.com/matthieukhl/freshmart/internal/config"
	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/orders"
	"github.com/matthieukhl/freshmart/internal/session"
	"github.com/matthieukhl/freshmart/internal/telemetry"
)

const version = "0.1.0"

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the services the HTTP layer dispatches to
type Deps struct {
	Config    *config.Config
	DB        HealthChecker
	Catalog   *catalog.Service
	Orders    *orders.Service
	Analytics *analytics.Service
	Auth      *auth.Service
	Sessions  *session.Codec
	Logger    *slog.Logger
}

type Server struct {
	router *gin.Engine
	deps   Deps
	logger *slog.Logger
	http   *http.Server
}

// NewServer creates a new server instance with every route registered
func NewServer(deps Deps) *Server {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidators()

	router := gin.New()
	router.HandleMethodNotAllowed = false

	server := &Server{
		router: router,
		deps:   deps,
		logger: logging.WithComponent(deps.Logger, "http"),
	}

	router.Use(requestID(), server.requestLogger(), server.recovery())
	router.NoRoute(func(c *gin.Context) {
		respondMessage(c, http.StatusNotFound, false, "Resource not found")
	})

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	api.GET("/health", s.healthCheck)

	products := api.Group("/products")
	{
		products.GET("", s.listProducts)
		products.GET("/categories", s.listCategories)
		products.GET("/:id", s.getProduct)
		products.POST("", s.authenticate(), s.require(auth.CapManageCatalog), s.createProduct)
		products.PUT("/:id", s.authenticate(), s.require(auth.CapManageCatalog), s.updateProduct)
		products.DELETE("/:id", s.authenticate(), s.require(auth.CapManageCatalog), s.deleteProduct)
	}

	ordersGroup := api.Group("/orders")
	{
		ordersGroup.POST("", s.requireCustomerSession(), s.createOrder)
		ordersGroup.GET("", s.authenticate(), s.require(auth.CapViewOrders), s.listOrders)
		ordersGroup.GET("/analytics", s.authenticate(), s.require(auth.CapViewAnalytics), s.orderAnalytics)
		ordersGroup.GET("/public/:id", s.getPublicOrder)
		ordersGroup.GET("/:id", s.authenticate(), s.require(auth.CapViewOrders), s.getOrder)
		ordersGroup.PUT("/:id/status", s.authenticate(), s.require(auth.CapUpdateOrders), s.updateOrderStatus)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", s.login)
		authGroup.POST("/logout", s.authenticate(), s.logout)
		authGroup.GET("/me", s.authenticate(), s.me)
		authGroup.POST("/register", s.authenticate(), s.require(auth.CapManageStaff), s.register)
	}

	customer := api.Group("/customer")
	{
		customer.POST("/session", s.createSession)
		customer.GET("/session", s.getSession)
		customer.DELETE("/session", s.clearSession)
	}

	stats := api.Group("/stats", s.authenticate(), s.require(auth.CapViewAnalytics))
	{
		stats.GET("/dashboard", s.dashboard)
		stats.GET("/analytics", s.periodAnalytics)
	}
}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.DB.HealthCheck(ctx); err != nil {
		s.logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  "database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "freshmart",
		"version": version,
	})
}

// Handler is the full HTTP stack, traced when telemetry is enabled
func (s *Server) Handler() http.Handler {
	if s.deps.Config.Telemetry.Enabled {
		return telemetry.Middleware(s.router)
	}
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	cfg := s.deps.Config.Server
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", "addr", cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
