package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"inventory-api/internal/auth"
	"inventory-api/internal/config"
	"inventory-api/internal/database"
	"inventory-api/internal/domain"
	custommiddleware "inventory-api/internal/middleware"
	"inventory-api/internal/pricing"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"
	"inventory-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          database.Service
	redis       *redis.Client
	authService service.AuthService
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	issuer, err := auth.NewIssuer(tokenConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	rate, err := cfg.Pricing.Rate()
	if err != nil {
		return nil, err
	}
	calculator, err := pricing.NewCalculator(rate)
	if err != nil {
		return nil, fmt.Errorf("failed to create price calculator: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := custommiddleware.NewMetrics(registry)

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack(
		logger,
		metrics,
		cfg.Server.AllowedOrigins,
		!cfg.Server.IsProduction(),
	)...)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok", "database": health}
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		custommiddleware.RespondWithJSON(w, status, body)
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// Initialize repositories
	store := repository.NewStore(db.DB())

	// Initialize services
	authService := service.NewAuthService(store, issuer, logger)
	productService := service.NewProductService(store, calculator, logger,
		service.WithAuditHook(metrics.RecordAudit),
	)
	auditService := service.NewAuditService(store.Audits())

	// Initialize handlers
	authHandler := transport.NewAuthHandler(authService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	auditHandler := transport.NewAuditHandler(auditService, logger)

	// Create auth middleware
	guard := auth.NewGuard(tokenConfig(cfg))
	authenticated := custommiddleware.RequireAuthenticated(guard, logger)
	adminOnly := custommiddleware.RequireAdmin(guard, logger)
	loginLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.LoginRequests,
		Window:            cfg.RateLimit.LoginWindow,
		KeyPrefix:         "rate_limit:login",
	}, logger)

	// Register routes
	authHandler.RegisterRoutes(router, adminOnly, loginLimiter)
	productHandler.RegisterRoutes(router, authenticated, adminOnly)
	auditHandler.RegisterRoutes(router, adminOnly)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		authService: authService,
	}

	return server, nil
}

// Seed creates the default admin and user accounts when they are missing
func (s *Server) Seed(ctx context.Context) error {
	return s.authService.Seed(ctx, []service.SeedAccount{
		{Username: "admin", Password: s.config.Seed.AdminPassword, Role: domain.RoleAdmin},
		{Username: "user1", Password: s.config.Seed.UserPassword, Role: domain.RoleUser},
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

func tokenConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}
}
