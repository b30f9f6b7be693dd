package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	customerapp "github.com/storefront/backend/internal/application/customer"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/application/notification"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/email"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	gatewayreg "github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Connect Redis. The service degrades without it: in-memory token
	// blacklist and callback idempotency, no realtime order feed.
	redisClient := connectRedis(cfg, log)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
	}

	// Initialize repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)

	// Auth infrastructure
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Callback idempotency store
	var idempotency shared.IdempotencyStore
	if redisClient != nil {
		idempotency = cache.NewRedisIdempotencyStoreWithClient(redisClient, "")
	} else {
		idempotency = cache.NewInMemoryIdempotencyStore()
	}

	// Object storage for product images
	var objectStorage catalogapp.ObjectStorageService
	if cfg.Storage.Bucket != "" {
		objectStorage, err = storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		log.Info("Object storage configured", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("No storage bucket configured, product image uploads are disabled")
	}

	// Transactional mail
	var mailer notification.Mailer
	if cfg.Email.Enabled {
		mailer, err = email.NewHTTPMailer(&cfg.Email, log)
		if err != nil {
			log.Fatal("Failed to initialize mailer", zap.Error(err))
		}
	} else {
		mailer = email.NewLogMailer(log)
	}

	// Event bus with notification and realtime feed subscribers
	eventBus := event.NewInMemoryEventBus(log)
	orderNotifications := notification.NewOrderNotificationHandler(mailer, cfg.App.Name, log)
	eventBus.Subscribe(orderNotifications)

	var orderFeed *event.RedisOrderFeed
	if redisClient != nil {
		orderFeed = event.NewRedisOrderFeed(redisClient, log)
		eventBus.Subscribe(orderFeed)
	}

	// Payment gateways
	gatewayRegistry, err := gatewayreg.NewRegistry(&cfg.Payment, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateways", zap.Error(err))
	}

	// Application services
	tenantService := identityapp.NewTenantService(tenantRepo, userRepo, log)
	userService := identityapp.NewUserService(userRepo, log)
	authService := identityapp.NewAuthService(userRepo, tenantRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig(), log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, objectStorage, catalogapp.ProductServiceConfig{
		UploadURLExpiry:   cfg.Storage.UploadExpiry,
		DownloadURLExpiry: cfg.Storage.DownloadExpiry,
	})
	categoryService := catalogapp.NewCategoryService(categoryRepo)
	customerService := customerapp.NewService(customerRepo, log)

	shippingRate, err := decimal.NewFromString(cfg.Checkout.FlatShippingRate)
	if err != nil {
		log.Fatal("Invalid flat shipping rate", zap.String("value", cfg.Checkout.FlatShippingRate), zap.Error(err))
	}
	orderService := orderapp.NewService(orderRepo, productRepo, customerRepo, eventBus, log, orderapp.ServiceConfig{
		FlatShippingRate: shippingRate,
		Currency:         valueobject.Currency(cfg.Checkout.Currency),
	})

	reconciliation := paymentapp.NewReconciliationService(transactionRepo, log)
	paymentService := paymentapp.NewService(
		transactionRepo,
		orderRepo,
		gatewayRegistry.List(),
		reconciliation,
		idempotency,
		eventBus,
		log,
		paymentapp.ServiceConfig{
			CallbackBaseURL: cfg.Payment.CallbackBaseURL,
			IdempotencyTTL:  cfg.Payment.IdempotencyTTL,
		},
	)

	// HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	customerHandler := handler.NewCustomerHandler(customerService)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	storefrontHandler := handler.NewStorefrontHandler(productService, categoryService, orderService, paymentService)
	callbackHandler := handler.NewPaymentCallbackHandler(paymentService, log)
	orderFeedHandler := handler.NewOrderFeedHandler(orderFeed)
	systemHandler := handler.NewSystemHandler(db, redisClient)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, in order: request id, panic recovery, request
	// logging, tracing, security headers, CORS, body limit, rate limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if tracerProvider.IsEnabled() {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health and readiness probes (outside API versioning)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// Gateway callbacks bypass tenant resolution and authentication; the
	// transaction identifies the tenant and signatures prove authenticity.
	engine.POST("/api/v1/store/payments/callback/:gateway", callbackHandler.Handle)

	// Tenant signup is the one unauthenticated admin operation: it provisions
	// the tenant together with its first owner account.
	engine.POST("/api/v1/signup", tenantHandler.Create)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Public storefront surface, tenant resolved from X-Tenant-Code
	store := router.NewSurfaceGroup("store", "/store")
	store.Use(middleware.StoreTenantMiddleware(tenantService, log))
	store.GET("/catalog/products", storefrontHandler.ListProducts)
	store.GET("/catalog/products/:id", storefrontHandler.GetProduct)
	store.GET("/catalog/categories", storefrontHandler.ListCategories)
	store.GET("/catalog/categories/:slug", storefrontHandler.GetCategory)
	store.POST("/checkout", storefrontHandler.Checkout)
	store.GET("/orders/:number", storefrontHandler.LookupOrder)
	store.GET("/orders/:number/payment", storefrontHandler.PaymentStatus)
	store.POST("/payments", storefrontHandler.InitiatePayment)

	// Admin surface, JWT-authenticated and tenant-scoped via token claims
	admin := router.NewSurfaceGroup("admin", "/admin")
	admin.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/admin/auth/login",
			"/api/v1/admin/auth/refresh",
		},
		Logger: log,
	}))
	admin.Use(middleware.AdminTenantMiddleware())

	// Stricter limiter for credential guessing
	var authLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authLimit = middleware.RateLimit(authLimiter)
	}

	if authLimit != nil {
		admin.POST("/auth/login", authLimit, authHandler.Login)
		admin.POST("/auth/refresh", authLimit, authHandler.Refresh)
	} else {
		admin.POST("/auth/login", authHandler.Login)
		admin.POST("/auth/refresh", authHandler.Refresh)
	}
	admin.POST("/auth/logout", authHandler.Logout)
	admin.GET("/auth/me", authHandler.Me)
	admin.PUT("/auth/password", authHandler.ChangePassword)

	// Catalog management
	admin.POST("/products", productHandler.Create)
	admin.GET("/products", productHandler.List)
	admin.GET("/products/:id", productHandler.GetByID)
	admin.PUT("/products/:id", productHandler.Update)
	admin.DELETE("/products/:id", productHandler.Delete)
	admin.POST("/products/:id/activate", productHandler.Activate)
	admin.POST("/products/:id/deactivate", productHandler.Deactivate)
	admin.POST("/products/:id/image/upload-url", productHandler.GenerateImageUploadURL)
	admin.POST("/products/:id/image/confirm", productHandler.ConfirmImage)

	admin.POST("/categories", categoryHandler.Create)
	admin.GET("/categories", categoryHandler.List)
	admin.GET("/categories/:id", categoryHandler.GetByID)
	admin.PUT("/categories/:id", categoryHandler.Update)
	admin.DELETE("/categories/:id", categoryHandler.Delete)
	admin.POST("/categories/:id/activate", categoryHandler.Activate)
	admin.POST("/categories/:id/deactivate", categoryHandler.Deactivate)

	// Customer management
	admin.GET("/customers", customerHandler.List)
	admin.GET("/customers/:id", customerHandler.GetByID)
	admin.PUT("/customers/:id", customerHandler.Update)
	admin.POST("/customers/:id/activate", customerHandler.Activate)
	admin.POST("/customers/:id/deactivate", customerHandler.Deactivate)

	// Order management and realtime feed
	admin.GET("/orders", orderHandler.List)
	admin.GET("/orders/stats", orderHandler.Stats)
	admin.GET("/orders/feed", orderFeedHandler.Stream)
	admin.GET("/orders/:id", orderHandler.GetByID)
	admin.POST("/orders/:id/transition", orderHandler.Transition)

	// Payment transactions
	admin.GET("/payments", paymentHandler.List)
	admin.GET("/payments/:id", paymentHandler.Get)
	admin.POST("/payments/:id/repoll", paymentHandler.Repoll)

	// Tenant and staff management, owner only
	tenants := admin.Group("tenants", "/tenants")
	tenants.Use(middleware.RequireRole("owner"))
	tenants.GET("", tenantHandler.List)
	tenants.GET("/:id", tenantHandler.GetByID)
	tenants.PUT("/:id", tenantHandler.Update)
	tenants.POST("/:id/activate", tenantHandler.Activate)
	tenants.POST("/:id/suspend", tenantHandler.Suspend)

	users := admin.Group("users", "/users")
	users.Use(middleware.RequireRole("owner"))
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.GetByID)
	users.PUT("/:id", userHandler.Update)
	users.POST("/:id/activate", userHandler.Activate)
	users.POST("/:id/deactivate", userHandler.Deactivate)

	r.Register(store).Register(admin)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// connectRedis connects to Redis, returning nil when it is unreachable
func connectRedis(cfg *config.Config, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, using in-memory fallbacks", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	return client
}
