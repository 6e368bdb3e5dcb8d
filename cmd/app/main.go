package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wichananm65/deko-shop-backend/internal/apperror"
	"github.com/wichananm65/deko-shop-backend/internal/auth"
	"github.com/wichananm65/deko-shop-backend/internal/category"
	"github.com/wichananm65/deko-shop-backend/internal/config"
	"github.com/wichananm65/deko-shop-backend/internal/health"
	"github.com/wichananm65/deko-shop-backend/internal/middleware"
	"github.com/wichananm65/deko-shop-backend/internal/notify"
	"github.com/wichananm65/deko-shop-backend/internal/order"
	"github.com/wichananm65/deko-shop-backend/internal/password"
	"github.com/wichananm65/deko-shop-backend/internal/product"
	"github.com/wichananm65/deko-shop-backend/internal/shop"
	"github.com/wichananm65/deko-shop-backend/internal/store"
	"github.com/wichananm65/deko-shop-backend/internal/user"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const (
	notifyTimeout   = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		panic(err)
	}
	defer util.SyncLogger()
	log := util.GetLogger()

	var tp *sdktrace.TracerProvider
	if cfg.Observ.JaegerEndpoint != "" {
		var err error
		if tp, err = util.InitTracer(cfg.Observ.ServiceName, cfg.Observ.JaegerEndpoint); err != nil {
			log.Warn("tracing disabled", zap.Error(err))
		}
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	users := user.NewService(user.NewSQLRepository(st.DB), password.NewHasher(password.DefaultParams), log)
	seedAdmin(ctx, cfg, users, log)
	if cfg.Auth.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set; sessions are signed with the development key")
	}

	dispatcher := notify.NewDispatcher(notify.FromConfig(cfg, log), log, notifyTimeout)
	tokens, closeTokens := tokenStore(cfg, st, log)

	app := newApp(cfg, log, deps{
		store:      st,
		users:      users,
		tokens:     tokens,
		dispatcher: dispatcher,
	})

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr()), zap.String("db_driver", st.Driver))
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(); err != nil {
		log.Warn("closing notifiers", zap.Error(err))
	}
	closeTokens()
	if tp != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}
}

type deps struct {
	store      *store.Store
	users      *user.Service
	tokens     auth.TokenStore
	dispatcher *notify.Dispatcher
}

// newApp builds the fiber app with every route registered. Category routes go
// before product routes so /api/products/categories is never read as an id.
func newApp(cfg config.Config, log *zap.Logger, d deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "deko-shop",
		ErrorHandler: apperror.Handler(log),
		BodyLimit:    1 << 20,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Metrics())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use("/api", middleware.RateLimit(100, 15*time.Minute, "Too many requests, please try again later."))

	authLimit := middleware.RateLimit(5, time.Hour, "Too many attempts, please try again later.")
	app.Use("/api/admin/login", authLimit)
	app.Use("/api/admin/forgot-password", authLimit)

	sessions := auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Server.IsProduction())
	protect := sessions.Middleware()

	authService := auth.NewService(d.users, sessions, d.tokens, d.dispatcher, auth.Options{
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		PublicBaseURL: cfg.Auth.PublicBaseURL,
		AdminEmail:    cfg.Auth.AdminEmail,
	}, log)
	authHandler := auth.NewHandler(authService, sessions, log)

	productRepo := product.NewSQLRepository(d.store.DB)
	productService := product.NewService(productRepo)
	productHandler := product.NewHandler(productService)
	categoryHandler := category.NewHandler(category.NewService(productService))

	orderRepo := order.NewSQLRepository(d.store.DB)
	orderHandler := order.NewHandler(order.NewService(orderRepo, productService), log)

	shopService := shop.NewService(orderRepo, d.dispatcher, shop.Options{
		ShippingFee: cfg.Shop.ShippingFee,
		NotifyEmail: cfg.Auth.AdminEmail,
	}, log)
	shopHandler := shop.NewHandler(shopService, log)

	health.NewHandler(d.store, log).RegisterPublicRoutes(app)
	authHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	shopHandler.RegisterPublicRoutes(app)

	authHandler.RegisterProtectedRoutes(app, protect)
	productHandler.RegisterProtectedRoutes(app, protect)
	orderHandler.RegisterProtectedRoutes(app, protect)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	auth.NewPages(cfg.Server.PublicDir, sessions).RegisterRoutes(app)
	app.Static("/", cfg.Server.PublicDir, fiber.Static{
		Next: func(c *fiber.Ctx) bool { return auth.IsAdminAsset(c.Path()) },
	})

	return app
}

// seedAdmin creates the first admin account on an empty database.
func seedAdmin(ctx context.Context, cfg config.Config, users *user.Service, log *zap.Logger) {
	created, err := users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		log.Fatal("seed admin account", zap.Error(err))
	}
	if created && os.Getenv("ADMIN_PASSWORD") == "" {
		log.Warn("admin account uses the default password; change it after the first login")
	}
}

// tokenStore keeps reset tokens in Redis when configured and in the database otherwise.
func tokenStore(cfg config.Config, st *store.Store, log *zap.Logger) (auth.TokenStore, func()) {
	if !cfg.Redis.Enabled() {
		return auth.NewSQLTokenStore(st.DB), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, keeping reset tokens in the database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		client.Close()
		return auth.NewSQLTokenStore(st.DB), func() {}
	}

	log.Info("reset tokens stored in redis", zap.String("addr", cfg.Redis.Addr))
	return auth.NewRedisTokenStore(client), func() {
		if err := client.Close(); err != nil {
			log.Warn("closing redis", zap.Error(err))
		}
	}
}
