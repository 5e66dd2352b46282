package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aegis-response/aegis_console/internal/auth"
	"github.com/aegis-response/aegis_console/internal/config"
	"github.com/aegis-response/aegis_console/internal/middleware"
	"github.com/aegis-response/aegis_console/internal/notification"
	"github.com/aegis-response/aegis_console/internal/staff"
	"github.com/aegis-response/aegis_console/internal/subscriber"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers; memory repositories back the dev mode.
	var staffRepo staff.Repository
	var recordRepo subscriber.Repository
	if d.DB != nil {
		staffRepo = staff.NewPostgresRepository(d.DB)
		recordRepo = subscriber.NewPostgresRepository(d.DB)
	} else {
		staffRepo = staff.NewMemoryRepository()
		recordRepo = subscriber.NewMemoryRepository()
	}

	staffSvc := staff.NewService(staffRepo)

	// Memory-backed dev mode has no provisioning path, so seed one operator.
	if d.DB == nil && d.Cfg.AdminEmail != "" {
		creds := staff.Credentials{Name: "Bootstrap Admin", Email: d.Cfg.AdminEmail, Password: d.Cfg.AdminPassword}
		if _, err := staffSvc.Register(context.Background(), creds); err != nil {
			return fmt.Errorf("seed admin account: %w", err)
		}
	}
	authSvc := auth.NewService(d.Cfg, staffRepo)
	authHandler := auth.NewHandler(staffSvc, authSvc)

	notifier := notification.NewLoggerNotifier(d.Logger)
	recordSvc := subscriber.NewService(recordRepo, notifier)
	recordHandler := subscriber.NewHandler(recordSvc)

	api := app.Group("/api")

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, staffRepo)
	protected := api.Group("", jwtmw)
	RegisterUserRoutes(protected, recordHandler)
	protected.Post("/auth/logout", authHandler.Logout)

	return nil
}
