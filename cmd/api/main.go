package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/auth"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/config"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/database"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/database/migration"
	handlers "github.com/devTanmayBang2104/scholar-share-platform/internal/http/handler"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/http/middleware"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/otel"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository/postgres"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/service"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/storage"
)

func main() {
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing is a no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set
	shutdownTracing, err := otel.Init(ctx, time.Local)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.Local, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	tokens, err := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("failed to initialize token manager: %v", err)
	}

	// Initialize repositories and services
	materialRepo := postgres.NewMaterialPostgres(db)
	voteLedger := postgres.NewVotePostgres(db)
	reportLog := postgres.NewReportPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	materialSvc := service.NewMaterialService(objStore, materialRepo, voteLedger, reportLog, nil)
	userSvc := service.NewUserService(userRepo, objStore, tokens)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize prometheus middleware: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, materialSvc, userSvc, tokens)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
