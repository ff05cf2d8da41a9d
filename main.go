package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-meetups/internal/config"
	"ms-meetups/internal/database/migrations"
	event_db "ms-meetups/internal/events/db"
	"ms-meetups/internal/events/event_api"
	"ms-meetups/internal/events/page"
	"ms-meetups/internal/events/service"
	"ms-meetups/internal/logger"
	"ms-meetups/internal/metrics"
)

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		if err = sqldb.Ping(); err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment variables from .env file")
	}

	cfg := config.Load()

	log := logger.NewLogger(cfg.App.ServiceName, cfg.Logging.Level)
	defer log.Close()

	log.Info("APP", fmt.Sprintf("Starting %s v%s", cfg.App.ServiceName, cfg.App.ServiceVersion))
	metrics.AppInfo.WithLabelValues(cfg.App.ServiceVersion).Set(1)

	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		log.Info("DATABASE", "Running schema migrations")
		runner := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir)
		if err := runner.Run(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		if version, err := runner.Version(); err == nil {
			log.Info("DATABASE", fmt.Sprintf("Current schema version: %d", version))
		}
	}

	eventService := service.NewEventService(&event_db.DB{Bun: bunDB}, log)
	apiHandler := event_api.NewHandler(eventService, log)
	pageHandler, err := page.NewHandler(eventService, log)
	if err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to initialize page handler: %v", err))
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(requestLogger(log))

	apiHandler.RegisterRoutes(r)
	log.Info("ROUTER", "API routes registered under /api/events")

	pageHandler.RegisterRoutes(r)
	log.Info("ROUTER", "Page routes registered")

	r.Method("GET", "/metrics", metrics.Handler())
	log.Info("ROUTER", "Metrics endpoint registered at /metrics")

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Service running on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Service shutdown complete")
	}
}

// requestLogger logs each completed request with its status and duration.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.LogAPI(r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
