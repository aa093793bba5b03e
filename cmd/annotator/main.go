package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/annotator/internal/config"
	dbRedis "github.com/kailas-cloud/annotator/internal/db/redis"
	"github.com/kailas-cloud/annotator/internal/db/sqlite"
	domtax "github.com/kailas-cloud/annotator/internal/domain/taxonomy"
	logpkg "github.com/kailas-cloud/annotator/internal/logger"
	"github.com/kailas-cloud/annotator/internal/metrics"
	"github.com/kailas-cloud/annotator/internal/pdfengine"
	taxonomyrepo "github.com/kailas-cloud/annotator/internal/repository/taxonomy"
	"github.com/kailas-cloud/annotator/internal/textlayer"
	chiTransport "github.com/kailas-cloud/annotator/internal/transport/chi"
	annotationuc "github.com/kailas-cloud/annotator/internal/usecase/annotation"
	healthuc "github.com/kailas-cloud/annotator/internal/usecase/health"
	"github.com/kailas-cloud/annotator/internal/usecase/hittest"
	"github.com/kailas-cloud/annotator/internal/usecase/persistence"
	"github.com/kailas-cloud/annotator/internal/usecase/render"
	taxonomyuc "github.com/kailas-cloud/annotator/internal/usecase/taxonomy"
	"github.com/kailas-cloud/annotator/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting annotator API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	metrics.RegisterEngineMetrics()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Taxonomy store based on driver
	taxRepo, pinger, closeStore := openTaxonomyStore(ctx, cfg, logger)
	defer closeStore()

	taxSvc := taxonomyuc.New(taxRepo, logger)
	if err := taxSvc.SeedIfEmpty(ctx, cfg.Taxonomy.SeedLabels, seedColors(cfg.Taxonomy.SeedColors)); err != nil {
		logger.Warn("Taxonomy seed skipped", zap.Error(err))
	}

	// Annotation engine: one session, one writer goroutine
	engineCfg := cfg.Engine()
	store := annotationuc.New(logger)
	index := hittest.NewIndex()
	hits := hittest.New(store, index, engineCfg.HitTolerance)
	pdf := pdfengine.New(cfg.Render.MaxDocumentBytes, logger)

	coord := render.NewCoordinator(engineCfg, pdf.Renderer(), textlayer.NewBuilder(), store, hits, index, logger)
	dispatcher := render.NewDispatcher(coord)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := dispatcher.Run(ctx); err != nil {
			logger.Error("Dispatcher stopped", zap.Error(err))
		}
	}()

	healthSvc := healthuc.New(pinger, dispatcher)

	server := chiTransport.NewServer(
		dispatcher, store, persistence.New(logger), taxSvc, healthSvc,
		chiTransport.Limits{DocumentBytes: cfg.Render.MaxDocumentBytes, ImportBytes: cfg.Import.MaxBytes},
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Stop the writer loop after the last request drained; it closes the open document.
	stop()
	<-loopDone

	logger.Info("Server stopped gracefully")
}

// openTaxonomyStore connects the configured taxonomy backend. valkey and
// redis share the rueidis store.
func openTaxonomyStore(
	ctx context.Context, cfg config.Config, logger *zap.Logger,
) (taxonomyuc.Repository, healthuc.DBPinger, func()) {
	switch cfg.Database.Driver {
	case "valkey", "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
			Prefix:   cfg.Storage.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))
		return taxonomyrepo.New(store), store, store.Close
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to open sqlite database", zap.Error(err))
		}
		logger.Info("Opened sqlite database", zap.String("path", cfg.Database.SQLitePath))
		return taxonomyrepo.NewSQL(db), db, func() { _ = db.Close() }
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
		return nil, nil, func() {}
	}
}

func seedColors(in []config.SeedColorConfig) []domtax.Color {
	out := make([]domtax.Color, len(in))
	for i, c := range in {
		out[i] = domtax.Color{Name: c.Name, Value: c.Value}
	}
	return out
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
