package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lodging/internal/audit"
	"lodging/internal/cache"
	"lodging/internal/config"
	"lodging/internal/database"
	"lodging/internal/metrics"
	jwtsvc "lodging/internal/pkg/jwt"
	"lodging/internal/pkg/logger"
)

const serviceName = "lodging-api"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, serviceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	db, err := database.Connect(cfg.Database.URL, lg)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	mp, err := metrics.NewProvider(ctx, metrics.ProviderConfig{
		Exporter: cfg.Metrics.Exporter,
		Endpoint: cfg.Metrics.Endpoint,
		Insecure: cfg.Metrics.Insecure,
		Interval: cfg.Metrics.Interval,
	}, serviceName)
	if err != nil {
		return err
	}
	otel.SetMeterProvider(mp)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			lg.Warn("metrics shutdown", zap.Error(err))
		}
	}()
	m, err := metrics.New(mp)
	if err != nil {
		return err
	}
	catalog, err := cache.NewCatalogCache(cfg.Catalog.CacheMaxBytes, cfg.Catalog.CacheTTL)
	if err != nil {
		return err
	}
	defer catalog.Close()

	pub, closePub, err := audit.OpenPublisher(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() { _ = closePub() }()

	svc := newServices(db, cfg, catalog, m, lg)
	j := jwtsvc.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(svc, j, cfg.HTTP.CORSOrigins, lg)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(r, serviceName, otelhttp.WithMeterProvider(mp)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	relay := audit.NewRelay(db, pub, cfg.Audit.RelayInterval, cfg.Audit.RelayBatch, lg.Named("audit"), m)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		lg.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
