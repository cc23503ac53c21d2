package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/banking/sanctions-screening/internal/api"
	"github.com/banking/sanctions-screening/internal/config"
	"github.com/banking/sanctions-screening/internal/crypto"
	"github.com/banking/sanctions-screening/internal/events"
	"github.com/banking/sanctions-screening/internal/metrics"
	"github.com/banking/sanctions-screening/internal/repository/elasticsearch"
	"github.com/banking/sanctions-screening/internal/repository/postgres"
	redisrepo "github.com/banking/sanctions-screening/internal/repository/redis"
	"github.com/banking/sanctions-screening/internal/repository/s3"
	"github.com/banking/sanctions-screening/internal/scheduler"
	"github.com/banking/sanctions-screening/internal/screening"
	"github.com/banking/sanctions-screening/internal/service"
	"github.com/banking/sanctions-screening/internal/watchlist"
)

func main() {
	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	if cfg.Tracing.ServiceName != "" {
		logger = logger.With(zap.String("service", cfg.Tracing.ServiceName))
	}
	sugar := logger.Sugar()

	sugar.Info("Starting Sanctions Screening Service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))
	}

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	deps := service.Dependencies{
		Metrics:        m,
		MaskNames:      cfg.Logging.EnablePIIMask,
		DefaultOptions: cfg.ScreenOptions(),
		BatchSize:      cfg.Screening.BatchSize,
		CacheTTL:       cfg.Screening.ResultCacheTTL,
	}

	// 4. Crypto / Security
	if len(cfg.Encryption.EncryptionKeysBase64) > 0 {
		sealer, err := crypto.NewSealer(
			cfg.Encryption.EncryptionKeysBase64,
			cfg.Encryption.CurrentKeyVersion,
			cfg.Encryption.RecordHMACSecret,
		)
		if err != nil {
			sugar.Fatalf("Failed to initialize sealer: %v", err)
		}
		deps.Sealer = sealer
	} else {
		sugar.Warn("No encryption keys configured - screening records will not be persisted")
	}

	// 5. Repositories
	if cfg.Database.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			sugar.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			sugar.Fatalf("Failed to apply schema: %v", err)
		}
		deps.Records = postgres.NewScreeningRepository(pool)
		deps.RefreshLog = postgres.NewRefreshLogRepository(pool)
	}

	if cfg.Elasticsearch.Enabled {
		esRepo, err := elasticsearch.NewSearchRepository(cfg.Elasticsearch)
		if err != nil {
			sugar.Warnf("Failed to connect to Elasticsearch: %v (result search disabled)", err)
		} else {
			deps.Index = esRepo
		}
	}

	var feedOpts []watchlist.FeedOption
	if cfg.S3.Enabled {
		s3Repo, err := s3.NewArchiveRepository(ctx, cfg.S3)
		if err != nil {
			sugar.Fatalf("Failed to initialize S3 repository: %v", err)
		}
		deps.Archive = s3Repo
		feedOpts = append(feedOpts, watchlist.WithSnapshotStore(s3Repo))
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewClient(ctx, cfg.Redis)
		if err != nil {
			sugar.Warnf("Failed to connect to Redis: %v (result cache disabled)", err)
		} else {
			defer client.Close()
			deps.Cache = redisrepo.NewResultCache(client, cfg.Redis.KeyPrefix)
		}
	}

	// 6. Watchlists and engine
	engine, err := newEngine(cfg.Sources, m, logger, feedOpts)
	if err != nil {
		sugar.Fatalf("Failed to configure watchlists: %v", err)
	}
	engine.SetSearchLimit(cfg.Screening.SearchConcurrency)

	// 7. Kafka
	var producer *events.AlertProducer
	if cfg.Kafka.Enabled {
		producer, err = events.NewAlertProducer(cfg.Kafka)
		if err != nil {
			sugar.Fatalf("Failed to create Kafka producer: %v", err)
		}
		defer producer.Close()
		deps.Alerts = producer
	}

	// 8. Services
	screeningService := service.NewScreeningService(engine, deps, logger)
	defer screeningService.Wait()

	if cfg.Kafka.Enabled {
		consumer, err := events.NewRequestConsumer(cfg.Kafka, screeningService, logger)
		if err != nil {
			sugar.Fatalf("Failed to create Kafka consumer: %v", err)
		}
		go func() {
			sugar.Info("Starting Kafka consumer loop...")
			if err := consumer.Start(ctx); err != nil {
				sugar.Errorf("Kafka consumer failed: %v", err)
			}
		}()
		defer consumer.Close()
	}

	// 9. Scheduler
	refresher, err := scheduler.New(cfg.Scheduler.RefreshSchedule, screeningService, logger)
	if err != nil {
		sugar.Fatalf("Failed to create refresh scheduler: %v", err)
	}
	if cfg.Scheduler.Enabled {
		if err := refresher.Start(); err != nil {
			sugar.Fatalf("Failed to start refresh scheduler: %v", err)
		}
		defer refresher.Stop()
	}
	if cfg.Scheduler.RefreshOnStart {
		go refresher.RunNow(ctx, service.TriggerStartup)
	}

	// 10. API Server
	var publicKey *rsa.PublicKey
	if cfg.Auth.Enabled {
		publicKey, err = api.LoadPublicKey(cfg.Auth.JWTPublicKeyPath)
		if err != nil {
			sugar.Fatalf("JWT authentication enabled but unusable: %v", err)
		}
		sugar.Info("JWT Authentication enabled for /screening/*")
	} else {
		sugar.Warn("JWT Authentication DISABLED")
	}

	e := api.NewRouter(
		api.NewScreeningHandler(screeningService, cfg.Screening.MaxBatchProfiles, logger),
		api.NewNamesHandler(),
		api.RouterConfig{
			BodyLimit:      cfg.Server.BodyLimit,
			PublicKey:      publicKey,
			Issuer:         cfg.Auth.JWTIssuer,
			Gatherer:       registry,
			PropagateTrace: cfg.Tracing.Enabled,
		},
		logger,
	)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		sugar.Infof("Listening on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Shutting down the server: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sugar.Info("Shutting down service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("Server shutdown failed: %v", err)
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// newEngine registers the enabled feeds. Every source shares one cache and
// one fetcher.
func newEngine(cfg config.SourcesConfig, m *metrics.Metrics, logger *zap.Logger, opts []watchlist.FeedOption) (*screening.Engine, error) {
	cache := watchlist.NewSourceCache(cfg.StaleAfter)
	fetcher := watchlist.NewHTTPFetcher(&http.Client{}, watchlist.HTTPFetcherConfig{
		Timeout:   cfg.FetchTimeout,
		MaxBytes:  cfg.MaxFeedBytes,
		UserAgent: cfg.UserAgent,
	})
	opts = append(opts, watchlist.WithMetrics(m), watchlist.WithFailureBackoff(cfg.FailureBackoff))

	var regs []screening.Registration
	if cfg.OFAC.Enabled {
		src, err := watchlist.NewOFACSource(cfg.OFAC.URL, fetcher, cache, logger, opts...)
		if err != nil {
			return nil, err
		}
		regs = append(regs, screening.Registration{Source: src, Weight: cfg.OFAC.Weight})

		if cfg.OFAC.IncludeConsolidated {
			cons, err := watchlist.NewOFACConsolidatedSource(cfg.OFAC.ConsolidatedURL, fetcher, cache, logger, opts...)
			if err != nil {
				return nil, err
			}
			regs = append(regs, screening.Registration{Source: cons, Weight: cfg.OFAC.Weight})
		}
	}
	if cfg.UN.Enabled {
		src, err := watchlist.NewUNSource(cfg.UN.URL, fetcher, cache, logger, opts...)
		if err != nil {
			return nil, err
		}
		regs = append(regs, screening.Registration{Source: src, Weight: cfg.UN.Weight})
	}
	if len(regs) == 0 {
		return nil, fmt.Errorf("no watchlist source is enabled")
	}

	engine := screening.NewEngine(logger, m, regs...)
	logger.Info("Watchlists registered", zap.Strings("sources", engine.Sources()))
	return engine, nil
}
