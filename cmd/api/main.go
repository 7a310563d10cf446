package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/quantum-portal/api/internal/di"
	"github.com/quantum-portal/api/internal/handlers"
	"github.com/quantum-portal/api/internal/platform/auth"
	"github.com/quantum-portal/api/internal/platform/config"
	"github.com/quantum-portal/api/internal/platform/events"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/platform/idempotency"
	"github.com/quantum-portal/api/internal/platform/observability"
	platformstorage "github.com/quantum-portal/api/internal/platform/storage"
	firestoreRepo "github.com/quantum-portal/api/internal/repositories/firestore"
	"github.com/quantum-portal/api/internal/services"
)

const (
	uploadSignatureLimit  = 30
	uploadSignatureWindow = time.Minute
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger(observability.LoggerOptionsFromEnv("api"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)
	metrics := observability.NewMetrics()

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	storageClient, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}
	defer func() {
		if err := storageClient.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	infra := di.Infrastructure{
		Metrics: metrics,
		Logger:  services.EventLogger(observability.NewEventLogger(logger.Named("services"))),
		Build:   buildInfo,
		Clock:   time.Now,
		NewID:   func() string { return ulid.Make().String() },
	}

	if cfg.Media.Provider != services.MediaProviderCloudinary {
		signer, err := platformstorage.NewSignerFromKey(cfg.Storage.SignerKey)
		if err != nil {
			logger.Fatal("failed to parse storage signer key", zap.Error(err))
		}
		urlSigner, err := platformstorage.NewURLSigner(cfg.Storage.MediaBucket, signer)
		if err != nil {
			logger.Fatal("failed to initialise signed url client", zap.Error(err))
		}
		objects, err := platformstorage.NewObjects(storageClient, cfg.Storage.MediaBucket)
		if err != nil {
			logger.Fatal("failed to initialise media objects", zap.Error(err))
		}
		infra.MediaSigner = urlSigner
		infra.MediaObjects = objects
	}

	var pubsubClient *pubsub.Client
	if !cfg.PubSub.DisableContentEvent {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		topic := pubsubClient.Topic(cfg.PubSub.ContentEventsTopic)
		defer topic.Stop()
		publisher, err := events.NewPubSubPublisher(topic, events.WithRetry(3, 200*time.Millisecond))
		if err != nil {
			logger.Fatal("failed to initialise content event publisher", zap.Error(err))
		}
		infra.Events = publisher
	} else {
		logger.Warn("content events disabled; downstream caches will not be invalidated")
	}

	infra.Health, err = newHealthRepository(firestoreProvider, fetcher)
	if err != nil {
		logger.Warn("health: dependency checks unavailable", zap.Error(err))
	}
	infra.OptionalHealthChecks = []string{secretManagerCheck}

	container, err := di.NewContainer(ctx, cfg, registry, infra)
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()
	svc := container.Services

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient, "")
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(logger.Named("idempotency")),
		idempotency.WithObserver(metrics.ObserveIdempotency),
	)

	scheduler, err := services.NewScheduler(services.SchedulerDeps{
		Jobs:       scheduledJobs(cfg, svc.Publishing, idempotencyStore, logger.Named("scheduler")),
		Logger:     infra.Logger,
		CronLogger: observability.NewCronLogger(logger.Named("cron")),
	})
	if err != nil {
		logger.Fatal("failed to initialise scheduler", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase, auth.WithFirebaseRecorder(metrics))
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)
	tenancy := handlers.NewTenancy(svc.Tenants, cfg.Tenancy.Header)

	publicHandlers := handlers.NewPublicHandlers(
		handlers.WithPublicHomepage(svc.Homepage),
		handlers.WithPublicCategories(svc.Categories),
		handlers.WithPublicBrands(svc.Brands),
		handlers.WithPublicPages(svc.StaticPages, svc.DynamicPages),
		handlers.WithPublicNavigation(svc.Navigation),
		handlers.WithPublicCachePolicy(handlers.CachePolicy{
			MaxAge:               cfg.Cache.MaxAge,
			StaleWhileRevalidate: cfg.Cache.StaleWhileRevalidate,
		}),
	)
	adminHandlers := handlers.NewAdminHandlers(authenticator, tenancy,
		handlers.WithAdminMiddlewares(idempotencyMiddleware),
		handlers.WithAdminUploadRateLimit(uploadSignatureLimit, uploadSignatureWindow),
		handlers.WithAdminTenants(svc.Tenants),
		handlers.WithAdminCatalog(svc.Categories, svc.Brands),
		handlers.WithAdminPages(svc.StaticPages, svc.DynamicPages),
		handlers.WithAdminLayout(svc.Navigation, svc.Homepage),
		handlers.WithAdminMedia(svc.Media),
		handlers.WithAdminAudit(svc.Audit),
	)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
		metrics.Middleware,
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(svc.System),
	)

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithMetricsHandler(metrics.Handler()),
		handlers.WithPublicMiddlewares(tenancy.Public),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithInternalRoutes(handlers.NewInternalHandlers(svc.Publishing, time.Now).Routes),
	}
	if oidc := buildOIDCMiddleware(logger.Named("auth"), cfg, metrics); oidc != nil {
		opts = append(opts, handlers.WithInternalMiddlewares(oidc))
	}
	if hmac := buildHMACMiddleware(logger.Named("auth"), cfg, metrics); hmac != nil && svc.Media != nil {
		opts = append(opts,
			handlers.WithWebhookMiddlewares(hmac),
			handlers.WithWebhookRoutes(handlers.NewWebhookHandlers(svc.Media).Routes),
		)
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	scheduler.Start()

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("content api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler stop failed", zap.Error(err))
	}
}

// scheduledJobs returns the background work run in process: the publishing sweep and
// idempotency record cleanup.
func scheduledJobs(cfg config.Config, publishing services.PublishingService, store idempotency.Store, logger *zap.Logger) []services.ScheduledJob {
	var jobs []services.ScheduledJob
	if cfg.Publishing.Enabled && publishing != nil {
		jobs = append(jobs, services.ScheduledJob{
			Name: "publish-due-pages",
			Spec: cfg.Publishing.Schedule,
			Run: func(ctx context.Context) error {
				result, err := publishing.PublishDue(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				if published := result.StaticPages + result.DynamicPages; published > 0 || result.Failures > 0 {
					logger.Info("published scheduled pages",
						zap.Int("published", published),
						zap.Int("failures", result.Failures),
					)
				}
				return nil
			},
		})
	}
	if cfg.Idempotency.CleanupInterval > 0 {
		jobs = append(jobs, services.ScheduledJob{
			Name:    "idempotency-cleanup",
			Spec:    fmt.Sprintf("@every %s", cfg.Idempotency.CleanupInterval),
			Timeout: time.Minute,
			Run: func(ctx context.Context) error {
				removed, err := store.CleanupExpired(ctx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
				if err != nil {
					return err
				}
				if removed > 0 {
					logger.Info("idempotency cleanup removed records", zap.Int("count", removed))
				}
				return nil
			},
		})
	}
	return jobs
}
