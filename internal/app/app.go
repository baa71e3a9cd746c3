package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/auth"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/email"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/memory"
	mongoadapter "github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/mongo"
	natsadapter "github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/payment"
	redisadapter "github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/redis"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/tracer"
	httpserver "github.com/Abdurahmanit/GroupProject/rental-service/internal/port/http"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/repository"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/service"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	cfg            *config.Config
	log            logger.Logger
	server         *httpserver.Server
	metricsServer  *metrics.Server
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	natsConn       *nats.Conn
	tracerShutdown func(context.Context) error
}

// stores groups the repositories of the selected store driver.
type stores struct {
	listings      repository.ListingRepository
	applications  repository.ApplicationRepository
	tokens        repository.SecureTokenRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	transactor    repository.Transactor
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Logger initialized")
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s, Store: %s", cfg.Env, cfg.HTTPServer.Port, cfg.Store.Driver)

	application := &App{cfg: cfg, log: appLogger}

	application.tracerShutdown, err = tracer.Init(ctx, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	if cfg.Tracing.OTLPEndpoint != "" {
		appLogger.Infof("Tracing exports to %s", cfg.Tracing.OTLPEndpoint)
	}

	metricsManager := metrics.NewManager(cfg.Metrics.Namespace)
	application.metricsServer = metrics.NewServer(cfg.Metrics.Port, metricsManager.Registry, appLogger)

	st, err := application.initStore(ctx)
	if err != nil {
		return nil, err
	}

	var (
		listingCache repository.ListingCache
		listingLock  repository.ListingLock
	)
	if cfg.Redis.Enabled {
		appLogger.Info("Initializing Redis client...")
		redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Errorf("Failed to initialize Redis client: %v", err)
			return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
		}
		application.redisClient = redisClient
		listingCache = redisadapter.NewListingCache(redisClient)
		listingLock = redisadapter.NewListingLock(redisClient)
		appLogger.Info("Redis listing cache and approval lock initialized")
	}

	publisher := natsadapter.NewNoopPublisher()
	if cfg.NATS.Enabled {
		appLogger.Info("Initializing NATS connection...")
		conn, err := natsadapter.NewConnection(cfg.NATS, appLogger)
		if err != nil {
			appLogger.Errorf("Failed to connect to NATS: %v", err)
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		application.natsConn = conn
		publisher, err = natsadapter.NewNATSPublisher(conn)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		appLogger.Info("NATS publisher initialized")
	}

	var mailer email.Sender
	if cfg.SMTP.Enabled {
		mailer, err = email.NewSMTPSender(cfg.SMTP, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
		}
		appLogger.Info("SMTP notification channel initialized")
	}

	var photos s3.PhotoStorage
	if cfg.MinIO.Enabled {
		storage, err := s3.NewS3Storage(ctx, cfg.MinIO, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
		}
		photos = storage
		appLogger.Infof("MinIO photo storage initialized, bucket %s", cfg.MinIO.Bucket)
	}

	if cfg.Stripe.SecretKey == "" {
		appLogger.Warn("stripe.secret_key is empty, payment links cannot be created")
	}
	if cfg.Stripe.WebhookSecret == "" {
		appLogger.Warn("stripe.webhook_secret is empty, every payment webhook will be rejected")
	}
	stripeProvider := payment.NewStripeProvider(cfg.Stripe)

	notificationService := service.NewNotificationService(st.notifications, st.users, publisher, mailer, metricsManager, appLogger)
	rentalService := service.NewRentalService(service.RentalServiceDeps{
		Listings:      st.listings,
		Applications:  st.applications,
		Tokens:        st.tokens,
		Transactor:    st.transactor,
		ListingCache:  listingCache,
		ListingLock:   listingLock,
		Payments:      stripeProvider,
		Webhooks:      stripeProvider,
		Notifications: notificationService,
		Publisher:     publisher,
		Metrics:       metricsManager,
		Log:           appLogger,
	}, service.RentalConfig{
		PublicBaseURL:   cfg.HTTPServer.PublicBaseURL,
		Currency:        cfg.Stripe.Currency,
		ApprovalLockTTL: cfg.Redis.ApprovalLockTTL,
	})
	listingService := service.NewListingService(st.listings, st.applications, listingCache, photos, cfg.Redis.ListingCacheTTL, appLogger)
	userService := service.NewUserService(st.users, st.listings, st.applications, appLogger)
	appLogger.Info("Services initialized")

	handler := httpserver.NewHandler(rentalService, listingService, userService, notificationService, appLogger, httpserver.HandlerConfig{
		PaymentLandingPath: cfg.HTTPServer.PaymentLandingPath,
		MaxUploadBytes:     cfg.HTTPServer.MaxUploadBytes,
	})
	router := httpserver.NewRouter(handler, auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), metricsManager, appLogger)
	application.server = httpserver.NewServer(
		appLogger,
		cfg.HTTPServer.Port,
		cfg.HTTPServer.ReadTimeout,
		cfg.HTTPServer.WriteTimeout,
		cfg.HTTPServer.IdleTimeout,
		cfg.HTTPServer.TimeoutGraceful,
		router,
	)
	appLogger.Info("HTTP server instance created")

	return application, nil
}

func (a *App) initStore(ctx context.Context) (*stores, error) {
	if a.cfg.Store.Driver == config.StoreDriverMemory {
		a.log.Warn("Using the in-memory store: data is lost on restart and completions are not transactional")
		mem := memory.NewStore()
		return &stores{
			listings:      mem.Listings(),
			applications:  mem.Applications(),
			tokens:        mem.SecureTokens(),
			notifications: mem.Notifications(),
			users:         mem.Users(),
			transactor:    mem.Transactor(),
		}, nil
	}

	a.log.Info("Initializing MongoDB client...")
	mongoClient, err := mongoadapter.NewClient(ctx, a.cfg.MongoDB)
	if err != nil {
		a.log.Errorf("Failed to initialize MongoDB client: %v", err)
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	a.mongoClient = mongoClient
	a.log.Info("MongoDB client initialized successfully")

	db := mongoClient.Database(a.cfg.MongoDB.Database)
	if err := mongoadapter.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	if !a.cfg.MongoDB.Transactions {
		a.log.Warn("MongoDB transactions are disabled: payment completion falls back to claim-and-restore")
	}
	return &stores{
		listings:      mongoadapter.NewListingRepository(db),
		applications:  mongoadapter.NewApplicationRepository(db),
		tokens:        mongoadapter.NewSecureTokenRepository(db),
		notifications: mongoadapter.NewNotificationRepository(db),
		users:         mongoadapter.NewUserRepository(db),
		transactor:    mongoadapter.NewTransactor(mongoClient, a.cfg.MongoDB.Transactions),
	}, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	a.log.Info("HTTP server started in a goroutine")

	go func() {
		if err := a.metricsServer.Start(); err != nil {
			a.log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	} else {
		a.log.Info("HTTP server stopped successfully")
	}
	if err := a.metricsServer.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error stopping metrics server: %v", err)
	}

	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.log.Errorf("Error draining NATS connection: %v", err)
		} else {
			a.log.Info("NATS connection drained")
		}
	}

	a.log.Info("Closing database connections...")

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB connection closed successfully")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.log.Errorf("Error shutting down tracer provider: %v", err)
	}

	a.log.Info("Application shut down successfully")
	_ = a.log.Sync()
}
