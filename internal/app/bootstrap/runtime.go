package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"

	cacheadapter "github.com/dubinc/partner-integrity/internal/adapters/cache"
	"github.com/dubinc/partner-integrity/internal/adapters/delivery"
	eventadapter "github.com/dubinc/partner-integrity/internal/adapters/events"
	grpcadapter "github.com/dubinc/partner-integrity/internal/adapters/grpc"
	httpadapter "github.com/dubinc/partner-integrity/internal/adapters/http"
	"github.com/dubinc/partner-integrity/internal/adapters/postgres"
	"github.com/dubinc/partner-integrity/internal/adapters/security"
	"github.com/dubinc/partner-integrity/internal/application"
	"github.com/dubinc/partner-integrity/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping partner integrity service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	repos := postgres.NewRepositories(db)
	disposableDomains := cacheadapter.NewRedisDisposableDomainStore(redisClient)
	if cfg.DisposableDomainsFile != "" {
		if err := seedDisposableDomains(ctx, disposableDomains, cfg.DisposableDomainsFile); err != nil {
			logger.Warn("disposable domain seed failed", "file", cfg.DisposableDomainsFile, "error", err)
		}
	}

	var queue ports.DeliveryQueue
	if cfg.DeliveryQueueURL != "" {
		queue = delivery.NewQueueClient(delivery.QueueClientConfig{
			BaseURL: strings.TrimRight(cfg.DeliveryQueueURL, "/"),
			Token:   cfg.DeliveryQueueToken,
		})
	} else {
		logger.Warn("no delivery queue configured, postbacks stay in memory")
		queue = delivery.NewMemoryQueue()
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			CallbackBaseURL: cfg.CallbackBaseURL,
			ServiceName:     cfg.ServiceID,
			DedupTTL:        cfg.DedupTTL,
		},
		Logger:            logger,
		Enrollments:       repos.Enrollments,
		PartnerUsers:      repos.PartnerUsers,
		FraudEvents:       repos.FraudEvents,
		Commissions:       repos.Commissions,
		Postbacks:         repos.Postbacks,
		EventDedup:        repos.EventDedup,
		DisposableDomains: disposableDomains,
		Queue:             queue,
		Signer:            security.NewHMACSigner(),
	})

	handler := httpadapter.NewHandler(httpadapter.HandlerConfig{
		Service:       svc,
		InternalToken: cfg.InternalToken,
		ReadyCheck: func(ctx context.Context) error {
			return sqlDB.PingContext(ctx)
		},
	})
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewIntegrityInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	var publisher ports.EventPublisher
	var consumer eventadapter.Consumer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, nil)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		kafkaConsumer, err := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopics)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka consumer: %w", err)
		}
		publisher = kafkaPublisher
		consumer = kafkaConsumer
	} else {
		logger.Warn("no kafka brokers configured, events stay in memory")
		publisher = eventadapter.NewMemoryPublisher()
		consumer = eventadapter.NewMemoryConsumer()
	}

	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		publisher,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
	)
	consumerWorker := eventadapter.NewConsumerWorker(logger, consumer, svc, cfg.ConsumerPollEvery)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		consumer:   consumerWorker,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("outbox worker started")
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("outbox worker: %w", err)
		}
	}()
	go func() {
		r.logger.Info("consumer worker started")
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("consumer worker: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("worker failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return runErr
}

func seedDisposableDomains(ctx context.Context, store *cacheadapter.RedisDisposableDomainStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	domains := make([]string, 0, 1024)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return store.Seed(ctx, domains)
}
