package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/internal/infrastructure/config"
	kafkainfra "github.com/mkdev28/Cropp/internal/infrastructure/kafka"
	"github.com/mkdev28/Cropp/internal/infrastructure/persistence"
	grpcpresentation "github.com/mkdev28/Cropp/internal/presentation/grpc"
	"github.com/mkdev28/Cropp/internal/presentation/rest"
	"github.com/mkdev28/Cropp/internal/presentation/schema"
	"github.com/mkdev28/Cropp/pkg/auth"
	pkgkafka "github.com/mkdev28/Cropp/pkg/kafka"
	"github.com/mkdev28/Cropp/pkg/observability"
	"github.com/mkdev28/Cropp/pkg/tlsutil"
)

const readinessInterval = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("risk-service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})
	logger.Info("starting risk-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Tracing.
	if cfg.TracingEnabled() {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    cfg.OTLPInsecure,
			SampleRatio: cfg.TraceSampleRate,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// Metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()
	metrics, err := observability.NewScoringMetrics(meterProvider.Meter("github.com/mkdev28/Cropp"))
	if err != nil {
		return err
	}

	// Stores.
	dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
	stores, err := persistence.Open(dbCtx, persistence.Options{
		DatabaseURL:   cfg.DatabaseURL,
		RunMigrations: cfg.RunMigrations,
		RegistryPath:  cfg.RegistryPath,
	}, logger)
	dbCancel()
	if err != nil {
		return err
	}
	defer stores.Close()

	// Messaging.
	kafkaCfg := pkgkafka.Config{
		Brokers:       cfg.KafkaBrokers,
		TLS:           cfg.KafkaTLS,
		SASLEnabled:   cfg.KafkaSASLMechanism != "",
		SASLMechanism: cfg.KafkaSASLMechanism,
		SASLUsername:  cfg.KafkaSASLUsername,
		SASLPassword:  cfg.KafkaSASLPassword,
	}
	var publisher port.EventPublisher
	if cfg.KafkaEnabled() {
		producer, err := pkgkafka.NewProducer(kafkaCfg)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = kafkainfra.NewPublisher(producer, cfg.KafkaTopic, logger)
	} else {
		logger.Info("kafka not configured, domain events are not published")
	}

	// Use cases.
	active := usecase.NewActiveBundle(nil)
	activateBundle := usecase.NewActivateBundle(stores.Bundles, active, publisher, metrics, logger)
	if err := activateBundle.LoadActive(ctx); err != nil {
		return err
	}
	scoreFarm := usecase.NewScoreFarm(active, stores.Assessments, publisher, metrics, logger)
	scoreBatch := usecase.NewScoreBatch(active, metrics, logger)
	explainFarm := usecase.NewExplainFarm(active)
	modelInfo := usecase.NewGetModelInfo(active)
	var (
		getAssessment   *usecase.GetAssessment
		listAssessments *usecase.ListAssessments
	)
	if stores.Assessments != nil {
		getAssessment = usecase.NewGetAssessment(stores.Assessments)
		listAssessments = usecase.NewListAssessments(stores.Assessments)
	}

	// Activations made by other replicas.
	if cfg.KafkaEnabled() {
		listener := kafkainfra.NewActivationListener(activateBundle, logger)
		consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.KafkaTopic, listener.Handle, logger)
		if err != nil {
			return fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("activation consumer stopped", "error", err)
			}
		}()
	}

	// Auth.
	var jwtService *auth.JWTService
	if cfg.AuthEnabled() {
		jwtCfg := auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}
		if cfg.JWTPublicKeyFile != "" {
			pem, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
			if err != nil {
				return err
			}
			jwtCfg.PublicKeyPEM = string(pem)
		}
		if jwtService, err = auth.NewJWTService(jwtCfg); err != nil {
			return err
		}
	} else {
		logger.Warn("JWT not configured, API authentication disabled")
	}

	tlsFiles := tlsutil.Files{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}

	// gRPC server.
	grpcHandler := grpcpresentation.NewRiskServiceHandler(scoreFarm, scoreBatch, modelInfo, activateBundle, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:     cfg.GRPCAddress(),
		ServiceName: cfg.ServiceName,
		JWT:         jwtService,
		TLS:         tlsFiles,
		Reflection:  cfg.GRPCReflection,
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}
	healthHandler := rest.NewHealthHandler(cfg.ServiceName, active, logger)
	healthHandler.AddCheck("store", stores.Ping)
	apiHandler := rest.NewHandler(rest.Deps{
		ScoreFarm:       scoreFarm,
		ScoreBatch:      scoreBatch,
		ExplainFarm:     explainFarm,
		ModelInfo:       modelInfo,
		GetAssessment:   getAssessment,
		ListAssessments: listAssessments,
	}, validator, logger)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: rest.NewRouter(apiHandler, healthHandler, rest.RouterConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			JWT:            jwtService,
			Metrics:        metricsHandler,
		}, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if tlsFiles.Enabled() {
		if httpServer.TLSConfig, err = tlsutil.ServerConfig(tlsFiles); err != nil {
			return err
		}
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		var err error
		if tlsFiles.Enabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	go trackReadiness(ctx, active, grpcServer)

	logger.Info("risk-service started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"model_loaded", active.Ready(),
	)

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown.
	logger.Info("shutting down risk-service")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("risk-service stopped")
	return runErr
}

// trackReadiness mirrors the bundle holder into the gRPC health service.
func trackReadiness(ctx context.Context, active *usecase.ActiveBundle, srv *grpcpresentation.Server) {
	srv.SetServing(active.Ready())
	ticker := time.NewTicker(readinessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			srv.SetServing(active.Ready())
		}
	}
}
