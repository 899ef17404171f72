package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/memories-server/config"
	kafkactrl "github.com/andreyxaxa/memories-server/internal/controller/kafka"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi"
	"github.com/andreyxaxa/memories-server/internal/controller/worker/redrive"
	infrakafka "github.com/andreyxaxa/memories-server/internal/infrastructure/kafka"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/processor"
	"github.com/andreyxaxa/memories-server/internal/repo/persistent"
	"github.com/andreyxaxa/memories-server/internal/usecase/account"
	"github.com/andreyxaxa/memories-server/internal/usecase/deadletter"
	"github.com/andreyxaxa/memories-server/internal/usecase/derivation"
	"github.com/andreyxaxa/memories-server/internal/usecase/retrieval"
	"github.com/andreyxaxa/memories-server/internal/usecase/token"
	"github.com/andreyxaxa/memories-server/internal/usecase/upload"
	"github.com/andreyxaxa/memories-server/migrations"
	"github.com/andreyxaxa/memories-server/pkg/httpserver"
	"github.com/andreyxaxa/memories-server/pkg/kafka/consumer"
	"github.com/andreyxaxa/memories-server/pkg/kafka/producer"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/andreyxaxa/memories-server/pkg/postgres"
	"github.com/andreyxaxa/memories-server/pkg/s3client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - metrics.New: %w", err))
	}

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region),
		s3client.UsePathStyle(cfg.S3.UsePathStyle),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}
	objectStore := persistent.NewObjectStore(s3c, cfg.S3.Bucket)

	// postgres
	err = postgres.Migrate(ctx, cfg.PG.URL, migrations.FS, ".")
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.Migrate: %w", err))
	}

	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	imageRecords := persistent.NewImageRecordRepo(pg)

	// Use-Case
	tokenUseCase := token.New(cfg.Auth.Secret, cfg.Auth.PreviousSecrets, cfg.Auth.TokenExpiry)

	accountUseCase := account.New(persistent.NewUserRepo(pg), tokenUseCase, cfg.Auth.BcryptCost, l)

	uploadUseCase := upload.New(imageRecords, objectStore, l,
		upload.MaxFiles(cfg.Upload.MaxFiles),
		upload.Concurrency(cfg.Upload.Concurrency),
		upload.PutURLExpiry(cfg.S3.PutURLExpiry),
		upload.Metrics(m),
	)

	retrievalUseCase := retrieval.New(imageRecords, objectStore, l,
		retrieval.Concurrency(cfg.Upload.Concurrency),
		retrieval.GetURLExpiry(cfg.S3.GetURLExpiry),
		retrieval.ThumbnailURLExpiry(cfg.S3.ThumbnailURLExpiry),
		retrieval.Metrics(m),
	)

	deadLetterUseCase := deadletter.New(persistent.NewDeadLetterRepo(pg), pg, cfg.Derivation.MaxRedrives, l)

	derivationUseCase := derivation.New(imageRecords, objectStore,
		processor.New(
			processor.MaxPixels(cfg.Derivation.MaxPixels),
			processor.MaxAspectRatio(cfg.Derivation.MaxAspectRatio),
		),
		deadLetterUseCase, l,
		derivation.ThumbnailSize(cfg.Derivation.ThumbnailSize),
		derivation.MaxAttempts(cfg.Derivation.MaxAttempts),
		derivation.Backoff(cfg.Derivation.InitialBackoff, cfg.Derivation.MaxBackoff),
		derivation.CPUTimeout(cfg.KafkaController.CPUTimeout),
		derivation.Metrics(m),
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Redrive Relay Worker
	redriveRelay := redrive.New(
		deadLetterUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic),
		m,
		l,
		cfg.RedriveRelay.PollInterval,
		cfg.RedriveRelay.CleanupInterval,
		cfg.RedriveRelay.MarkFailedInterval,
		cfg.RedriveRelay.ProcessBatchTimeout,
		cfg.RedriveRelay.BatchSize,
		cfg.RedriveRelay.MaxRetries,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		derivationUseCase,
		infrakafka.NewEventConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.Workers,
		kafkactrl.RetryBackoff(cfg.KafkaController.RetryInitial, cfg.KafkaController.RetryMax),
	)

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ErrorHandler(restapi.ErrorHandler(l)),
	)
	restapi.NewRouter(httpServer.App, cfg, restapi.UseCases{
		Tokens:    tokenUseCase,
		Accounts:  accountUseCase,
		Uploads:   uploadUseCase,
		Retrieval: retrievalUseCase,
	}, m, reg, l)

	// Start Components
	err = redriveRelay.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - redriveRelay.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
	}

	rrShutdownCtx, rrShutdownCancel := context.WithTimeout(ctx, cfg.RedriveRelay.ShutdownTimeout)
	defer rrShutdownCancel()
	err = redriveRelay.Shutdown(rrShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - redriveRelay.Shutdown: %w", err))
	}
}
