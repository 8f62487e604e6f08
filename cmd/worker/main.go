// Command worker scores molecules requested over Kafka and publishes the
// results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/molscore/internal/bootstrap"
	"github.com/turtacn/molscore/internal/config"
	"github.com/turtacn/molscore/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/molscore/internal/interfaces/http"
	"github.com/turtacn/molscore/internal/interfaces/http/handlers"
	"github.com/turtacn/molscore/internal/interfaces/worker"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: search ./config.yaml, ./configs, /etc/molscore)")
	consumers := flag.Int("consumers", 0, "consumers in the group (overrides kafka.concurrency)")
	flag.Parse()

	if err := run(*configPath, *consumers); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, consumers int) error {
	var opts []config.LoadOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	if consumers > 0 {
		opts = append(opts, config.WithOverrides(map[string]interface{}{"kafka.concurrency": consumers}))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	stack, err := bootstrap.NewScoring(cfg, logger, bootstrap.Options{WithCache: true, WithArchive: true})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stack.Close(); cerr != nil {
			logger.Warn("failed to close scoring stack", logging.Err(cerr))
		}
	}()

	if configPath != "" {
		if err := config.Watch(configPath, func(next *config.Config) { _ = stack.Reload(next) }, stack.ReloadFailed); err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	security := kafka.SecurityConfig{
		SASLEnabled:   cfg.Kafka.Security.SASLEnabled,
		SASLMechanism: cfg.Kafka.Security.SASLMechanism,
		SASLUsername:  cfg.Kafka.Security.SASLUsername,
		SASLPassword:  cfg.Kafka.Security.SASLPassword,
		TLSEnabled:    cfg.Kafka.Security.TLSEnabled,
		TLSCAPath:     cfg.Kafka.Security.TLSCAPath,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.EnsureTopics {
		if err := ensureTopics(ctx, cfg, logger); err != nil {
			return err
		}
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		Acks:     "all",
		Security: security,
	}, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	handler := worker.NewScoreHandler(stack.Service, producer, cfg.Kafka.ResultTopic, logger)

	var observe func(string, error, time.Duration)
	if stack.Metrics != nil {
		observe = stack.Metrics.ObserveMessage
	}

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Kafka.Concurrency; i++ {
		consumerOpts := []kafka.ConsumerOption{kafka.WithDeadLetterPublisher(producer)}
		if observe != nil {
			consumerOpts = append(consumerOpts, kafka.WithObserver(observe))
		}
		c, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.GroupID,
			Topic:    cfg.Kafka.RequestTopic,
			Security: security,
			Retry: kafka.RetryConfig{
				MaxRetries:      cfg.Kafka.MaxRetries,
				RetryBackoff:    cfg.Kafka.RetryBackoff,
				DeadLetterTopic: cfg.Kafka.DLQTopic,
			},
		}, handler.Handle, logger, consumerOpts...)
		if err != nil {
			return err
		}
		defer c.Close()
		group.Go(func() error { return c.Run(gctx) })
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:  handlers.NewHealthHandler(version, stack.HealthReporter(), stack.HealthChecks()...),
		MetricsHandler: stack.MetricsHandler(),
		MetricsPath:    cfg.Metrics.Path,
	})
	health := httpserver.NewServer(config.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Worker.HealthPort,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)
	group.Go(health.Start)
	group.Go(func() error {
		<-gctx.Done()
		return health.Shutdown(context.Background())
	})

	logger.Info("starting molscore worker",
		logging.String("version", version),
		logging.String("topic", cfg.Kafka.RequestTopic),
		logging.String("group", cfg.Kafka.GroupID),
		logging.Int("consumers", cfg.Kafka.Concurrency),
		logging.Int("health_port", cfg.Worker.HealthPort),
	)

	err = group.Wait()
	logger.Info("worker stopped")
	return err
}

func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.ScoringTopics(
		cfg.Kafka.RequestTopic, cfg.Kafka.ResultTopic, cfg.Kafka.DLQTopic, cfg.Kafka.ReplicationFactor))
}

//Personal.AI order the ending
