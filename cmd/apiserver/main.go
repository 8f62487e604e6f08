// Command apiserver serves the scoring API over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/molscore/internal/bootstrap"
	"github.com/turtacn/molscore/internal/config"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/molscore/internal/interfaces/http"
	"github.com/turtacn/molscore/internal/interfaces/http/handlers"
	"github.com/turtacn/molscore/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: search ./config.yaml, ./configs, /etc/molscore)")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	var opts []config.LoadOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	if port > 0 {
		opts = append(opts, config.WithOverrides(map[string]interface{}{"server.port": port}))
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

	routerCfg := httpserver.RouterConfig{
		ScoreHandler:   handlers.NewScoreHandler(stack.Service, cfg.Server.MaxBodySize, logger),
		HealthHandler:  handlers.NewHealthHandler(version, stack.HealthReporter(), stack.HealthChecks()...),
		Logger:         logger,
		MetricsHandler: stack.MetricsHandler(),
		MetricsPath:    cfg.Metrics.Path,
	}
	lc := middleware.DefaultLoggingConfig()
	lc.SlowThreshold = cfg.Engine.Timeout
	routerCfg.LoggingConfig = &lc
	if stack.Metrics != nil {
		routerCfg.HTTPMetrics = stack.Metrics
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	logger.Info("starting molscore API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("engine", cfg.Engine.Command),
		logging.String("default_property", cfg.Scoring.DefaultProperty),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

//Personal.AI order the ending
