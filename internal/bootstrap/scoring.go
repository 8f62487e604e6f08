// Package bootstrap assembles the scoring service and its optional
// infrastructure from a Config.  The process entry points share it.
package bootstrap

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/turtacn/molscore/internal/application/scoring"
	"github.com/turtacn/molscore/internal/config"
	domain "github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/database/redis"
	"github.com/turtacn/molscore/internal/infrastructure/engine"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molscore/internal/infrastructure/storage/minio"
	"github.com/turtacn/molscore/internal/interfaces/http/handlers"
)

// Options selects the optional parts of the stack.  The CLI scores locally
// and leaves both off.
type Options struct {
	WithCache   bool
	WithArchive bool
}

// Scoring is a wired scoring stack.
type Scoring struct {
	Service *scoring.Service
	Engine  *engine.CommandEngine
	// Metrics is nil when metrics are disabled.
	Metrics   *prometheus.ScoringMetrics
	Collector prometheus.MetricsCollector

	checkers []handlers.HealthChecker
	closers  []func() error
	logger   logging.Logger
}

// NewScoring builds the stack described by cfg.  On error everything opened
// so far is closed again.
func NewScoring(cfg *config.Config, logger logging.Logger, opts Options) (_ *Scoring, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Scoring{logger: logger.Named("bootstrap")}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	var svcOpts []scoring.Option
	var chanOpts []engine.ChannelOption

	if cfg.Metrics.Enabled {
		collector, cerr := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if cerr != nil {
			return nil, cerr
		}
		s.Collector = collector
		s.Metrics = prometheus.NewScoringMetrics(collector)
		svcOpts = append(svcOpts, scoring.WithMetrics(s.Metrics))
		chanOpts = append(chanOpts, engine.WithCleanupHook(s.Metrics.ArtifactCleanupFailed))
	}

	s.Engine, err = engine.NewCommandEngine(engine.CommandConfig{
		Command:         cfg.Engine.Command,
		Args:            cfg.Engine.Args,
		Format:          cfg.Engine.Format,
		WorkDir:         cfg.Engine.WorkDir,
		Env:             cfg.EngineEnv(),
		StderrTailBytes: cfg.Engine.StderrTailBytes,
	}, logger)
	if err != nil {
		return nil, err
	}
	s.checkers = append(s.checkers, handlers.CheckFunc{
		Component: "engine",
		Fn:        func(context.Context) error { return s.Engine.Available() },
	})
	if aerr := s.Engine.Available(); aerr != nil {
		s.logger.Warn("scoring engine not found on PATH", logging.Err(aerr))
	}

	channel := engine.NewChannel(s.Engine, engine.ChannelConfig{
		Dir:    cfg.Engine.ArtifactDir,
		Prefix: cfg.Engine.ArtifactPrefix,
	}, logger, chanOpts...)

	if opts.WithCache && cfg.Cache.Enabled {
		cache, cerr := s.openCache(cfg, logger)
		if cerr != nil {
			return nil, cerr
		}
		svcOpts = append(svcOpts, scoring.WithCache(cache))
	}

	if opts.WithArchive && cfg.MinIO.Enabled {
		client, merr := minio.NewClient(minio.Config{
			Endpoint:      cfg.MinIO.Endpoint,
			AccessKey:     cfg.MinIO.AccessKey,
			SecretKey:     cfg.MinIO.SecretKey,
			UseSSL:        cfg.MinIO.UseSSL,
			Region:        cfg.MinIO.Region,
			Bucket:        cfg.MinIO.Bucket,
			RetentionDays: cfg.MinIO.RetentionDays,
		}, logger)
		if merr != nil {
			return nil, merr
		}
		s.checkers = append(s.checkers, handlers.CheckFunc{Component: "minio", Fn: client.HealthCheck})
		svcOpts = append(svcOpts, scoring.WithArchiver(minio.NewRunArchive(client, logger)))
	}

	s.Service, err = scoring.NewService(channel, ServiceConfig(cfg), logger, svcOpts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scoring) openCache(cfg *config.Config, logger logging.Logger) (*redis.ScoreCache, error) {
	client, err := redis.NewClient(&redis.RedisConfig{
		Mode:         cfg.Redis.Mode,
		Addr:         cfg.Redis.Addr,
		Addrs:        cfg.Redis.Addrs,
		MasterName:   cfg.Redis.MasterName,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, client.Close)

	cacheOpts := []redis.CacheOption{redis.WithPrefix(cfg.Cache.KeyPrefix), redis.WithDefaultTTL(cfg.Cache.TTL)}
	if cfg.Engine.Timeout > 0 {
		// Room for one queued run ahead of this one.
		cacheOpts = append(cacheOpts, redis.WithLoadTimeout(2*cfg.Engine.Timeout))
	}
	cache := redis.NewScoreCache(redis.NewRedisCache(client, logger, cacheOpts...), cfg.Cache.TTL)
	s.checkers = append(s.checkers, handlers.CheckFunc{Component: "redis", Fn: cache.Ping})
	return cache, nil
}

// ServiceConfig maps the engine and scoring sections onto the service.
func ServiceConfig(cfg *config.Config) scoring.Config {
	return scoring.Config{
		DefaultProperty: cfg.DefaultSelector(),
		Parameters:      cfg.Scoring.Parameters,
		Device:          cfg.Engine.Device,
		Timeout:         cfg.Engine.Timeout,
		MaxConcurrent:   cfg.Engine.MaxConcurrent,
	}
}

// Reload applies the hot-reloadable part of cfg: the parameter bag and the
// default property.  Nothing is applied unless both are acceptable.
func (s *Scoring) Reload(cfg *config.Config) error {
	sel, err := domain.ParseSelector(cfg.Scoring.DefaultProperty)
	if err == nil {
		err = s.Service.UpdateParameters(cfg.Scoring.Parameters)
	}
	if err == nil {
		err = s.Service.UpdateDefaultProperty(sel)
	}
	if err != nil {
		s.logger.Error("configuration reload rejected", logging.Err(err))
	} else {
		s.logger.Info("scoring configuration reloaded", logging.String("default_property", sel.String()))
	}
	if s.Metrics != nil {
		s.Metrics.ConfigReloaded(err)
	}
	return err
}

// ReloadFailed records a configuration file that did not parse.
func (s *Scoring) ReloadFailed(err error) {
	s.logger.Error("configuration reload failed", logging.Err(err))
	if s.Metrics != nil {
		s.Metrics.ConfigReloaded(err)
	}
}

// HealthChecks returns the readiness probes of the wired dependencies.
func (s *Scoring) HealthChecks() []handlers.HealthChecker {
	return append([]handlers.HealthChecker(nil), s.checkers...)
}

// HealthReporter feeds readiness results into the health gauge.
func (s *Scoring) HealthReporter() handlers.StatusReporter {
	if s.Metrics == nil {
		return nil
	}
	return s.Metrics.SetHealth
}

// MetricsHandler returns the exposition handler, or nil when disabled.
func (s *Scoring) MetricsHandler() http.Handler {
	if s.Collector == nil {
		return nil
	}
	return s.Collector.Handler()
}

// Close releases the connections opened by NewScoring.
func (s *Scoring) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return stderrors.Join(errs...)
}

//Personal.AI order the ending
