package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/molscore/internal/domain/scoring"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 5 * time.Minute
	DefaultServerShutdownTimeout = 30 * time.Second
	DefaultServerMaxBodySize     = 1 << 20

	DefaultEngineCommand         = "reinvent"
	DefaultEngineFormat          = "toml"
	DefaultEngineDevice          = scoring.DefaultDevice
	DefaultEngineTimeout         = 2 * time.Minute
	DefaultEngineMaxConcurrent   = 4
	DefaultEngineStderrTailBytes = 4096

	DefaultScoringProperty = "qed"

	DefaultCacheTTL       = 24 * time.Hour
	DefaultCacheKeyPrefix = "molscore:score:"

	DefaultRedisMode     = "standalone"
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPoolSize = 10

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "molscore-worker"
	DefaultKafkaRequestTopic = "molscore.score.request"
	DefaultKafkaResultTopic  = "molscore.score.result"
	DefaultKafkaDLQTopic     = "molscore.score.request.dlq"
	DefaultKafkaMaxRetries   = 3
	DefaultKafkaRetryBackoff = time.Second
	DefaultKafkaConcurrency  = 2

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "molscore-runs"

	DefaultMetricsNamespace = "molscore"
	DefaultMetricsPath      = "/metrics"

	DefaultWorkerHealthPort = 8081

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns a Config with every default applied, including the stock
// scoring parameters.  It is valid as returned.
func Default() *Config {
	cfg := &Config{}
	cfg.Scoring.Parameters = scoring.DefaultParameters()
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set are left unchanged.  The scoring parameter bag is only replaced
// as a whole when it was left entirely empty, because boolean flags in it
// cannot be told apart from an explicit false.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.Command == "" {
		cfg.Engine.Command = DefaultEngineCommand
	}
	if cfg.Engine.Format == "" {
		cfg.Engine.Format = DefaultEngineFormat
	}
	if cfg.Engine.Device == "" {
		cfg.Engine.Device = DefaultEngineDevice
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = DefaultEngineTimeout
	}
	if cfg.Engine.MaxConcurrent == 0 {
		cfg.Engine.MaxConcurrent = DefaultEngineMaxConcurrent
	}
	if cfg.Engine.StderrTailBytes == 0 {
		cfg.Engine.StderrTailBytes = DefaultEngineStderrTailBytes
	}

	// ── Scoring ───────────────────────────────────────────────────────────────
	if cfg.Scoring.DefaultProperty == "" {
		cfg.Scoring.DefaultProperty = DefaultScoringProperty
	}
	if parametersEmpty(cfg.Scoring.Parameters) {
		cfg.Scoring.Parameters = scoring.DefaultParameters()
	}

	// ── Cache / Redis ─────────────────────────────────────────────────────────
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = DefaultKafkaRequestTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultKafkaResultTopic
	}
	if cfg.Kafka.DLQTopic == "" {
		cfg.Kafka.DLQTopic = DefaultKafkaDLQTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = DefaultKafkaRetryBackoff
	}
	if cfg.Kafka.Concurrency == 0 {
		cfg.Kafka.Concurrency = DefaultKafkaConcurrency
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Metrics / Worker ──────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func parametersEmpty(p scoring.Parameters) bool {
	return p.ScoringType == "" &&
		p.Alerts.Name == "" && len(p.Alerts.SMARTS) == 0 &&
		p.QED.Name == "" && p.MW.Name == "" &&
		p.Tanimoto.Name == "" && len(p.Tanimoto.SMILES) == 0 &&
		p.PMI.Name == ""
}

// registerDefaults seeds v with every default key.  Besides supplying values,
// this makes each key known to viper so that AutomaticEnv can override it
// during Unmarshal (e.g. MOLSCORE_SCORING_PARAMETERS_QED_WEIGHT).
func registerDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)

	v.SetDefault("engine.command", d.Engine.Command)
	v.SetDefault("engine.args", []string{})
	v.SetDefault("engine.format", d.Engine.Format)
	v.SetDefault("engine.device", d.Engine.Device)
	v.SetDefault("engine.work_dir", "")
	v.SetDefault("engine.env", []string{})
	v.SetDefault("engine.responder_token", "")
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("engine.max_concurrent", d.Engine.MaxConcurrent)
	v.SetDefault("engine.artifact_dir", "")
	v.SetDefault("engine.artifact_prefix", "")
	v.SetDefault("engine.stderr_tail_bytes", d.Engine.StderrTailBytes)

	p := d.Scoring.Parameters
	v.SetDefault("scoring.default_property", d.Scoring.DefaultProperty)
	v.SetDefault("scoring.parameters.scoring_type", p.ScoringType)
	v.SetDefault("scoring.parameters.parallel", p.Parallel)
	v.SetDefault("scoring.parameters.alerts.name", p.Alerts.Name)
	v.SetDefault("scoring.parameters.alerts.smarts", p.Alerts.SMARTS)
	v.SetDefault("scoring.parameters.qed.name", p.QED.Name)
	v.SetDefault("scoring.parameters.qed.weight", p.QED.Weight)
	v.SetDefault("scoring.parameters.mw.name", p.MW.Name)
	v.SetDefault("scoring.parameters.mw.weight", p.MW.Weight)
	v.SetDefault("scoring.parameters.mw.transform.type", p.MW.Transform.Type)
	v.SetDefault("scoring.parameters.mw.transform.high", p.MW.Transform.High)
	v.SetDefault("scoring.parameters.mw.transform.low", p.MW.Transform.Low)
	v.SetDefault("scoring.parameters.mw.transform.coef_div", p.MW.Transform.CoefDiv)
	v.SetDefault("scoring.parameters.mw.transform.coef_si", p.MW.Transform.CoefSi)
	v.SetDefault("scoring.parameters.mw.transform.coef_se", p.MW.Transform.CoefSe)
	v.SetDefault("scoring.parameters.tanimoto.name", p.Tanimoto.Name)
	v.SetDefault("scoring.parameters.tanimoto.weight", p.Tanimoto.Weight)
	v.SetDefault("scoring.parameters.tanimoto.smiles", p.Tanimoto.SMILES)
	v.SetDefault("scoring.parameters.tanimoto.radius", p.Tanimoto.Radius)
	v.SetDefault("scoring.parameters.tanimoto.use_counts", p.Tanimoto.UseCounts)
	v.SetDefault("scoring.parameters.tanimoto.use_features", p.Tanimoto.UseFeatures)
	v.SetDefault("scoring.parameters.pmi.name", p.PMI.Name)
	v.SetDefault("scoring.parameters.pmi.weight_1", p.PMI.Weight1)
	v.SetDefault("scoring.parameters.pmi.property_1", p.PMI.Property1)
	v.SetDefault("scoring.parameters.pmi.weight_2", p.PMI.Weight2)
	v.SetDefault("scoring.parameters.pmi.property_2", p.PMI.Property2)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.key_prefix", d.Cache.KeyPrefix)

	v.SetDefault("redis.mode", d.Redis.Mode)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.addrs", []string{})
	v.SetDefault("redis.master_name", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)

	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.group_id", d.Kafka.GroupID)
	v.SetDefault("kafka.request_topic", d.Kafka.RequestTopic)
	v.SetDefault("kafka.result_topic", d.Kafka.ResultTopic)
	v.SetDefault("kafka.dlq_topic", d.Kafka.DLQTopic)
	v.SetDefault("kafka.max_retries", d.Kafka.MaxRetries)
	v.SetDefault("kafka.retry_backoff", d.Kafka.RetryBackoff)
	v.SetDefault("kafka.concurrency", d.Kafka.Concurrency)
	v.SetDefault("kafka.ensure_topics", false)
	v.SetDefault("kafka.replication_factor", d.Kafka.ReplicationFactor)
	v.SetDefault("kafka.security.sasl_enabled", false)
	v.SetDefault("kafka.security.sasl_mechanism", "")
	v.SetDefault("kafka.security.sasl_username", "")
	v.SetDefault("kafka.security.sasl_password", "")
	v.SetDefault("kafka.security.tls_enabled", false)
	v.SetDefault("kafka.security.tls_ca_path", "")

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", d.MinIO.Endpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", d.MinIO.Bucket)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.retention_days", 0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("worker.health_port", d.Worker.HealthPort)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

//Personal.AI order the ending
