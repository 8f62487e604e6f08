// Package config defines the configuration structures of molscore.  This file
// holds plain data types and validation only; loading lives in loader.go and
// defaults in defaults.go.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EngineConfig configures the external scoring engine and the transfer
// artifacts exchanged with it.
type EngineConfig struct {
	Command         string        `mapstructure:"command"`
	Args            []string      `mapstructure:"args"`
	Format          string        `mapstructure:"format"` // "toml" | "json"
	Device          string        `mapstructure:"device"`
	WorkDir         string        `mapstructure:"work_dir"`
	Env             []string      `mapstructure:"env"`
	ResponderToken  string        `mapstructure:"responder_token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	ArtifactDir     string        `mapstructure:"artifact_dir"`
	ArtifactPrefix  string        `mapstructure:"artifact_prefix"`
	StderrTailBytes int           `mapstructure:"stderr_tail_bytes"`
}

// ScoringConfig holds the default property and the parameter bag.
type ScoringConfig struct {
	DefaultProperty string             `mapstructure:"default_property"`
	Parameters      scoring.Parameters `mapstructure:"parameters"`
}

// CacheConfig controls the score cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // "standalone" | "sentinel" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds the asynchronous scoring topics and consumer tunables.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	RequestTopic string        `mapstructure:"request_topic"`
	ResultTopic  string        `mapstructure:"result_topic"`
	DLQTopic     string        `mapstructure:"dlq_topic"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	Concurrency  int           `mapstructure:"concurrency"`
	// EnsureTopics provisions missing topics at worker start-up.
	EnsureTopics      bool                `mapstructure:"ensure_topics"`
	ReplicationFactor int                 `mapstructure:"replication_factor"`
	Security          KafkaSecurityConfig `mapstructure:"security"`
}

// KafkaSecurityConfig holds optional SASL and TLS settings for the brokers.
type KafkaSecurityConfig struct {
	SASLEnabled   bool   `mapstructure:"sasl_enabled"`
	SASLMechanism string `mapstructure:"sasl_mechanism"` // PLAIN | SCRAM-SHA-256 | SCRAM-SHA-512
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCAPath     string `mapstructure:"tls_ca_path"`
}

// MinIOConfig holds the run-archive object storage parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// RetentionDays expires archived runs; 0 keeps them forever.
	RetentionDays int `mapstructure:"retention_days"`
}

// MetricsConfig controls the Prometheus exposition.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// WorkerConfig holds settings specific to cmd/worker.
type WorkerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	Engine  EngineConfig      `mapstructure:"engine"`
	Scoring ScoringConfig     `mapstructure:"scoring"`
	Cache   CacheConfig       `mapstructure:"cache"`
	Redis   RedisConfig       `mapstructure:"redis"`
	Kafka   KafkaConfig       `mapstructure:"kafka"`
	MinIO   MinIOConfig       `mapstructure:"minio"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Worker  WorkerConfig      `mapstructure:"worker"`
	Log     logging.LogConfig `mapstructure:"log"`
}

// Validate performs semantic validation of a fully populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	if c.Engine.Command == "" {
		return fmt.Errorf("config: engine.command is required")
	}
	switch c.Engine.Format {
	case "toml", "json":
	default:
		return fmt.Errorf("config: engine.format %q is invalid; expected toml|json", c.Engine.Format)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("config: engine.timeout must be > 0, got %s", c.Engine.Timeout)
	}
	if c.Engine.MaxConcurrent < 1 {
		return fmt.Errorf("config: engine.max_concurrent must be >= 1, got %d", c.Engine.MaxConcurrent)
	}

	if _, err := scoring.ParseSelector(c.Scoring.DefaultProperty); err != nil {
		return fmt.Errorf("config: scoring.default_property %q is not a known property", c.Scoring.DefaultProperty)
	}
	if err := c.Scoring.Parameters.Validate(); err != nil {
		return fmt.Errorf("config: scoring.parameters: %w", err)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("config: cache.ttl must be > 0 when the cache is enabled")
		}
		switch c.Redis.Mode {
		case "standalone":
			if c.Redis.Addr == "" {
				return fmt.Errorf("config: redis.addr is required")
			}
		case "sentinel":
			if c.Redis.MasterName == "" || len(c.Redis.Addrs) == 0 {
				return fmt.Errorf("config: redis.master_name and redis.addrs are required in sentinel mode")
			}
		case "cluster":
			if len(c.Redis.Addrs) == 0 {
				return fmt.Errorf("config: redis.addrs is required in cluster mode")
			}
		default:
			return fmt.Errorf("config: redis.mode %q is invalid; expected standalone|sentinel|cluster", c.Redis.Mode)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" || c.Kafka.RequestTopic == "" || c.Kafka.ResultTopic == "" {
		return fmt.Errorf("config: kafka.group_id, kafka.request_topic and kafka.result_topic are required")
	}

	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.endpoint and minio.bucket are required when the archive is enabled")
		}
		if c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" {
			return fmt.Errorf("config: minio.access_key and minio.secret_key are required when the archive is enabled")
		}
	}

	if _, err := logging.ParseLevel(string(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// DefaultSelector returns the parsed default property.  Validate guarantees
// it parses.
func (c *Config) DefaultSelector() scoring.Selector {
	sel, _ := scoring.ParseSelector(c.Scoring.DefaultProperty)
	return sel
}

// EngineEnv returns the extra environment for the engine subprocess,
// including the responder token when set.
func (c *Config) EngineEnv() []string {
	env := append([]string{}, c.Engine.Env...)
	if c.Engine.ResponderToken != "" {
		env = append(env, "RESPONDER_TOKEN="+c.Engine.ResponderToken)
	}
	return env
}

//Personal.AI order the ending
