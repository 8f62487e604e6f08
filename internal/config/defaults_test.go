package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/molscore/internal/domain/scoring"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultEngineFormat, cfg.Engine.Format)
	assert.Equal(t, DefaultEngineTimeout, cfg.Engine.Timeout)
	assert.Equal(t, DefaultScoringProperty, cfg.Scoring.DefaultProperty)
	assert.Equal(t, scoring.DefaultParameters(), cfg.Scoring.Parameters)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultKafkaDLQTopic, cfg.Kafka.DLQTopic)
	assert.Equal(t, DefaultCacheKeyPrefix, cfg.Cache.KeyPrefix)
	assert.Equal(t, "info", string(cfg.Log.Level))
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	params := scoring.DefaultParameters()
	params.Tanimoto.UseCounts = false
	params.QED.Weight = 0.5

	cfg := &Config{
		Server:  ServerConfig{Port: 9999},
		Engine:  EngineConfig{Timeout: 5 * time.Second, Format: "json"},
		Scoring: ScoringConfig{DefaultProperty: "pmi2", Parameters: params},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, "json", cfg.Engine.Format)
	assert.Equal(t, "pmi2", cfg.Scoring.DefaultProperty)
	assert.False(t, cfg.Scoring.Parameters.Tanimoto.UseCounts)
	assert.Equal(t, 0.5, cfg.Scoring.Parameters.QED.Weight)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
