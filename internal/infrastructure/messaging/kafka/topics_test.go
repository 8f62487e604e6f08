package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	existing map[string]bool
	created  []kafka.TopicConfig
	readErr  error
}

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	return nil
}

func (m *mockConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.existing[topics[0]] {
		return []kafka.Partition{{Topic: topics[0]}}, nil
	}
	return nil, kafka.UnknownTopicOrPartition
}

func (m *mockConn) Close() error { return nil }

func TestScoringTopics(t *testing.T) {
	topics := ScoringTopics("req", "res", "", 0)
	require.Len(t, topics, 2)
	assert.Equal(t, "req", topics[0].Name)
	assert.Equal(t, 1, topics[0].ReplicationFactor)
}

func TestTopicManager_EnsureTopics(t *testing.T) {
	conn := &mockConn{existing: map[string]bool{"req": true}}
	m := NewTopicManagerWithConn(conn, nil)

	require.NoError(t, m.EnsureTopics(context.Background(), ScoringTopics("req", "res", "dlq", 3)))

	require.Len(t, conn.created, 2)
	assert.Equal(t, "res", conn.created[0].Topic)
	assert.Equal(t, 3, conn.created[0].ReplicationFactor)
	assert.Equal(t, "dlq", conn.created[1].Topic)
	assert.Equal(t, "2592000000", conn.created[1].ConfigEntries[0].ConfigValue)
}

func TestTopicManager_ReadFailure(t *testing.T) {
	m := NewTopicManagerWithConn(&mockConn{readErr: errors.New("io timeout")}, nil)
	assert.Error(t, m.EnsureTopics(context.Background(), ScoringTopics("req", "", "", 1)))
}

func TestTopicManager_InvalidConfig(t *testing.T) {
	m := NewTopicManagerWithConn(&mockConn{}, nil)
	assert.Error(t, m.EnsureTopics(context.Background(), []TopicConfig{{Name: "x"}}))
}

//Personal.AI order the ending
