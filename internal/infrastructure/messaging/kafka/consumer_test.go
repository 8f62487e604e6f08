package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/molscore/pkg/errors"
)

// mockKafkaReader serves a fixed list of messages, then blocks.
type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	fetchErr  error
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if m.fetchErr != nil {
		err := m.fetchErr
		m.fetchErr = nil
		m.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockKafkaReader) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

// recordingPublisher captures published messages.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) published() []*ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*ProducerMessage(nil), p.msgs...)
}

func newTestConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "molscore-worker",
		Topic:   "molscore.score.request",
		Retry: RetryConfig{
			MaxRetries:      2,
			RetryBackoff:    time.Millisecond,
			DeadLetterTopic: "molscore.score.request.dlq",
		},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(newTestConsumerConfig()))

	tests := []struct {
		name   string
		mutate func(*ConsumerConfig)
	}{
		{"no brokers", func(c *ConsumerConfig) { c.Brokers = nil }},
		{"no group", func(c *ConsumerConfig) { c.GroupID = "" }},
		{"no topic", func(c *ConsumerConfig) { c.Topic = "" }},
		{"bad offset reset", func(c *ConsumerConfig) { c.AutoOffsetReset = "middle" }},
		{"negative retries", func(c *ConsumerConfig) { c.Retry.MaxRetries = -1 }},
		{"sasl without credentials", func(c *ConsumerConfig) {
			c.Security = SecurityConfig{SASLEnabled: true, SASLMechanism: MechanismPlain}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConsumerConfig()
			tt.mutate(&cfg)
			err := ValidateConsumerConfig(cfg)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation), "got %v", err)
		})
	}
}

func runUntil(t *testing.T, c *Consumer, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	require.Eventually(t, done, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{
		{Topic: "molscore.score.request", Offset: 7, Value: []byte(`{"molecule":"CCO"}`),
			Headers: []kafka.Header{{Key: HeaderRequestID, Value: []byte("r-1")}}},
	}}
	var got *Message
	var observed []error
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), func(_ context.Context, msg *Message) error {
		got = msg
		return nil
	}, nil, WithObserver(func(topic string, err error, _ time.Duration) {
		assert.Equal(t, "molscore.score.request", topic)
		observed = append(observed, err)
	}))

	runUntil(t, c, func() bool { return reader.commits() == 1 })

	require.NotNil(t, got)
	assert.Equal(t, "r-1", got.Headers[HeaderRequestID])
	assert.Equal(t, int64(7), got.Offset)
	assert.Equal(t, []error{nil}, observed)
	assert.Equal(t, int64(1), c.Stats().MessagesProcessed)
}

func TestConsumer_RetryThenSucceed(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Topic: "t", Value: []byte("x")}}}
	dlq := &recordingPublisher{}
	attempts := 0
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), func(context.Context, *Message) error {
		attempts++
		if attempts < 2 {
			return errors.New("engine busy")
		}
		return nil
	}, nil, WithDeadLetterPublisher(dlq))

	runUntil(t, c, func() bool { return reader.commits() == 1 })

	assert.Equal(t, 2, attempts)
	assert.Empty(t, dlq.published())
	st := c.Stats()
	assert.Equal(t, int64(1), st.MessagesRetried)
	assert.Equal(t, int64(1), st.MessagesProcessed)
}

func TestConsumer_RetryExhaustedGoesToDeadLetter(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{
		{Topic: "molscore.score.request", Key: []byte("r-9"), Value: []byte(`{"molecule":"CCO"}`)},
	}}
	dlq := &recordingPublisher{}
	attempts := 0
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), func(context.Context, *Message) error {
		attempts++
		return apperrors.New(apperrors.ErrCodeEngineInvocation, "scoring engine failed")
	}, nil, WithDeadLetterPublisher(dlq))

	runUntil(t, c, func() bool { return reader.commits() == 1 })

	assert.Equal(t, 3, attempts)
	msgs := dlq.published()
	require.Len(t, msgs, 1)
	dl := msgs[0]
	assert.Equal(t, "molscore.score.request.dlq", dl.Topic)
	assert.Equal(t, []byte("r-9"), dl.Key)
	assert.Equal(t, "molscore.score.request", dl.Headers[HeaderOriginalTopic])
	assert.Equal(t, "SCR_002", dl.Headers[HeaderErrorCode])
	assert.Equal(t, "3", dl.Headers[HeaderAttempts])
	assert.Equal(t, int64(1), c.Stats().MessagesDeadLettered)
	assert.Equal(t, int64(1), c.Stats().MessagesFailed)
}

func TestConsumer_PermanentErrorSkipsRetries(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Topic: "t", Value: []byte("{")}}}
	dlq := &recordingPublisher{}
	attempts := 0
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), func(_ context.Context, msg *Message) error {
		attempts++
		_, err := DecodeScoreRequest(msg)
		return err
	}, nil, WithDeadLetterPublisher(dlq))

	runUntil(t, c, func() bool { return reader.commits() == 1 })

	assert.Equal(t, 1, attempts)
	require.Len(t, dlq.published(), 1)
	assert.Equal(t, "COMMON_011", dlq.published()[0].Headers[HeaderErrorCode])
}

func TestConsumer_DeadLetterFailureStillCommits(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Topic: "t", Value: []byte("x")}}}
	dlq := &recordingPublisher{err: errors.New("broker down")}
	cfg := newTestConsumerConfig()
	cfg.Retry.MaxRetries = 0
	c := NewConsumerWithReader(reader, cfg, func(context.Context, *Message) error {
		return errors.New("boom")
	}, nil, WithDeadLetterPublisher(dlq))

	runUntil(t, c, func() bool { return reader.commits() == 1 })
	assert.Zero(t, c.Stats().MessagesDeadLettered)
}

func TestConsumer_FetchErrorIsRetried(t *testing.T) {
	reader := &mockKafkaReader{
		fetchErr: errors.New("rebalance in progress"),
		queue:    []kafka.Message{{Topic: "t", Value: []byte("x")}},
	}
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), func(context.Context, *Message) error { return nil }, nil)
	c.fetchBackoff = time.Millisecond

	runUntil(t, c, func() bool { return reader.commits() == 1 })
}

func TestConsumer_RunTwice(t *testing.T) {
	c := NewConsumerWithReader(&mockKafkaReader{}, newTestConsumerConfig(), func(context.Context, *Message) error { return nil }, nil)
	c.running.Store(true)
	assert.Equal(t, ErrAlreadyRunning, c.Run(context.Background()))
}

func TestConsumer_StartClose(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Topic: "t", Value: []byte("x")}}}
	c := NewConsumerWithReader(reader, newTestConsumerConfig(), func(context.Context, *Message) error { return nil }, nil)

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

//Personal.AI order the ending
