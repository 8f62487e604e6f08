package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeMessageQueue, "consumer already running")

// MessageHandler processes one message.  A nil return acknowledges it; an
// error triggers the retry loop unless wrapped by Permanent.
type MessageHandler func(ctx context.Context, msg *Message) error

// RetryConfig defines retry behaviour for failed messages.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	Topic             string
	AutoOffsetReset   string // earliest | latest
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxWait           time.Duration
	FetchMinBytes     int
	FetchMaxBytes     int
	Security          SecurityConfig
	Retry             RetryConfig
}

// ConsumerStats is a point-in-time copy of the consumer counters.
type ConsumerStats struct {
	MessagesConsumed     int64
	MessagesProcessed    int64
	MessagesFailed       int64
	MessagesRetried      int64
	MessagesDeadLettered int64
	Lag                  int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerOption customises a Consumer.
type ConsumerOption func(*Consumer)

// WithDeadLetterPublisher routes exhausted messages through p instead of a
// dedicated producer.
func WithDeadLetterPublisher(p Publisher) ConsumerOption {
	return func(c *Consumer) { c.deadLetter = p }
}

// WithObserver reports the outcome and duration of every handled message.
func WithObserver(fn func(topic string, err error, d time.Duration)) ConsumerOption {
	return func(c *Consumer) { c.observe = fn }
}

// Consumer reads one topic as part of a consumer group and hands each
// message to a handler, committing once the message is settled.
type Consumer struct {
	reader  ReaderInterface
	config  ConsumerConfig
	handler MessageHandler
	logger  logging.Logger

	deadLetter   Publisher
	ownedDLQ     *Producer
	observe      func(topic string, err error, d time.Duration)
	fetchBackoff time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed     atomic.Int64
	processed    atomic.Int64
	failed       atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
	lag          atomic.Int64
}

// NewConsumer creates a Consumer backed by a kafka.Reader.  When a
// dead-letter topic is configured and no publisher was supplied, the
// consumer opens its own producer.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger logging.Logger, opts ...ConsumerOption) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 3 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = time.Second
	}
	if cfg.FetchMinBytes == 0 {
		cfg.FetchMinBytes = 1
	}
	if cfg.FetchMaxBytes == 0 {
		cfg.FetchMaxBytes = 10 << 20
	}

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	tlsCfg, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}
	dialer.TLS = tlsCfg
	mech, err := cfg.Security.mechanism()
	if err != nil {
		return nil, err
	}
	dialer.SASLMechanism = mech

	readerCfg := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          cfg.FetchMinBytes,
		MaxBytes:          cfg.FetchMaxBytes,
		MaxWait:           cfg.MaxWait,
		SessionTimeout:    cfg.SessionTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		StartOffset:       kafka.FirstOffset,
		Dialer:            dialer,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	c := NewConsumerWithReader(kafka.NewReader(readerCfg), cfg, handler, logger, opts...)
	if cfg.Retry.DeadLetterTopic != "" && c.deadLetter == nil {
		p, err := NewProducer(ProducerConfig{Brokers: cfg.Brokers, Security: cfg.Security}, logger)
		if err != nil {
			_ = c.reader.Close()
			return nil, err
		}
		c.deadLetter = p
		c.ownedDLQ = p
	}
	return c, nil
}

// NewConsumerWithReader wraps an existing reader.  Tests inject fakes here.
func NewConsumerWithReader(r ReaderInterface, cfg ConsumerConfig, handler MessageHandler, logger logging.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Consumer{
		reader:       r,
		config:       cfg,
		handler:      handler,
		logger:       logger.Named("kafka.consumer"),
		fetchBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes until ctx is cancelled.  It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.logger.Info("kafka consumer started",
		logging.String("group", c.config.GroupID),
		logging.String("topic", c.config.Topic))
	c.consumeLoop(ctx)
	return nil
}

// Start runs the consumer in the background until Close.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Run(ctx); err != nil {
			c.logger.WithError(err).Error("kafka consumer stopped")
		}
	}()
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.WithError(err).Error("fetch failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.fetchBackoff):
			}
			continue
		}

		c.consumed.Add(1)
		if m.HighWaterMark > 0 {
			c.lag.Store(m.HighWaterMark - m.Offset - 1)
		}

		msg := fromKafkaMessage(m)
		start := time.Now()
		err = c.processMessage(ctx, msg)
		if c.observe != nil {
			c.observe(m.Topic, err, time.Since(start))
		}
		if err != nil {
			c.failed.Add(1)
		} else {
			c.processed.Add(1)
		}
		if ctx.Err() != nil && err != nil {
			// Shutdown interrupted the message; leave it uncommitted so the
			// group redelivers it.
			return
		}
		if cerr := c.reader.CommitMessages(ctx, m); cerr != nil && ctx.Err() == nil {
			c.logger.WithError(cerr).Error("commit failed", logging.Int64("offset", m.Offset))
		}
	}
}

// processMessage runs the handler with retries.  It returns the handler's
// final error after the message has been dead-lettered (or dropped when no
// dead-letter topic is configured); the caller commits either way.
func (c *Consumer) processMessage(ctx context.Context, msg *Message) error {
	err := c.handler(ctx, msg)
	attempts := 1
	if err != nil && !IsPermanent(err) {
		backoff := c.config.Retry.RetryBackoff
		if backoff <= 0 {
			backoff = time.Second
		}
		maxBackoff := c.config.Retry.MaxRetryBackoff
		if maxBackoff <= 0 {
			maxBackoff = 30 * time.Second
		}
		for i := 0; i < c.config.Retry.MaxRetries && err != nil && !IsPermanent(err); i++ {
			c.retried.Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			err = c.handler(ctx, msg)
			attempts++
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	c.logger.WithError(err).Error("message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts))
	c.sendToDeadLetter(ctx, msg, err, attempts)
	return err
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *Message, cause error, attempts int) {
	topic := c.config.Retry.DeadLetterTopic
	if c.deadLetter == nil || topic == "" {
		return
	}
	headers := make(map[string]string, len(msg.Headers)+4)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorMessage] = cause.Error()
	headers[HeaderErrorCode] = errors.GetCode(cause).String()
	headers[HeaderAttempts] = strconv.Itoa(attempts)

	dl := &ProducerMessage{Topic: topic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := c.deadLetter.Publish(ctx, dl); err != nil {
		c.logger.WithError(err).Error("dead-letter publish failed", logging.String("topic", topic))
		return
	}
	c.deadLettered.Add(1)
}

// Stats returns a snapshot of the consumer counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		MessagesConsumed:     c.consumed.Load(),
		MessagesProcessed:    c.processed.Load(),
		MessagesFailed:       c.failed.Load(),
		MessagesRetried:      c.retried.Load(),
		MessagesDeadLettered: c.deadLettered.Load(),
		Lag:                  c.lag.Load(),
	}
}

// Close stops a Start-ed consumer and releases the reader and any producer
// the consumer opened itself.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	if c.ownedDLQ != nil {
		_ = c.ownedDLQ.Close()
	}
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

func fromKafkaMessage(m kafka.Message) *Message {
	msg := &Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "group id required")
	}
	if cfg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.Newf(errors.ErrCodeValidation, "invalid auto offset reset %q", cfg.AutoOffsetReset)
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return cfg.Security.Validate()
}

//Personal.AI order the ending
