package kafka

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/turtacn/molscore/pkg/errors"
)

// Header keys attached to every message this service produces.
const (
	HeaderRequestID     = "request_id"
	HeaderContentType   = "content_type"
	HeaderOriginalTopic = "original_topic"
	HeaderErrorMessage  = "error_message"
	HeaderErrorCode     = "error_code"
	HeaderAttempts      = "attempts"

	ContentTypeJSON = "application/json"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.  Partition is left to the
// writer's balancer, which hashes Key.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ScoreRequestMessage asks the worker to score one molecule.
type ScoreRequestMessage struct {
	RequestID string `json:"request_id"`
	Molecule  string `json:"molecule"`
	Property  string `json:"property,omitempty"`
}

// ScoreResultMessage answers a ScoreRequestMessage.  Exactly one of Value or
// Error is meaningful.
type ScoreResultMessage struct {
	RequestID  string        `json:"request_id"`
	Property   string        `json:"property,omitempty"`
	Label      string        `json:"label,omitempty"`
	Value      string        `json:"value,omitempty"`
	Score      *float64      `json:"score,omitempty"`
	Cached     bool          `json:"cached,omitempty"`
	DurationMS int64         `json:"duration_ms,omitempty"`
	Error      *ErrorPayload `json:"error,omitempty"`
	ScoredAt   time.Time     `json:"scored_at"`
}

// ErrorPayload is the machine-readable failure carried by a result.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeScoreRequest parses msg as a ScoreRequestMessage.  A malformed
// payload is a permanent failure: retrying cannot fix it.
func DecodeScoreRequest(msg *Message) (*ScoreRequestMessage, error) {
	if msg == nil || len(msg.Value) == 0 {
		return nil, Permanent(errors.New(errors.ErrCodeSerialization, "empty score request"))
	}
	var req ScoreRequestMessage
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return nil, Permanent(errors.Wrap(err, errors.ErrCodeSerialization, "malformed score request"))
	}
	if req.RequestID == "" && msg.Headers != nil {
		req.RequestID = msg.Headers[HeaderRequestID]
	}
	return &req, nil
}

// NewJSONMessage encodes v for topic, keyed by key.
func NewJSONMessage(topic, key string, v any) (*ProducerMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode message")
	}
	headers := map[string]string{HeaderContentType: ContentTypeJSON}
	if key != "" {
		headers[HeaderRequestID] = key
	}
	return &ProducerMessage{
		Topic:   topic,
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}, nil
}

// permanentError marks a failure that must skip the retry loop.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so the consumer dead-letters the message without
// retrying.  Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped by Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return stderrors.As(err, &p)
}

//Personal.AI order the ending
