// Package worker bridges queued score requests to the scoring service.
package worker

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molscore/internal/application/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscore/pkg/errors"
)

// Scorer scores one request.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) (*scoring.Result, error)
}

// ScoreHandler consumes score requests and publishes their results.
//
// Failures the caller caused (unknown property, invalid molecule) are
// answered with an error result and the message is settled.  Every other
// failure is returned so the consumer retries and finally dead-letters it.
//
// A result whose publish failed is held until the message is handed back,
// so a retry republishes it instead of running the engine again.
type ScoreHandler struct {
	scorer      Scorer
	publisher   kafka.Publisher
	resultTopic string
	logger      logging.Logger
	now         func() time.Time

	mu      sync.Mutex
	pending map[string]*kafka.ProducerMessage
}

// maxPending caps held results; messages that end in the dead-letter topic
// never come back to claim theirs.
const maxPending = 1024

// NewScoreHandler creates a ScoreHandler publishing to resultTopic.
func NewScoreHandler(scorer Scorer, publisher kafka.Publisher, resultTopic string, logger logging.Logger) *ScoreHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ScoreHandler{
		scorer:      scorer,
		publisher:   publisher,
		resultTopic: resultTopic,
		logger:      logger.Named("worker"),
		now:         time.Now,
		pending:     make(map[string]*kafka.ProducerMessage),
	}
}

// Handle is a kafka.MessageHandler.
func (h *ScoreHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	pos := position(msg)
	if out, ok := h.held(pos); ok {
		h.logger.Info("republishing held result", logging.String("message", pos))
		return h.send(ctx, pos, out)
	}

	req, err := kafka.DecodeScoreRequest(msg)
	if err != nil {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, req.RequestID)
	log := h.logger.WithContext(ctx)

	res, err := h.scorer.Score(ctx, scoring.Request{
		RequestID: req.RequestID,
		Molecule:  req.Molecule,
		Property:  req.Property,
	})
	if err != nil {
		if !errors.IsClientError(errors.GetCode(err)) {
			return err
		}
		log.Info("score request rejected", logging.String("code", string(errors.GetCode(err))), logging.Err(err))
		return h.publish(ctx, pos, req.RequestID, &kafka.ScoreResultMessage{
			RequestID: req.RequestID,
			Property:  req.Property,
			Error:     errorPayload(err),
			ScoredAt:  h.now().UTC(),
		})
	}

	return h.publish(ctx, pos, req.RequestID, &kafka.ScoreResultMessage{
		RequestID:  req.RequestID,
		Property:   res.Property,
		Label:      res.Label,
		Value:      res.Value,
		Score:      res.Score,
		Cached:     res.Cached,
		DurationMS: res.DurationMS,
		ScoredAt:   h.now().UTC(),
	})
}

func (h *ScoreHandler) publish(ctx context.Context, pos, requestID string, result *kafka.ScoreResultMessage) error {
	out, err := kafka.NewJSONMessage(h.resultTopic, requestID, result)
	if err != nil {
		return kafka.Permanent(err)
	}
	return h.send(ctx, pos, out)
}

// send publishes out, holding it under pos on failure and releasing it on
// success.
func (h *ScoreHandler) send(ctx context.Context, pos string, out *kafka.ProducerMessage) error {
	err := h.publisher.Publish(ctx, out)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.pending, pos)
		return nil
	}
	if _, ok := h.pending[pos]; !ok && len(h.pending) >= maxPending {
		for k := range h.pending {
			delete(h.pending, k)
			break
		}
	}
	h.pending[pos] = out
	return err
}

func (h *ScoreHandler) held(pos string) (*kafka.ProducerMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out, ok := h.pending[pos]
	return out, ok
}

// position identifies a delivered message across retries.
func position(msg *kafka.Message) string {
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

func errorPayload(err error) *kafka.ErrorPayload {
	p := &kafka.ErrorPayload{Code: string(errors.GetCode(err)), Message: err.Error()}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		p.Message = ae.Message
	}
	return p
}

//Personal.AI order the ending
