package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/config"
	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/screening"
	"github.com/banking/sanctions-screening/internal/service"
)

const defaultMaxRetries = 3

// ProfileScreener screens one profile taken from a request
type ProfileScreener interface {
	Screen(ctx context.Context, profile domain.ClientProfile, opts screening.ScreenOptions) (*service.Outcome, error)
}

// RequestConsumer screens the profiles published on the request topic
type RequestConsumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       *requestHandler
	topics        []string
	logger        *zap.Logger
}

func NewRequestConsumer(cfg config.KafkaConfig, screener ProfileScreener, logger *zap.Logger) (*RequestConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Version = sarama.V2_8_0_0

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &RequestConsumer{
		consumerGroup: consumerGroup,
		handler:       newRequestHandler(screener, cfg.MaxRetries, logger),
		topics:        []string{cfg.RequestTopic},
		logger:        logger,
	}, nil
}

// Start consumes until ctx is cancelled
func (c *RequestConsumer) Start(ctx context.Context) error {
	for {
		if err := c.consumerGroup.Consume(ctx, c.topics, c.handler); err != nil {
			c.logger.Error("Error from consumer", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second): // Retry backoff
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *RequestConsumer) Close() error {
	return c.consumerGroup.Close()
}

type requestHandler struct {
	screener   ProfileScreener
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func newRequestHandler(screener ProfileScreener, maxRetries int, logger *zap.Logger) *requestHandler {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &requestHandler{
		screener:   screener,
		maxRetries: maxRetries,
		backoff:    time.Second,
		logger:     logger,
	}
}

func (h *requestHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *requestHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }
func (h *requestHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.processMessage(session.Context(), message)
		session.MarkMessage(message, "")
	}
	return nil
}

// processMessage screens one request. It reports whether the request was
// screened; malformed requests and requests still failing after the last
// retry are dropped.
func (h *requestHandler) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	var raw map[string]any
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		h.logger.Error("Failed to unmarshal screening request", zap.Error(err))
		return false
	}

	req := mapScreeningRequest(raw)

	for i := 0; i < h.maxRetries; i++ {
		outcome, err := h.screener.Screen(ctx, req.Profile, req.Options)
		if err == nil {
			h.logger.Debug("Screening request processed",
				zap.String("external_id", req.Profile.ExternalID),
				zap.String("recommendation", string(outcome.Summary.Recommendation)))
			return true
		}

		h.logger.Error("Failed to process screening request",
			zap.String("topic", msg.Topic),
			zap.Error(err),
			zap.Int("retry", i+1))
		if i == h.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Duration(i+1) * h.backoff): // Simple backoff
		}
	}

	h.logger.Error("Dropping screening request after retries", zap.String("external_id", req.Profile.ExternalID))
	return false
}
