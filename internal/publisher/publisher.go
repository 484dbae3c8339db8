package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/billingcore/internal/config"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/pubsub"
	"github.com/flexprice/billingcore/internal/pubsub/kafka"
	"github.com/flexprice/billingcore/internal/pubsub/memory"
	"github.com/flexprice/billingcore/internal/types"
)

// EventPublisher publishes billing domain events to the configured topic
type EventPublisher interface {
	Publish(ctx context.Context, event *types.BillingEvent) error
}

type eventPublisher struct {
	pubsub pubsub.Publisher
	logger *logger.Logger
	config *config.EventConfig
}

// NewPubSub selects the pubsub backend from config
func NewPubSub(cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	switch cfg.Event.PubSub {
	case types.KafkaPubSub:
		return kafka.NewPubSub(cfg, logger)
	case types.MemoryPubSub:
		return memory.NewPubSub(logger), nil
	default:
		return nil, ierr.NewErrorf("unknown pubsub type: %s", cfg.Event.PubSub).
			WithHint("Event pubsub must be memory or kafka").
			Mark(ierr.ErrValidation)
	}
}

func NewEventPublisher(cfg *config.Configuration, logger *logger.Logger, ps pubsub.PubSub) EventPublisher {
	return &eventPublisher{
		pubsub: ps,
		logger: logger,
		config: &cfg.Event,
	}
}

// NewEvent builds an event envelope for the tenant and environment in ctx
func NewEvent(ctx context.Context, name types.BillingEventName, payload interface{}) (*types.BillingEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to marshal event payload").
			Mark(ierr.ErrValidation)
	}

	return &types.BillingEvent{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName:     name,
		TenantID:      types.GetTenantID(ctx),
		EnvironmentID: types.GetEnvironmentID(ctx),
		Timestamp:     time.Now().UTC(),
		Payload:       data,
	}, nil
}

func (p *eventPublisher) Publish(ctx context.Context, event *types.BillingEvent) error {
	if event.ID == "" {
		event.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal event").
			Mark(ierr.ErrValidation)
	}

	p.logger.Debugw("publishing event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"tenant_id", event.TenantID,
		"topic", p.config.Topic,
	)

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if p.config.RetryMaxElapsed > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 50 * time.Millisecond
		exp.MaxElapsedTime = p.config.RetryMaxElapsed
		policy = exp
	}

	attempt := 0
	operation := func() error {
		attempt++
		msg := message.NewMessage(event.ID, payload)
		msg.Metadata.Set("event_name", string(event.EventName))
		msg.Metadata.Set("tenant_id", event.TenantID)
		return p.pubsub.Publish(ctx, p.config.Topic, msg)
	}
	notify := func(err error, wait time.Duration) {
		p.logger.Infow("retrying event publish",
			"event_id", event.ID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		p.logger.Errorw("failed to publish event",
			"event_id", event.ID,
			"event_name", event.EventName,
			"attempts", attempt,
			"error", err,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish event").
			WithReportableDetails(map[string]interface{}{
				"event_id":   event.ID,
				"event_name": event.EventName,
			}).
			Mark(ierr.ErrSystem)
	}
	return nil
}
