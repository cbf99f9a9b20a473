package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/logger"
	"github.com/feral-file/nft-benefit-registry/internal/messaging"
	"github.com/feral-file/nft-benefit-registry/internal/webhook"
)

// Notifier receives exactly one event per successful mutation
//
//go:generate mockgen -source=notifier.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier
type Notifier interface {
	Notify(ctx context.Context, event *domain.BenefitEvent)
}

// natsNotifier forwards events to a JetStream publisher
type natsNotifier struct {
	publisher messaging.Publisher
}

// NewNATSNotifier creates a notifier backed by a messaging publisher
func NewNATSNotifier(publisher messaging.Publisher) Notifier {
	return &natsNotifier{publisher: publisher}
}

func (n *natsNotifier) Notify(ctx context.Context, event *domain.BenefitEvent) {
	if err := n.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to publish event: %w", err),
			zap.String("event_id", event.EventID),
			zap.String("event_type", string(event.EventType)))
	}
}

// webhookNotifier forwards events to the webhook dispatcher
type webhookNotifier struct {
	dispatcher webhook.Dispatcher
}

// NewWebhookNotifier creates a notifier backed by the webhook dispatcher
func NewWebhookNotifier(dispatcher webhook.Dispatcher) Notifier {
	return &webhookNotifier{dispatcher: dispatcher}
}

func (n *webhookNotifier) Notify(ctx context.Context, event *domain.BenefitEvent) {
	n.dispatcher.Dispatch(ctx, event)
}

// multiNotifier fans one event out to several notifiers
type multiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier combines notifiers; nil entries are skipped
func NewMultiNotifier(notifiers ...Notifier) Notifier {
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &multiNotifier{notifiers: active}
}

func (m *multiNotifier) Notify(ctx context.Context, event *domain.BenefitEvent) {
	for _, n := range m.notifiers {
		n.Notify(ctx, event)
	}
}
