package webhook

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/logger"
	"github.com/feral-file/nft-benefit-registry/internal/store"
	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
)

// Dispatcher fans registry events out to registered webhook clients
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/webhook.go -package=mocks -mock_names=Dispatcher=MockWebhookDispatcher
type Dispatcher interface {
	// Dispatch delivers the event to all subscribed active clients.
	// Deliveries run on the worker pool; Dispatch does not block on them.
	Dispatch(ctx context.Context, event *domain.BenefitEvent)

	// Close drains the worker pool
	Close()
}

// DispatcherConfig holds dispatcher settings
type DispatcherConfig struct {
	MaxWorkers      int
	MaxQueueSize    int
	DeliveryTimeout time.Duration
	MaxRetryElapsed time.Duration
}

type dispatcher struct {
	cfg   DispatcherConfig
	store store.Store
	http  adapter.HTTPClient
	json  adapter.JSON
	pool  pond.Pool
}

// NewDispatcher creates a new webhook dispatcher
func NewDispatcher(cfg DispatcherConfig, s store.Store, httpClient adapter.HTTPClient, jsonAdapter adapter.JSON) Dispatcher {
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.MaxQueueSize == 0 {
		cfg.MaxQueueSize = 1000
	}
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = 30 * time.Second
	}
	if cfg.MaxRetryElapsed == 0 {
		cfg.MaxRetryElapsed = 2 * time.Minute
	}

	pool := pond.NewPool(
		cfg.MaxWorkers,
		pond.WithQueueSize(cfg.MaxQueueSize),
	)

	return &dispatcher{
		cfg:   cfg,
		store: s,
		http:  httpClient,
		json:  jsonAdapter,
		pool:  pool,
	}
}

// Dispatch delivers the event to all subscribed active clients
func (d *dispatcher) Dispatch(ctx context.Context, event *domain.BenefitEvent) {
	clients, err := d.store.ListActiveWebhookClients(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to list webhook clients: %w", err),
			zap.String("event_id", event.EventID))
		return
	}

	webhookEvent := FromBenefitEvent(event)

	for _, client := range clients {
		if !d.subscribed(&client, string(event.EventType)) {
			continue
		}

		c := client
		d.pool.Submit(func() {
			d.deliver(c, webhookEvent)
		})
	}
}

// subscribed checks the client's event filter against the event type.
// An empty filter or a wildcard entry matches everything.
func (d *dispatcher) subscribed(client *schema.WebhookClient, eventType string) bool {
	if len(client.EventFilter) == 0 {
		return true
	}

	var filter []string
	if err := d.json.Unmarshal(client.EventFilter, &filter); err != nil {
		logger.Warn("invalid webhook event filter",
			zap.String("client_id", client.ID), zap.Error(err))
		return false
	}

	if len(filter) == 0 {
		return true
	}

	for _, f := range filter {
		if f == EventTypeWildcard || f == eventType {
			return true
		}
	}
	return false
}

// deliver POSTs the signed event to one client with exponential backoff retry
func (d *dispatcher) deliver(client schema.WebhookClient, event WebhookEvent) {
	payload, signature, timestamp, err := GenerateSignedPayload(client.Secret, event)
	if err != nil {
		logger.Error(fmt.Errorf("failed to sign webhook payload: %w", err),
			zap.String("client_id", client.ID), zap.String("event_id", event.EventID))
		return
	}

	headers := map[string]string{
		"Content-Type":        "application/json",
		"X-Webhook-Signature": signature,
		"X-Webhook-Timestamp": strconv.FormatInt(timestamp, 10),
		"X-Webhook-Event-ID":  event.EventID,
	}

	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DeliveryTimeout)
		defer cancel()

		status, _, err := d.http.Post(ctx, client.URL, headers, payload)
		if err != nil {
			return fmt.Errorf("delivery failed: %w", err)
		}

		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			return nil
		}

		// Client errors other than rate limiting will not succeed on retry
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError &&
			status != http.StatusTooManyRequests {
			return backoff.Permanent(fmt.Errorf("unexpected status code %d", status))
		}

		return fmt.Errorf("unexpected status code %d, retrying", status)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = d.cfg.MaxRetryElapsed

	if err := backoff.Retry(operation, b); err != nil {
		logger.Error(fmt.Errorf("webhook delivery failed after retries: %w", err),
			zap.String("client_id", client.ID),
			zap.String("url", client.URL),
			zap.String("event_id", event.EventID))
		return
	}

	logger.Debug("webhook delivered",
		zap.String("client_id", client.ID),
		zap.String("event_id", event.EventID))
}

// Close drains the worker pool
func (d *dispatcher) Close() {
	d.pool.StopAndWait()
}
