package webhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/logger"
	"github.com/feral-file/nft-benefit-registry/internal/store"
	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
	"github.com/feral-file/nft-benefit-registry/internal/webhook"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type recordedRequest struct {
	url     string
	headers map[string]string
	body    []byte
}

// fakeHTTPClient records POSTs and answers with a fixed status
type fakeHTTPClient struct {
	mu       sync.Mutex
	status   int
	requests []recordedRequest
}

func (c *fakeHTTPClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, recordedRequest{url: url, headers: headers, body: body})
	return c.status, nil, nil
}

func (c *fakeHTTPClient) recorded() []recordedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]recordedRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

func newTestDispatcher(s store.Store, client adapter.HTTPClient) webhook.Dispatcher {
	return webhook.NewDispatcher(webhook.DispatcherConfig{
		MaxWorkers:      2,
		MaxQueueSize:    10,
		DeliveryTimeout: time.Second,
		MaxRetryElapsed: time.Millisecond,
	}, s, client, adapter.NewJSON())
}

func registerClient(t *testing.T, s store.Store, id, secret string, filter []string) {
	t.Helper()

	var filterJSON datatypes.JSON
	if filter != nil {
		raw, err := json.Marshal(filter)
		require.NoError(t, err)
		filterJSON = raw
	}

	require.NoError(t, s.CreateWebhookClient(context.Background(), &schema.WebhookClient{
		ID:          id,
		URL:         "https://example.com/hooks/" + id,
		Secret:      secret,
		EventFilter: filterJSON,
		Active:      true,
	}))
}

func attachedEvent() *domain.BenefitEvent {
	return &domain.BenefitEvent{
		EventID:     "01JXAMPLE0000000000000000",
		EventType:   domain.EventTypeBenefitAttached,
		Chain:       domain.ChainEthereumMainnet,
		Contract:    "0x0666154347EeE4eBBBba8720f2907d33Bbea1C25",
		Scope:       domain.ScopeToken,
		TokenNumber: "7",
		BenefitID:   "1",
		MetadataURI: "ipfs://one",
		Assigner:    "0x1111111111111111111111111111111111111111",
		Timestamp:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers a signed event to a subscribed client", func(t *testing.T) {
		s := store.NewMemoryStore(adapter.NewClock())
		registerClient(t, s, "client-1", "secret-1", nil)

		httpClient := &fakeHTTPClient{status: 200}
		dispatcher := newTestDispatcher(s, httpClient)

		dispatcher.Dispatch(ctx, attachedEvent())
		dispatcher.Close()

		requests := httpClient.recorded()
		require.Len(t, requests, 1)
		req := requests[0]
		assert.Equal(t, "https://example.com/hooks/client-1", req.url)
		assert.Equal(t, "application/json", req.headers["Content-Type"])
		assert.Equal(t, "01JXAMPLE0000000000000000", req.headers["X-Webhook-Event-ID"])
		assert.NotEmpty(t, req.headers["X-Webhook-Timestamp"])

		// The payload is the webhook representation of the event
		var delivered webhook.WebhookEvent
		require.NoError(t, json.Unmarshal(req.body, &delivered))
		assert.Equal(t, "benefit.attached", delivered.EventType)
		assert.Equal(t, "1", delivered.Data.BenefitID)
		assert.Equal(t, "eip155:1:0x0666154347eee4ebbbba8720f2907d33bbea1c25", delivered.Data.CollectionCID)

		// The client can reproduce the signature with its secret
		signaturePayload := fmt.Sprintf("%s.%s.%s",
			req.headers["X-Webhook-Timestamp"], delivered.EventID, string(req.body))
		h := hmac.New(sha256.New, []byte("secret-1"))
		h.Write([]byte(signaturePayload))
		expected := "sha256=" + hex.EncodeToString(h.Sum(nil))
		assert.Equal(t, expected, req.headers["X-Webhook-Signature"])
	})

	t.Run("event filter selects clients", func(t *testing.T) {
		s := store.NewMemoryStore(adapter.NewClock())
		registerClient(t, s, "removed-only", "s1", []string{"benefit.removed"})
		registerClient(t, s, "wildcard", "s2", []string{"*"})
		registerClient(t, s, "attached", "s3", []string{"benefit.attached", "benefit.updated"})

		httpClient := &fakeHTTPClient{status: 200}
		dispatcher := newTestDispatcher(s, httpClient)

		dispatcher.Dispatch(ctx, attachedEvent())
		dispatcher.Close()

		urls := map[string]bool{}
		for _, req := range httpClient.recorded() {
			urls[req.url] = true
		}
		assert.False(t, urls["https://example.com/hooks/removed-only"])
		assert.True(t, urls["https://example.com/hooks/wildcard"])
		assert.True(t, urls["https://example.com/hooks/attached"])
	})

	t.Run("client with invalid filter is skipped", func(t *testing.T) {
		s := store.NewMemoryStore(adapter.NewClock())
		require.NoError(t, s.CreateWebhookClient(ctx, &schema.WebhookClient{
			ID:          "broken",
			URL:         "https://example.com/hooks/broken",
			Secret:      "s1",
			EventFilter: datatypes.JSON([]byte(`{not json`)),
			Active:      true,
		}))

		httpClient := &fakeHTTPClient{status: 200}
		dispatcher := newTestDispatcher(s, httpClient)

		dispatcher.Dispatch(ctx, attachedEvent())
		dispatcher.Close()

		assert.Empty(t, httpClient.recorded())
	})

	t.Run("deactivated clients receive nothing", func(t *testing.T) {
		s := store.NewMemoryStore(adapter.NewClock())
		registerClient(t, s, "client-1", "s1", nil)

		found, err := s.DeactivateWebhookClient(ctx, "client-1")
		require.NoError(t, err)
		require.True(t, found)

		httpClient := &fakeHTTPClient{status: 200}
		dispatcher := newTestDispatcher(s, httpClient)

		dispatcher.Dispatch(ctx, attachedEvent())
		dispatcher.Close()

		assert.Empty(t, httpClient.recorded())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		s := store.NewMemoryStore(adapter.NewClock())
		registerClient(t, s, "client-1", "s1", nil)

		httpClient := &fakeHTTPClient{status: 400}
		dispatcher := webhook.NewDispatcher(webhook.DispatcherConfig{
			MaxWorkers:      2,
			MaxQueueSize:    10,
			DeliveryTimeout: time.Second,
			MaxRetryElapsed: 10 * time.Second,
		}, s, httpClient, adapter.NewJSON())

		dispatcher.Dispatch(ctx, attachedEvent())
		dispatcher.Close()

		assert.Len(t, httpClient.recorded(), 1)
	})
}
