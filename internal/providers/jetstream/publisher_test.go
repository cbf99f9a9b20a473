package jetstream

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeNatsConn struct {
	closed bool
}

func (c *fakeNatsConn) Close()               { c.closed = true }
func (c *fakeNatsConn) LastError() error     { return nil }
func (c *fakeNatsConn) ConnectedUrl() string { return "nats://localhost:4222" }

type publishedMsg struct {
	subject string
	data    []byte
}

type fakeJetStream struct {
	published  []publishedMsg
	publishErr error
}

func (j *fakeJetStream) Publish(ctx context.Context, subject string, data []byte, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
	if j.publishErr != nil {
		return nil, j.publishErr
	}
	j.published = append(j.published, publishedMsg{subject: subject, data: data})
	return &natsjs.PubAck{Stream: "BENEFIT_EVENTS", Sequence: uint64(len(j.published))}, nil
}

type fakeNatsJetStream struct {
	conn       *fakeNatsConn
	js         *fakeJetStream
	connectErr error
	gotURL     string
}

func (n *fakeNatsJetStream) Connect(url string, options ...nats.Option) (adapter.NatsConn, adapter.JetStream, error) {
	n.gotURL = url
	if n.connectErr != nil {
		return nil, nil, n.connectErr
	}
	return n.conn, n.js, nil
}

func testConfig() Config {
	return Config{
		URL:            "nats://localhost:4222",
		StreamName:     "BENEFIT_EVENTS",
		MaxReconnects:  5,
		ReconnectWait:  time.Second,
		ConnectionName: "benefit-registry-test",
	}
}

func testEvent(eventType domain.EventType) *domain.BenefitEvent {
	return &domain.BenefitEvent{
		EventID:     "01JXAMPLE0000000000000000",
		EventType:   eventType,
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

func TestNewPublisher(t *testing.T) {
	t.Run("connects with the configured url", func(t *testing.T) {
		fake := &fakeNatsJetStream{conn: &fakeNatsConn{}, js: &fakeJetStream{}}

		publisher, err := NewPublisher(testConfig(), fake, adapter.NewJSON())
		require.NoError(t, err)
		require.NotNil(t, publisher)
		assert.Equal(t, "nats://localhost:4222", fake.gotURL)
	})

	t.Run("connection failure surfaces", func(t *testing.T) {
		fake := &fakeNatsJetStream{connectErr: errors.New("no servers available")}

		_, err := NewPublisher(testConfig(), fake, adapter.NewJSON())
		assert.Error(t, err)
	})
}

func TestPublishEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes to the event-typed subject", func(t *testing.T) {
		js := &fakeJetStream{}
		fake := &fakeNatsJetStream{conn: &fakeNatsConn{}, js: js}

		publisher, err := NewPublisher(testConfig(), fake, adapter.NewJSON())
		require.NoError(t, err)

		event := testEvent(domain.EventTypeBenefitAttached)
		require.NoError(t, publisher.PublishEvent(ctx, event))

		require.Len(t, js.published, 1)
		assert.Equal(t, "benefits.benefit.attached", js.published[0].subject)

		var decoded domain.BenefitEvent
		require.NoError(t, json.Unmarshal(js.published[0].data, &decoded))
		assert.Equal(t, event.EventID, decoded.EventID)
		assert.Equal(t, event.BenefitID, decoded.BenefitID)
		assert.Equal(t, event.MetadataURI, decoded.MetadataURI)
	})

	t.Run("subject follows the event type", func(t *testing.T) {
		js := &fakeJetStream{}
		fake := &fakeNatsJetStream{conn: &fakeNatsConn{}, js: js}

		publisher, err := NewPublisher(testConfig(), fake, adapter.NewJSON())
		require.NoError(t, err)

		require.NoError(t, publisher.PublishEvent(ctx, testEvent(domain.EventTypeBenefitRemoved)))
		require.Len(t, js.published, 1)
		assert.Equal(t, "benefits.benefit.removed", js.published[0].subject)
	})

	t.Run("publish failure surfaces", func(t *testing.T) {
		js := &fakeJetStream{publishErr: errors.New("stream not found")}
		fake := &fakeNatsJetStream{conn: &fakeNatsConn{}, js: js}

		publisher, err := NewPublisher(testConfig(), fake, adapter.NewJSON())
		require.NoError(t, err)

		assert.Error(t, publisher.PublishEvent(ctx, testEvent(domain.EventTypeBenefitAttached)))
	})
}

func TestClose(t *testing.T) {
	conn := &fakeNatsConn{}
	fake := &fakeNatsJetStream{conn: conn, js: &fakeJetStream{}}

	publisher, err := NewPublisher(testConfig(), fake, adapter.NewJSON())
	require.NoError(t, err)

	publisher.Close()
	assert.True(t, conn.closed)
}
