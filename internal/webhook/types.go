package webhook

import (
	"time"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

// EventTypeWildcard is a special filter that matches all event types
const EventTypeWildcard = "*"

// WebhookEvent represents a webhook event to be delivered to clients
type WebhookEvent struct {
	// EventID is a unique identifier for this event (ULID for time-sortable uniqueness)
	EventID string `json:"event_id"`
	// EventType is the type of event (e.g., "benefit.attached")
	EventType string `json:"event_type"`
	// Timestamp is when the event was generated
	Timestamp time.Time `json:"timestamp"`
	// Data contains the event-specific payload
	Data EventData `json:"data"`
}

// EventData contains the webhook event payload
type EventData struct {
	// CollectionCID is the canonical collection identifier (e.g., "eip155:1:0xabc...")
	CollectionCID string `json:"collection_cid"`
	// Chain is the blockchain network (e.g., "eip155:1")
	Chain string `json:"chain"`
	// Contract is the contract address
	Contract string `json:"contract"`
	// Scope is the benefit scope ("token" or "collection")
	Scope string `json:"scope"`
	// TokenNumber is the target token for token-scoped events
	TokenNumber string `json:"token_number,omitempty"`
	// BenefitID is the benefit identifier
	BenefitID string `json:"benefit_id"`
	// MetadataURI is the benefit metadata URI (unset for removal events)
	MetadataURI string `json:"metadata_uri,omitempty"`
	// Assigner is the address that performed the mutation
	Assigner string `json:"assigner,omitempty"`
}

// FromBenefitEvent converts a registry event into its webhook representation
func FromBenefitEvent(event *domain.BenefitEvent) WebhookEvent {
	return WebhookEvent{
		EventID:   event.EventID,
		EventType: string(event.EventType),
		Timestamp: event.Timestamp,
		Data: EventData{
			CollectionCID: domain.CollectionCID(event.Chain, event.Contract),
			Chain:         string(event.Chain),
			Contract:      event.Contract,
			Scope:         string(event.Scope),
			TokenNumber:   event.TokenNumber,
			BenefitID:     event.BenefitID,
			MetadataURI:   event.MetadataURI,
			Assigner:      event.Assigner,
		},
	}
}
