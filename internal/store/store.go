package store

import (
	"context"

	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
)

// Store defines the interface for benefit persistence.
//
// Create operations enforce benefit id uniqueness (including against removed
// benefits) and the per-token cap, returning domain.ErrBenefitAlreadyExists
// and domain.ErrCapacityExceeded respectively. Lookups return (nil, nil) when
// no live benefit matches.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// CreateTokenBenefit attaches a benefit to a single token.
	// maxPerToken <= 0 means no cap.
	CreateTokenBenefit(ctx context.Context, record *schema.BenefitRecord, maxPerToken int) error
	// CreateCollectionBenefit attaches a benefit to the whole collection
	CreateCollectionBenefit(ctx context.Context, record *schema.BenefitRecord) error
	// GetBenefit retrieves a live benefit by id
	GetBenefit(ctx context.Context, benefitID string) (*schema.BenefitRecord, error)
	// UpdateBenefitURI replaces the metadata URI of a live benefit and returns
	// the updated record
	UpdateBenefitURI(ctx context.Context, benefitID string, metadataURI string) (*schema.BenefitRecord, error)
	// RemoveBenefit tombstones a live benefit and returns the record as it was
	// before removal
	RemoveBenefit(ctx context.Context, benefitID string) (*schema.BenefitRecord, error)
	// ListTokenBenefits returns the live benefits of a token in attach order
	ListTokenBenefits(ctx context.Context, tokenNumber string) ([]schema.BenefitRecord, error)
	// ListCollectionBenefits returns the live collection-scoped benefits in attach order
	ListCollectionBenefits(ctx context.Context) ([]schema.BenefitRecord, error)

	// CreateWebhookClient registers a webhook endpoint
	CreateWebhookClient(ctx context.Context, client *schema.WebhookClient) error
	// ListActiveWebhookClients returns all active webhook clients
	ListActiveWebhookClients(ctx context.Context) ([]schema.WebhookClient, error)
	// DeactivateWebhookClient deactivates a webhook client; returns false when
	// no active client holds the id
	DeactivateWebhookClient(ctx context.Context, clientID string) (bool, error)
}
