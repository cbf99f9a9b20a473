package messaging

import (
	"context"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

// Publisher defines the interface for publishing registry events
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a registry event
	PublishEvent(ctx context.Context, event *domain.BenefitEvent) error

	// Close closes the publisher connection
	Close()
}
