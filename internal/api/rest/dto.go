package rest

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

// AttachTokenBenefitRequest is the body for token-scoped attach
type AttachTokenBenefitRequest struct {
	TokenNumber string `json:"token_number" binding:"required"`
	BenefitID   string `json:"benefit_id" binding:"required"`
	MetadataURI string `json:"metadata_uri" binding:"required"`
	Caller      string `json:"caller" binding:"required"`
	PaymentWei  string `json:"payment_wei"`
}

// Validate validates the request body
func (r *AttachTokenBenefitRequest) Validate() error {
	if !domain.ValidTokenNumber(r.TokenNumber) {
		return fmt.Errorf("invalid token_number: %s", r.TokenNumber)
	}
	if !domain.ValidBenefitID(r.BenefitID) {
		return fmt.Errorf("invalid benefit_id: %s", r.BenefitID)
	}
	return validateCaller(r.Caller)
}

// AttachCollectionBenefitRequest is the body for collection-scoped attach
type AttachCollectionBenefitRequest struct {
	BenefitID   string `json:"benefit_id" binding:"required"`
	MetadataURI string `json:"metadata_uri" binding:"required"`
	Caller      string `json:"caller" binding:"required"`
	PaymentWei  string `json:"payment_wei"`
}

// Validate validates the request body
func (r *AttachCollectionBenefitRequest) Validate() error {
	if !domain.ValidBenefitID(r.BenefitID) {
		return fmt.Errorf("invalid benefit_id: %s", r.BenefitID)
	}
	return validateCaller(r.Caller)
}

// UpdateBenefitRequest is the body for a metadata URI update
type UpdateBenefitRequest struct {
	MetadataURI string `json:"metadata_uri" binding:"required"`
	Caller      string `json:"caller" binding:"required"`
}

// Validate validates the request body
func (r *UpdateBenefitRequest) Validate() error {
	return validateCaller(r.Caller)
}

// RemoveBenefitRequest is the body for a benefit removal
type RemoveBenefitRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// Validate validates the request body
func (r *RemoveBenefitRequest) Validate() error {
	return validateCaller(r.Caller)
}

// BenefitURIResponse carries a benefit's metadata URI
type BenefitURIResponse struct {
	BenefitID   string `json:"benefit_id"`
	MetadataURI string `json:"metadata_uri"`
}

// AssignerCheckResponse carries the result of an assigner lookup
type AssignerCheckResponse struct {
	BenefitID  string `json:"benefit_id"`
	Wallet     string `json:"wallet"`
	IsAssigner bool   `json:"is_assigner"`
}

// BenefitListResponse carries an ordered list of benefits
type BenefitListResponse struct {
	Benefits []domain.Benefit `json:"benefits"`
}

// CapabilitiesResponse lists supported registry behaviors
type CapabilitiesResponse struct {
	Capabilities []string `json:"capabilities"`
}

// SupportsResponse answers a single-capability probe
type SupportsResponse struct {
	Capability string `json:"capability"`
	Supported  bool   `json:"supported"`
}

// CreateWebhookClientRequest registers a webhook endpoint
type CreateWebhookClientRequest struct {
	WebhookURL   string   `json:"webhook_url" binding:"required"`
	EventFilters []string `json:"event_filters"`
}

// Validate validates the request body
func (r *CreateWebhookClientRequest) Validate() error {
	if r.WebhookURL == "" {
		return errors.New("webhook_url is required")
	}
	for _, f := range r.EventFilters {
		switch domain.EventType(f) {
		case domain.EventTypeBenefitAttached,
			domain.EventTypeCollectionBenefitAttached,
			domain.EventTypeBenefitUpdated,
			domain.EventTypeBenefitRemoved:
		default:
			if f != "*" {
				return fmt.Errorf("unknown event filter: %s", f)
			}
		}
	}
	return nil
}

// CreateWebhookClientResponse carries the registered client's credentials.
// The secret is returned exactly once, at registration time.
type CreateWebhookClientResponse struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

func validateCaller(caller string) error {
	if !common.IsHexAddress(caller) {
		return fmt.Errorf("invalid caller address: %s", caller)
	}
	return nil
}
