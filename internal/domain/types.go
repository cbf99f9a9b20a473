package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainEthereumMainnet || chain == ChainEthereumSepolia
}

// BenefitScope represents where a benefit is attached: a single token or the
// whole collection. A benefit's scope is fixed at attach time.
type BenefitScope string

const (
	ScopeToken      BenefitScope = "token"
	ScopeCollection BenefitScope = "collection"
)

// Benefit represents one benefit attachment record.
// BenefitID is caller-supplied, globally unique across both scopes and never
// reused after removal. TokenNumber is empty for collection-scoped benefits.
type Benefit struct {
	BenefitID   string       `json:"benefit_id"`
	Scope       BenefitScope `json:"scope"`
	TokenNumber string       `json:"token_number,omitempty"`
	MetadataURI string       `json:"metadata_uri"`
	Assigner    string       `json:"assigner"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// EventType represents the type of registry event
type EventType string

const (
	EventTypeBenefitAttached           EventType = "benefit.attached"
	EventTypeCollectionBenefitAttached EventType = "benefit.collection_attached"
	EventTypeBenefitUpdated            EventType = "benefit.updated"
	EventTypeBenefitRemoved            EventType = "benefit.removed"
)

// BenefitEvent represents a normalized registry event.
// This is the standard format published to NATS and delivered to webhook
// clients. Exactly one event is emitted per successful mutation; failed
// operations emit nothing.
type BenefitEvent struct {
	EventID     string       `json:"event_id"` // ULID, time-sortable
	EventType   EventType    `json:"event_type"`
	Chain       Chain        `json:"chain"`
	Contract    string       `json:"contract"`
	Scope       BenefitScope `json:"scope"`
	TokenNumber string       `json:"token_number,omitempty"` // set for token-scoped events
	BenefitID   string       `json:"benefit_id"`
	MetadataURI string       `json:"metadata_uri,omitempty"` // unset for removal events
	Assigner    string       `json:"assigner,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Valid checks that the event carries the fields its type requires.
func (e *BenefitEvent) Valid() bool {
	if e.EventID == "" || e.BenefitID == "" {
		return false
	}

	switch e.EventType {
	case EventTypeBenefitAttached:
		return e.Scope == ScopeToken && ValidTokenNumber(e.TokenNumber) && e.MetadataURI != ""
	case EventTypeCollectionBenefitAttached:
		return e.Scope == ScopeCollection && e.TokenNumber == "" && e.MetadataURI != ""
	case EventTypeBenefitUpdated:
		return e.MetadataURI != ""
	case EventTypeBenefitRemoved:
		return true
	default:
		return false
	}
}

// ValidBenefitID checks if a benefit id is a non-empty decimal string
// (uint256-style, caller-supplied)
func ValidBenefitID(benefitID string) bool {
	return validNumber(benefitID)
}

// ValidTokenNumber checks if a token number is a non-empty decimal string
func ValidTokenNumber(tokenNumber string) bool {
	return validNumber(tokenNumber)
}

// NormalizeAddress normalizes an Ethereum address to its EIP-55 checksummed form
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// SameAddress compares two addresses ignoring checksum casing
func SameAddress(a, b string) bool {
	return common.HexToAddress(a) == common.HexToAddress(b)
}

// CollectionCID generates the canonical collection identifier in the format
// chain:contract (e.g., "eip155:1:0xabc...")
func CollectionCID(chain Chain, contractAddress string) string {
	return fmt.Sprintf("%s:%s", chain, strings.ToLower(contractAddress))
}

var decimalNumber = regexp.MustCompile(`^[0-9]+$`)

// validNumber checks if a string is a non-empty decimal number
func validNumber(n string) bool {
	return decimalNumber.MatchString(n)
}
