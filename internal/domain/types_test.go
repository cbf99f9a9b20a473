package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

func TestIsValidChain(t *testing.T) {
	assert.True(t, domain.IsValidChain(domain.ChainEthereumMainnet))
	assert.True(t, domain.IsValidChain(domain.ChainEthereumSepolia))
	assert.False(t, domain.IsValidChain("eip155:137"))
	assert.False(t, domain.IsValidChain(""))
}

func TestValidBenefitID(t *testing.T) {
	tests := []struct {
		name      string
		benefitID string
		valid     bool
	}{
		{"simple decimal", "1", true},
		{"zero", "0", true},
		{"uint256 sized", "115792089237316195423570985008687907853269984665640564039457584007913129639935", true},
		{"empty", "", false},
		{"hex", "0x1", false},
		{"negative", "-1", false},
		{"alphanumeric", "abc123", false},
		{"whitespace", " 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, domain.ValidBenefitID(tt.benefitID))
		})
	}
}

func TestValidTokenNumber(t *testing.T) {
	assert.True(t, domain.ValidTokenNumber("7"))
	assert.True(t, domain.ValidTokenNumber("0"))
	assert.False(t, domain.ValidTokenNumber(""))
	assert.False(t, domain.ValidTokenNumber("7a"))
}

func TestSameAddress(t *testing.T) {
	assert.True(t, domain.SameAddress(
		"0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d",
		"0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D"))
	assert.False(t, domain.SameAddress(
		"0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
		"0x1111111111111111111111111111111111111111"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
		domain.NormalizeAddress("0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d"))
}

func TestCollectionCID(t *testing.T) {
	assert.Equal(t,
		"eip155:1:0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d",
		domain.CollectionCID(domain.ChainEthereumMainnet, "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D"))
}

func TestBenefitEventValid(t *testing.T) {
	base := func(eventType domain.EventType) domain.BenefitEvent {
		return domain.BenefitEvent{
			EventID:     "01JXAMPLE0000000000000000",
			EventType:   eventType,
			Chain:       domain.ChainEthereumMainnet,
			Contract:    "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
			Scope:       domain.ScopeToken,
			TokenNumber: "7",
			BenefitID:   "1",
			MetadataURI: "ipfs://one",
			Assigner:    "0x1111111111111111111111111111111111111111",
			Timestamp:   time.Now(),
		}
	}

	t.Run("valid token attach", func(t *testing.T) {
		event := base(domain.EventTypeBenefitAttached)
		assert.True(t, event.Valid())
	})

	t.Run("token attach requires a token number", func(t *testing.T) {
		event := base(domain.EventTypeBenefitAttached)
		event.TokenNumber = ""
		assert.False(t, event.Valid())
	})

	t.Run("collection attach must not carry a token number", func(t *testing.T) {
		event := base(domain.EventTypeCollectionBenefitAttached)
		event.Scope = domain.ScopeCollection
		assert.False(t, event.Valid())

		event.TokenNumber = ""
		assert.True(t, event.Valid())
	})

	t.Run("update requires a metadata URI", func(t *testing.T) {
		event := base(domain.EventTypeBenefitUpdated)
		assert.True(t, event.Valid())

		event.MetadataURI = ""
		assert.False(t, event.Valid())
	})

	t.Run("removal carries no metadata URI", func(t *testing.T) {
		event := base(domain.EventTypeBenefitRemoved)
		event.MetadataURI = ""
		assert.True(t, event.Valid())
	})

	t.Run("missing identifiers", func(t *testing.T) {
		event := base(domain.EventTypeBenefitAttached)
		event.EventID = ""
		assert.False(t, event.Valid())

		event = base(domain.EventTypeBenefitAttached)
		event.BenefitID = ""
		assert.False(t, event.Valid())
	})

	t.Run("unknown event type", func(t *testing.T) {
		event := base("benefit.unknown")
		assert.False(t, event.Valid())
	})
}
