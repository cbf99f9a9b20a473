package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func buildTokenBenefit(benefitID, tokenNumber string) *schema.BenefitRecord {
	return &schema.BenefitRecord{
		BenefitID:   benefitID,
		Scope:       domain.ScopeToken,
		TokenNumber: tokenNumber,
		MetadataURI: "ipfs://benefit/" + benefitID,
		Assigner:    "0x1234567890123456789012345678901234567890",
	}
}

func buildCollectionBenefit(benefitID string) *schema.BenefitRecord {
	return &schema.BenefitRecord{
		BenefitID:   benefitID,
		Scope:       domain.ScopeCollection,
		MetadataURI: "ipfs://benefit/" + benefitID,
		Assigner:    "0x1234567890123456789012345678901234567890",
	}
}

// =============================================================================
// Test: CreateTokenBenefit
// =============================================================================

func testCreateTokenBenefit(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("successful attach is readable and ordered", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("1", "100"), 0))
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("2", "100"), 0))

		got, err := store.GetBenefit(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ipfs://benefit/1", got.MetadataURI)
		assert.Equal(t, domain.ScopeToken, got.Scope)
		assert.Equal(t, "100", got.TokenNumber)
		assert.Nil(t, got.RemovedAt)

		list, err := store.ListTokenBenefits(ctx, "100")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "1", list[0].BenefitID)
		assert.Equal(t, "2", list[1].BenefitID)
	})

	t.Run("duplicate benefit id fails", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("10", "200"), 0))

		err := store.CreateTokenBenefit(ctx, buildTokenBenefit("10", "201"), 0)
		assert.ErrorIs(t, err, domain.ErrBenefitAlreadyExists)

		// State equals the state after only the first attach
		list, err := store.ListTokenBenefits(ctx, "201")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("benefit id is unique across scopes", func(t *testing.T) {
		require.NoError(t, store.CreateCollectionBenefit(ctx, buildCollectionBenefit("20")))

		err := store.CreateTokenBenefit(ctx, buildTokenBenefit("20", "300"), 0)
		assert.ErrorIs(t, err, domain.ErrBenefitAlreadyExists)
	})

	t.Run("cap is enforced per token", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("30", "400"), 2))
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("31", "400"), 2))

		err := store.CreateTokenBenefit(ctx, buildTokenBenefit("32", "400"), 2)
		assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

		list, err := store.ListTokenBenefits(ctx, "400")
		require.NoError(t, err)
		assert.Len(t, list, 2)

		// Other tokens are unaffected by the cap on token 400
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("33", "401"), 2))
	})

	t.Run("removing frees capacity but not the id", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("40", "500"), 1))

		removed, err := store.RemoveBenefit(ctx, "40")
		require.NoError(t, err)
		require.NotNil(t, removed)

		// Capacity is freed
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("41", "500"), 1))

		// The removed id stays retired
		err = store.CreateTokenBenefit(ctx, buildTokenBenefit("40", "500"), 0)
		assert.ErrorIs(t, err, domain.ErrBenefitAlreadyExists)
	})
}

// =============================================================================
// Test: CreateCollectionBenefit
// =============================================================================

func testCreateCollectionBenefit(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("successful attach is listed in order", func(t *testing.T) {
		require.NoError(t, store.CreateCollectionBenefit(ctx, buildCollectionBenefit("1")))
		require.NoError(t, store.CreateCollectionBenefit(ctx, buildCollectionBenefit("2")))

		list, err := store.ListCollectionBenefits(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "1", list[0].BenefitID)
		assert.Equal(t, "2", list[1].BenefitID)
		assert.Empty(t, list[0].TokenNumber)
	})

	t.Run("duplicate benefit id fails", func(t *testing.T) {
		require.NoError(t, store.CreateCollectionBenefit(ctx, buildCollectionBenefit("10")))

		err := store.CreateCollectionBenefit(ctx, buildCollectionBenefit("10"))
		assert.ErrorIs(t, err, domain.ErrBenefitAlreadyExists)
	})

	t.Run("collection benefits are not listed for tokens", func(t *testing.T) {
		require.NoError(t, store.CreateCollectionBenefit(ctx, buildCollectionBenefit("20")))

		list, err := store.ListTokenBenefits(ctx, "1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

// =============================================================================
// Test: GetBenefit
// =============================================================================

func testGetBenefit(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("unknown id returns nil", func(t *testing.T) {
		got, err := store.GetBenefit(ctx, "999")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("removed benefit returns nil", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("1", "100"), 0))

		removed, err := store.RemoveBenefit(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, removed)

		got, err := store.GetBenefit(ctx, "1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// =============================================================================
// Test: UpdateBenefitURI
// =============================================================================

func testUpdateBenefitURI(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("update replaces the URI only", func(t *testing.T) {
		original := buildTokenBenefit("1", "100")
		require.NoError(t, store.CreateTokenBenefit(ctx, original, 0))

		updated, err := store.UpdateBenefitURI(ctx, "1", "ipfs://updated")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "ipfs://updated", updated.MetadataURI)
		assert.Equal(t, original.Scope, updated.Scope)
		assert.Equal(t, original.TokenNumber, updated.TokenNumber)
		assert.Equal(t, original.Assigner, updated.Assigner)

		got, err := store.GetBenefit(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ipfs://updated", got.MetadataURI)
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		updated, err := store.UpdateBenefitURI(ctx, "999", "ipfs://nope")
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("removed benefit returns nil", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("10", "200"), 0))
		_, err := store.RemoveBenefit(ctx, "10")
		require.NoError(t, err)

		updated, err := store.UpdateBenefitURI(ctx, "10", "ipfs://nope")
		require.NoError(t, err)
		assert.Nil(t, updated)
	})
}

// =============================================================================
// Test: RemoveBenefit
// =============================================================================

func testRemoveBenefit(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("remove returns the record as it was", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("1", "100"), 0))

		removed, err := store.RemoveBenefit(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, removed)
		assert.Equal(t, "1", removed.BenefitID)
		assert.Equal(t, "ipfs://benefit/1", removed.MetadataURI)

		list, err := store.ListTokenBenefits(ctx, "100")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("remove is not repeatable", func(t *testing.T) {
		require.NoError(t, store.CreateTokenBenefit(ctx, buildTokenBenefit("10", "200"), 0))

		removed, err := store.RemoveBenefit(ctx, "10")
		require.NoError(t, err)
		require.NotNil(t, removed)

		removed, err = store.RemoveBenefit(ctx, "10")
		require.NoError(t, err)
		assert.Nil(t, removed)
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		removed, err := store.RemoveBenefit(ctx, "999")
		require.NoError(t, err)
		assert.Nil(t, removed)
	})
}

// =============================================================================
// Test: Webhook clients
// =============================================================================

func testWebhookClients(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and list active clients", func(t *testing.T) {
		client := &schema.WebhookClient{
			ID:          "a3bb0b38-7d0e-4f0b-8a70-111111111111",
			URL:         "https://example.com/hooks",
			Secret:      "secret-1",
			EventFilter: datatypes.JSON([]byte(`["benefit.attached"]`)),
			Active:      true,
		}
		require.NoError(t, store.CreateWebhookClient(ctx, client))

		clients, err := store.ListActiveWebhookClients(ctx)
		require.NoError(t, err)
		require.Len(t, clients, 1)
		assert.Equal(t, client.ID, clients[0].ID)
		assert.Equal(t, client.URL, clients[0].URL)
		assert.False(t, clients[0].CreatedAt.IsZero())
	})

	t.Run("deactivated clients are excluded", func(t *testing.T) {
		client := &schema.WebhookClient{
			ID:     "a3bb0b38-7d0e-4f0b-8a70-222222222222",
			URL:    "https://example.com/hooks2",
			Secret: "secret-2",
			Active: true,
		}
		require.NoError(t, store.CreateWebhookClient(ctx, client))

		found, err := store.DeactivateWebhookClient(ctx, client.ID)
		require.NoError(t, err)
		assert.True(t, found)

		clients, err := store.ListActiveWebhookClients(ctx)
		require.NoError(t, err)
		for _, c := range clients {
			assert.NotEqual(t, client.ID, c.ID)
		}
	})

	t.Run("deactivating an unknown client returns false", func(t *testing.T) {
		found, err := store.DeactivateWebhookClient(ctx, "a3bb0b38-7d0e-4f0b-8a70-333333333333")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

// =============================================================================
// Suite runner
// =============================================================================

// RunStoreTests runs the shared behavioral suite against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"CreateTokenBenefit", testCreateTokenBenefit},
		{"CreateCollectionBenefit", testCreateCollectionBenefit},
		{"GetBenefit", testGetBenefit},
		{"UpdateBenefitURI", testUpdateBenefitURI},
		{"RemoveBenefit", testRemoveBenefit},
		{"WebhookClients", testWebhookClients},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
