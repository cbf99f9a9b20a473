package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/metadata"
)

func TestLint(t *testing.T) {
	jsonAdapter := adapter.NewJSON()

	t.Run("complete document has no findings", func(t *testing.T) {
		raw := []byte(`{
			"title": "VIP Gallery Access",
			"description": "Free entry to the main exhibition",
			"imageURI": "ipfs://QmExample/image.png",
			"type": "access",
			"category": "event",
			"provider": {
				"name": "Feral File",
				"externalURL": "https://feralfile.com"
			},
			"redemption_details": {
				"redemption_criteria": "Present the token at the entrance",
				"redemption_role": "owner",
				"redemption_frequency": "once",
				"redemption_period": {
					"startDate": "2026-09-01",
					"endDate": "2026-12-31"
				}
			},
			"market_value": [{"currency": "USD", "amount": 50}],
			"geofencing": {
				"mode": "include",
				"coordinates": [{"latitude": 40.7128, "longitude": -74.006}],
				"radius": 5,
				"unit": "km"
			}
		}`)

		doc, issues, err := metadata.Lint(jsonAdapter, raw)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Empty(t, issues)
		assert.Equal(t, "VIP Gallery Access", doc.Title)
		require.NotNil(t, doc.RedemptionDetails)
		assert.Equal(t, "once", doc.RedemptionDetails.RedemptionFrequency)
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		_, _, err := metadata.Lint(jsonAdapter, []byte(`{not json`))
		assert.Error(t, err)
	})

	t.Run("findings are advisory per field", func(t *testing.T) {
		tests := []struct {
			name  string
			raw   string
			field string
		}{
			{
				name:  "empty title",
				raw:   `{"title": ""}`,
				field: "title",
			},
			{
				name:  "invalid image URI",
				raw:   `{"title": "ok", "imageURI": "not a uri"}`,
				field: "imageURI",
			},
			{
				name:  "empty provider name",
				raw:   `{"title": "ok", "provider": {"name": ""}}`,
				field: "provider.name",
			},
			{
				name:  "invalid provider URL",
				raw:   `{"title": "ok", "provider": {"name": "p", "externalURL": "no scheme"}}`,
				field: "provider.externalURL",
			},
			{
				name:  "empty currency",
				raw:   `{"title": "ok", "market_value": [{"currency": "", "amount": 10}]}`,
				field: "market_value[0].currency",
			},
			{
				name:  "negative amount",
				raw:   `{"title": "ok", "market_value": [{"currency": "USD", "amount": -1}]}`,
				field: "market_value[0].amount",
			},
			{
				name:  "negative radius",
				raw:   `{"title": "ok", "geofencing": {"radius": -1}}`,
				field: "geofencing.radius",
			},
			{
				name:  "latitude out of range",
				raw:   `{"title": "ok", "geofencing": {"coordinates": [{"latitude": 91, "longitude": 0}]}}`,
				field: "geofencing.coordinates[0].latitude",
			},
			{
				name:  "longitude out of range",
				raw:   `{"title": "ok", "geofencing": {"coordinates": [{"latitude": 0, "longitude": -181}]}}`,
				field: "geofencing.coordinates[0].longitude",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, issues, err := metadata.Lint(jsonAdapter, []byte(tt.raw))
				require.NoError(t, err)

				fields := make([]string, 0, len(issues))
				for _, issue := range issues {
					fields = append(fields, issue.Field)
				}
				assert.Contains(t, fields, tt.field)
			})
		}
	})

	t.Run("multiple findings accumulate", func(t *testing.T) {
		raw := []byte(`{
			"title": "",
			"market_value": [{"currency": "", "amount": -5}]
		}`)

		_, issues, err := metadata.Lint(jsonAdapter, raw)
		require.NoError(t, err)
		assert.Len(t, issues, 3)
	})
}
