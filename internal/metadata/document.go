package metadata

import (
	"fmt"
	"net/url"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
)

// Document is the benefit metadata JSON shape shared between benefit
// assigners and consuming applications. The registry never fetches or stores
// these documents; it only offers an advisory lint for assigners who want to
// check a document before publishing it.
type Document struct {
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	ImageURI          string             `json:"imageURI,omitempty"`
	Type              string             `json:"type,omitempty"`
	Category          string             `json:"category,omitempty"`
	Provider          *Provider          `json:"provider,omitempty"`
	RedemptionDetails *RedemptionDetails `json:"redemption_details,omitempty"`
	MarketValue       []MarketValue      `json:"market_value,omitempty"`
	Geofencing        *Geofencing        `json:"geofencing,omitempty"`
}

// Provider describes the party offering the benefit
type Provider struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ExternalURL string `json:"externalURL,omitempty"`
	ImageURI    string `json:"imageURI,omitempty"`
}

// RedemptionDetails describes how and when the benefit can be redeemed
type RedemptionDetails struct {
	RedemptionCriteria  string            `json:"redemption_criteria,omitempty"`
	RedemptionRole      string            `json:"redemption_role,omitempty"`
	RedemptionFrequency string            `json:"redemption_frequency,omitempty"`
	RedemptionPeriod    *RedemptionPeriod `json:"redemption_period,omitempty"`
}

// RedemptionPeriod bounds the redemption window
type RedemptionPeriod struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// MarketValue expresses an indicative value of the benefit
type MarketValue struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// Geofencing restricts where the benefit applies
type Geofencing struct {
	Mode        string       `json:"mode,omitempty"`
	Coordinates []Coordinate `json:"coordinates,omitempty"`
	Radius      float64      `json:"radius,omitempty"`
	Unit        string       `json:"unit,omitempty"`
}

// Coordinate is a geographic point
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Issue is one advisory lint finding
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Lint parses a raw document and reports advisory issues. Findings never
// block registry operations; schema conformance is enforced by consumers.
func Lint(jsonAdapter adapter.JSON, raw []byte) (*Document, []Issue, error) {
	var doc Document
	if err := jsonAdapter.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse document: %w", err)
	}

	var issues []Issue

	if doc.Title == "" {
		issues = append(issues, Issue{Field: "title", Message: "title is empty"})
	}
	if doc.ImageURI != "" && !validURI(doc.ImageURI) {
		issues = append(issues, Issue{Field: "imageURI", Message: "not a valid URI"})
	}
	if doc.Provider != nil {
		if doc.Provider.Name == "" {
			issues = append(issues, Issue{Field: "provider.name", Message: "provider name is empty"})
		}
		if doc.Provider.ExternalURL != "" && !validURI(doc.Provider.ExternalURL) {
			issues = append(issues, Issue{Field: "provider.externalURL", Message: "not a valid URI"})
		}
	}
	for i, mv := range doc.MarketValue {
		if mv.Currency == "" {
			issues = append(issues, Issue{Field: fmt.Sprintf("market_value[%d].currency", i), Message: "currency is empty"})
		}
		if mv.Amount < 0 {
			issues = append(issues, Issue{Field: fmt.Sprintf("market_value[%d].amount", i), Message: "amount is negative"})
		}
	}
	if doc.Geofencing != nil {
		if doc.Geofencing.Radius < 0 {
			issues = append(issues, Issue{Field: "geofencing.radius", Message: "radius is negative"})
		}
		for i, c := range doc.Geofencing.Coordinates {
			if c.Latitude < -90 || c.Latitude > 90 {
				issues = append(issues, Issue{Field: fmt.Sprintf("geofencing.coordinates[%d].latitude", i), Message: "latitude out of range"})
			}
			if c.Longitude < -180 || c.Longitude > 180 {
				issues = append(issues, Issue{Field: fmt.Sprintf("geofencing.coordinates[%d].longitude", i), Message: "longitude out of range"})
			}
		}
	}

	return &doc, issues, nil
}

func validURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}
