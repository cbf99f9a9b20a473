package schema

import (
	"time"

	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

// BenefitRecord represents the benefit_records table. One row per benefit ever
// attached; removal tombstones the row instead of deleting it so the benefit id
// can never be reused.
type BenefitRecord struct {
	// ID is the internal database primary key; attach order follows ID
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// BenefitID is the caller-supplied benefit identifier, unique across both
	// scopes and across removed benefits
	BenefitID string `gorm:"column:benefit_id;not null;uniqueIndex;type:text"`
	// Scope indicates whether the benefit targets one token or the whole collection
	Scope domain.BenefitScope `gorm:"column:scope;not null;type:text;index:idx_benefit_records_scope_token,priority:1"`
	// TokenNumber is the target token for token-scoped benefits (empty for collection scope)
	TokenNumber string `gorm:"column:token_number;not null;default:'';type:text;index:idx_benefit_records_scope_token,priority:2"`
	// MetadataURI points at the off-chain benefit metadata document
	MetadataURI string `gorm:"column:metadata_uri;not null;type:text"`
	// Assigner is the normalized address that attached the benefit
	Assigner string `gorm:"column:assigner;not null;type:text"`
	// RemovedAt marks the benefit as removed; removed rows stay as tombstones
	RemovedAt *time.Time `gorm:"column:removed_at"`
	// CreatedAt is the attach timestamp
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	// UpdatedAt tracks the last metadata update
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the BenefitRecord model
func (BenefitRecord) TableName() string {
	return "benefit_records"
}

// Live reports whether the benefit has not been removed
func (r *BenefitRecord) Live() bool {
	return r.RemovedAt == nil
}

// Benefit converts the row into its domain representation
func (r *BenefitRecord) Benefit() *domain.Benefit {
	return &domain.Benefit{
		BenefitID:   r.BenefitID,
		Scope:       r.Scope,
		TokenNumber: r.TokenNumber,
		MetadataURI: r.MetadataURI,
		Assigner:    r.Assigner,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
