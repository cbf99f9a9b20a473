package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
)

type pgStore struct {
	db    *gorm.DB
	clock adapter.Clock
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB, clock adapter.Clock) Store {
	return &pgStore{db: db, clock: clock}
}

// Migrate creates or updates the registry tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.BenefitRecord{},
		&schema.WebhookClient{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

func (s *pgStore) CreateTokenBenefit(ctx context.Context, record *schema.BenefitRecord, maxPerToken int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := benefitIDAvailable(tx, record.BenefitID); err != nil {
			return err
		}

		if maxPerToken > 0 {
			var live int64
			err := tx.Model(&schema.BenefitRecord{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("scope = ? AND token_number = ? AND removed_at IS NULL", domain.ScopeToken, record.TokenNumber).
				Count(&live).Error
			if err != nil {
				return fmt.Errorf("failed to count token benefits: %w", err)
			}
			if live >= int64(maxPerToken) {
				return domain.ErrCapacityExceeded
			}
		}

		return s.insert(tx, record)
	})
}

func (s *pgStore) CreateCollectionBenefit(ctx context.Context, record *schema.BenefitRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := benefitIDAvailable(tx, record.BenefitID); err != nil {
			return err
		}
		return s.insert(tx, record)
	})
}

// benefitIDAvailable checks that no row (tombstones included) holds the id
func benefitIDAvailable(tx *gorm.DB, benefitID string) error {
	var count int64
	err := tx.Model(&schema.BenefitRecord{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("benefit_id = ?", benefitID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check benefit id: %w", err)
	}
	if count > 0 {
		return domain.ErrBenefitAlreadyExists
	}
	return nil
}

func (s *pgStore) insert(tx *gorm.DB, record *schema.BenefitRecord) error {
	now := s.clock.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := tx.Create(record).Error; err != nil {
		// The unique index backstops the availability check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrBenefitAlreadyExists
		}
		return fmt.Errorf("failed to create benefit: %w", err)
	}
	return nil
}

func (s *pgStore) GetBenefit(ctx context.Context, benefitID string) (*schema.BenefitRecord, error) {
	var record schema.BenefitRecord
	err := s.db.WithContext(ctx).
		Where("benefit_id = ? AND removed_at IS NULL", benefitID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get benefit: %w", err)
	}
	return &record, nil
}

func (s *pgStore) UpdateBenefitURI(ctx context.Context, benefitID string, metadataURI string) (*schema.BenefitRecord, error) {
	var record *schema.BenefitRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing schema.BenefitRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("benefit_id = ? AND removed_at IS NULL", benefitID).
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get benefit: %w", err)
		}

		existing.MetadataURI = metadataURI
		existing.UpdatedAt = s.clock.Now().UTC()

		if err := tx.Model(&schema.BenefitRecord{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"metadata_uri": existing.MetadataURI,
				"updated_at":   existing.UpdatedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update benefit: %w", err)
		}

		record = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *pgStore) RemoveBenefit(ctx context.Context, benefitID string) (*schema.BenefitRecord, error) {
	var record *schema.BenefitRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing schema.BenefitRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("benefit_id = ? AND removed_at IS NULL", benefitID).
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get benefit: %w", err)
		}

		removedAt := s.clock.Now().UTC()
		if err := tx.Model(&schema.BenefitRecord{}).
			Where("id = ?", existing.ID).
			Update("removed_at", removedAt).Error; err != nil {
			return fmt.Errorf("failed to remove benefit: %w", err)
		}

		record = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *pgStore) ListTokenBenefits(ctx context.Context, tokenNumber string) ([]schema.BenefitRecord, error) {
	var records []schema.BenefitRecord
	err := s.db.WithContext(ctx).
		Where("scope = ? AND token_number = ? AND removed_at IS NULL", domain.ScopeToken, tokenNumber).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list token benefits: %w", err)
	}
	return records, nil
}

func (s *pgStore) ListCollectionBenefits(ctx context.Context) ([]schema.BenefitRecord, error) {
	var records []schema.BenefitRecord
	err := s.db.WithContext(ctx).
		Where("scope = ? AND removed_at IS NULL", domain.ScopeCollection).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collection benefits: %w", err)
	}
	return records, nil
}

func (s *pgStore) CreateWebhookClient(ctx context.Context, client *schema.WebhookClient) error {
	client.CreatedAt = s.clock.Now().UTC()
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return fmt.Errorf("failed to create webhook client: %w", err)
	}
	return nil
}

func (s *pgStore) ListActiveWebhookClients(ctx context.Context) ([]schema.WebhookClient, error) {
	var clients []schema.WebhookClient
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook clients: %w", err)
	}
	return clients, nil
}

func (s *pgStore) DeactivateWebhookClient(ctx context.Context, clientID string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&schema.WebhookClient{}).
		Where("id = ? AND active = ?", clientID, true).
		Update("active", false)
	if result.Error != nil {
		return false, fmt.Errorf("failed to deactivate webhook client: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
