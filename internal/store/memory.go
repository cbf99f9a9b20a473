package store

import (
	"context"
	"sync"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
)

// memoryStore is an in-memory Store implementation guarded by a mutex.
// Tombstoned records stay in the map so removed benefit ids can never be
// reattached.
type memoryStore struct {
	mu      sync.Mutex
	clock   adapter.Clock
	records map[string]*schema.BenefitRecord // benefitID -> record, tombstones included
	order   []string                         // benefit ids in attach order
	clients map[string]*schema.WebhookClient
	nextID  int64
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore(clock adapter.Clock) Store {
	return &memoryStore{
		clock:   clock,
		records: make(map[string]*schema.BenefitRecord),
		clients: make(map[string]*schema.WebhookClient),
		nextID:  1,
	}
}

func (s *memoryStore) CreateTokenBenefit(_ context.Context, record *schema.BenefitRecord, maxPerToken int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.BenefitID]; ok {
		return domain.ErrBenefitAlreadyExists
	}

	if maxPerToken > 0 {
		live := 0
		for _, id := range s.order {
			r := s.records[id]
			if r.Live() && r.Scope == domain.ScopeToken && r.TokenNumber == record.TokenNumber {
				live++
			}
		}
		if live >= maxPerToken {
			return domain.ErrCapacityExceeded
		}
	}

	s.insert(record)
	return nil
}

func (s *memoryStore) CreateCollectionBenefit(_ context.Context, record *schema.BenefitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.BenefitID]; ok {
		return domain.ErrBenefitAlreadyExists
	}

	s.insert(record)
	return nil
}

// insert stores a copy of the record and assigns bookkeeping fields.
// Caller must hold the mutex.
func (s *memoryStore) insert(record *schema.BenefitRecord) {
	now := s.clock.Now().UTC()
	record.ID = s.nextID
	record.CreatedAt = now
	record.UpdatedAt = now
	s.nextID++

	stored := *record
	s.records[record.BenefitID] = &stored
	s.order = append(s.order, record.BenefitID)
}

func (s *memoryStore) GetBenefit(_ context.Context, benefitID string) (*schema.BenefitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[benefitID]
	if !ok || !r.Live() {
		return nil, nil
	}

	copied := *r
	return &copied, nil
}

func (s *memoryStore) UpdateBenefitURI(_ context.Context, benefitID string, metadataURI string) (*schema.BenefitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[benefitID]
	if !ok || !r.Live() {
		return nil, nil
	}

	r.MetadataURI = metadataURI
	r.UpdatedAt = s.clock.Now().UTC()

	copied := *r
	return &copied, nil
}

func (s *memoryStore) RemoveBenefit(_ context.Context, benefitID string) (*schema.BenefitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[benefitID]
	if !ok || !r.Live() {
		return nil, nil
	}

	copied := *r

	removedAt := s.clock.Now().UTC()
	r.RemovedAt = &removedAt

	return &copied, nil
}

func (s *memoryStore) ListTokenBenefits(_ context.Context, tokenNumber string) ([]schema.BenefitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []schema.BenefitRecord
	for _, id := range s.order {
		r := s.records[id]
		if r.Live() && r.Scope == domain.ScopeToken && r.TokenNumber == tokenNumber {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (s *memoryStore) ListCollectionBenefits(_ context.Context) ([]schema.BenefitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []schema.BenefitRecord
	for _, id := range s.order {
		r := s.records[id]
		if r.Live() && r.Scope == domain.ScopeCollection {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (s *memoryStore) CreateWebhookClient(_ context.Context, client *schema.WebhookClient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client.CreatedAt = s.clock.Now().UTC()
	stored := *client
	s.clients[client.ID] = &stored
	return nil
}

func (s *memoryStore) ListActiveWebhookClients(_ context.Context) ([]schema.WebhookClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []schema.WebhookClient
	for _, c := range s.clients {
		if c.Active {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (s *memoryStore) DeactivateWebhookClient(_ context.Context, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[clientID]
	if !ok || !c.Active {
		return false, nil
	}
	c.Active = false
	return true, nil
}
