package registry

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/logger"
	"github.com/feral-file/nft-benefit-registry/internal/ownership"
	"github.com/feral-file/nft-benefit-registry/internal/store"
	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
)

// Options holds construction-time registry behavior switches
type Options struct {
	// MaxBenefitsPerToken caps the number of live benefits per token
	// (0 = unlimited)
	MaxBenefitsPerToken int
	// AttachFeeWei is the fee required per attach, as a decimal wei string
	// ("" or "0" = attaching is free)
	AttachFeeWei string
}

// Registry implements the benefit registry operations for one configured
// ERC-721 collection.
//
// Mutations are serialized: authorization is checked live against the
// ownership provider, the store operation commits, then exactly one event is
// handed to the notifier. Failed operations emit nothing.
//
//go:generate mockgen -source=registry.go -destination=../mocks/registry.go -package=mocks -mock_names=Registry=MockRegistry
type Registry interface {
	// AttachTokenBenefit attaches a benefit to a single token
	AttachTokenBenefit(ctx context.Context, caller, tokenNumber, benefitID, metadataURI, paymentWei string) (*domain.Benefit, error)
	// AttachCollectionBenefit attaches a benefit to the whole collection
	AttachCollectionBenefit(ctx context.Context, caller, benefitID, metadataURI, paymentWei string) (*domain.Benefit, error)
	// UpdateBenefit replaces the metadata URI of a live benefit
	UpdateBenefit(ctx context.Context, caller, benefitID, metadataURI string) (*domain.Benefit, error)
	// RemoveBenefit removes a live benefit; its id can never be reused
	RemoveBenefit(ctx context.Context, caller, benefitID string) error
	// BenefitURI returns the metadata URI of a live benefit
	BenefitURI(ctx context.Context, benefitID string) (string, error)
	// IsBenefitAssigner reports whether the wallet is the recorded assigner of
	// a benefit. Returns false, not an error, for unknown benefit ids.
	IsBenefitAssigner(ctx context.Context, wallet, benefitID string) (bool, error)
	// TokenBenefits returns the live benefits of a token in attach order
	TokenBenefits(ctx context.Context, tokenNumber string) ([]domain.Benefit, error)
	// CollectionBenefits returns the live collection-scoped benefits in attach order
	CollectionBenefits(ctx context.Context) ([]domain.Benefit, error)
	// Capabilities lists the behaviors this instance supports
	Capabilities() []Capability
	// Supports reports whether this instance supports a capability
	Supports(capability Capability) bool
}

type registry struct {
	mu        sync.Mutex
	opts      Options
	chain     domain.Chain
	contract  string
	ownership ownership.Provider
	store     store.Store
	notifier  Notifier
	clock     adapter.Clock
	attachFee *big.Int // nil when attaching is free
}

// New creates a new registry for one collection
func New(chain domain.Chain, contract string, opts Options, owner ownership.Provider, s store.Store, notifier Notifier, clock adapter.Clock) (Registry, error) {
	if !domain.IsValidChain(chain) {
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}

	var fee *big.Int
	if opts.AttachFeeWei != "" && opts.AttachFeeWei != "0" {
		parsed, ok := new(big.Int).SetString(opts.AttachFeeWei, 10)
		if !ok || parsed.Sign() < 0 {
			return nil, fmt.Errorf("invalid attach fee: %s", opts.AttachFeeWei)
		}
		if parsed.Sign() > 0 {
			fee = parsed
		}
	}

	return &registry{
		opts:      opts,
		chain:     chain,
		contract:  domain.NormalizeAddress(contract),
		ownership: owner,
		store:     s,
		notifier:  notifier,
		clock:     clock,
		attachFee: fee,
	}, nil
}

// AttachTokenBenefit attaches a benefit to a single token
func (r *registry) AttachTokenBenefit(ctx context.Context, caller, tokenNumber, benefitID, metadataURI, paymentWei string) (*domain.Benefit, error) {
	if !domain.ValidTokenNumber(tokenNumber) {
		return nil, fmt.Errorf("%w: token number %q", domain.ErrInvalidArgument, tokenNumber)
	}
	if err := validateAttachArgs(benefitID, metadataURI); err != nil {
		return nil, err
	}
	if err := r.checkPayment(paymentWei); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authorized, err := r.ownership.IsAuthorizedForToken(ctx, caller, tokenNumber)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, domain.ErrUnauthorized
	}

	record := &schema.BenefitRecord{
		BenefitID:   benefitID,
		Scope:       domain.ScopeToken,
		TokenNumber: tokenNumber,
		MetadataURI: metadataURI,
		Assigner:    domain.NormalizeAddress(caller),
	}

	if err := r.store.CreateTokenBenefit(ctx, record, r.opts.MaxBenefitsPerToken); err != nil {
		return nil, err
	}

	r.notify(ctx, record, domain.EventTypeBenefitAttached)

	return record.Benefit(), nil
}

// AttachCollectionBenefit attaches a benefit to the whole collection
func (r *registry) AttachCollectionBenefit(ctx context.Context, caller, benefitID, metadataURI, paymentWei string) (*domain.Benefit, error) {
	if err := validateAttachArgs(benefitID, metadataURI); err != nil {
		return nil, err
	}
	if err := r.checkPayment(paymentWei); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authorized, err := r.ownership.IsCollectionOperator(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, domain.ErrUnauthorized
	}

	record := &schema.BenefitRecord{
		BenefitID:   benefitID,
		Scope:       domain.ScopeCollection,
		MetadataURI: metadataURI,
		Assigner:    domain.NormalizeAddress(caller),
	}

	if err := r.store.CreateCollectionBenefit(ctx, record); err != nil {
		return nil, err
	}

	r.notify(ctx, record, domain.EventTypeCollectionBenefitAttached)

	return record.Benefit(), nil
}

// UpdateBenefit replaces the metadata URI of a live benefit
func (r *registry) UpdateBenefit(ctx context.Context, caller, benefitID, metadataURI string) (*domain.Benefit, error) {
	if err := validateAttachArgs(benefitID, metadataURI); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.authorizeMutation(ctx, caller, benefitID); err != nil {
		return nil, err
	}

	updated, err := r.store.UpdateBenefitURI(ctx, benefitID, metadataURI)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	event := r.buildEvent(updated, domain.EventTypeBenefitUpdated)
	event.Assigner = domain.NormalizeAddress(caller)
	r.emit(ctx, event)

	return updated.Benefit(), nil
}

// RemoveBenefit removes a live benefit; its id can never be reused
func (r *registry) RemoveBenefit(ctx context.Context, caller, benefitID string) error {
	if !domain.ValidBenefitID(benefitID) {
		return fmt.Errorf("%w: benefit id %q", domain.ErrInvalidArgument, benefitID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.authorizeMutation(ctx, caller, benefitID); err != nil {
		return err
	}

	removed, err := r.store.RemoveBenefit(ctx, benefitID)
	if err != nil {
		return err
	}
	if removed == nil {
		return domain.ErrNotFound
	}

	event := r.buildEvent(removed, domain.EventTypeBenefitRemoved)
	event.MetadataURI = ""
	event.Assigner = domain.NormalizeAddress(caller)
	r.emit(ctx, event)

	return nil
}

// authorizeMutation checks that the benefit exists and the caller is the
// recorded assigner or authorized for the benefit's scope. Caller must hold
// the mutex.
func (r *registry) authorizeMutation(ctx context.Context, caller, benefitID string) (*schema.BenefitRecord, error) {
	existing, err := r.store.GetBenefit(ctx, benefitID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	if domain.SameAddress(caller, existing.Assigner) {
		return existing, nil
	}

	var authorized bool
	switch existing.Scope {
	case domain.ScopeToken:
		authorized, err = r.ownership.IsAuthorizedForToken(ctx, caller, existing.TokenNumber)
	case domain.ScopeCollection:
		authorized, err = r.ownership.IsCollectionOperator(ctx, caller)
	default:
		return nil, fmt.Errorf("unknown benefit scope: %s", existing.Scope)
	}
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, domain.ErrUnauthorized
	}

	return existing, nil
}

// BenefitURI returns the metadata URI of a live benefit
func (r *registry) BenefitURI(ctx context.Context, benefitID string) (string, error) {
	if !domain.ValidBenefitID(benefitID) {
		return "", fmt.Errorf("%w: benefit id %q", domain.ErrInvalidArgument, benefitID)
	}

	record, err := r.store.GetBenefit(ctx, benefitID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", domain.ErrNotFound
	}

	return record.MetadataURI, nil
}

// IsBenefitAssigner reports whether the wallet is the recorded assigner of a
// benefit. Returns false, not an error, for unknown benefit ids.
func (r *registry) IsBenefitAssigner(ctx context.Context, wallet, benefitID string) (bool, error) {
	if !domain.ValidBenefitID(benefitID) {
		return false, fmt.Errorf("%w: benefit id %q", domain.ErrInvalidArgument, benefitID)
	}

	record, err := r.store.GetBenefit(ctx, benefitID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}

	return domain.SameAddress(wallet, record.Assigner), nil
}

// TokenBenefits returns the live benefits of a token in attach order.
// Collection-scoped benefits are not included.
func (r *registry) TokenBenefits(ctx context.Context, tokenNumber string) ([]domain.Benefit, error) {
	if !domain.ValidTokenNumber(tokenNumber) {
		return nil, fmt.Errorf("%w: token number %q", domain.ErrInvalidArgument, tokenNumber)
	}

	records, err := r.store.ListTokenBenefits(ctx, tokenNumber)
	if err != nil {
		return nil, err
	}

	return toBenefits(records), nil
}

// CollectionBenefits returns the live collection-scoped benefits in attach order
func (r *registry) CollectionBenefits(ctx context.Context) ([]domain.Benefit, error) {
	records, err := r.store.ListCollectionBenefits(ctx)
	if err != nil {
		return nil, err
	}

	return toBenefits(records), nil
}

// checkPayment verifies the supplied payment covers the attach fee
func (r *registry) checkPayment(paymentWei string) error {
	if r.attachFee == nil {
		return nil
	}

	if paymentWei == "" {
		return domain.ErrPaymentRequired
	}

	payment, ok := new(big.Int).SetString(paymentWei, 10)
	if !ok || payment.Sign() < 0 {
		return fmt.Errorf("%w: payment %q", domain.ErrInvalidArgument, paymentWei)
	}

	if payment.Cmp(r.attachFee) < 0 {
		return domain.ErrPaymentRequired
	}

	return nil
}

// notify builds and emits the event for a freshly committed record
func (r *registry) notify(ctx context.Context, record *schema.BenefitRecord, eventType domain.EventType) {
	r.emit(ctx, r.buildEvent(record, eventType))
}

func (r *registry) buildEvent(record *schema.BenefitRecord, eventType domain.EventType) *domain.BenefitEvent {
	return &domain.BenefitEvent{
		EventID:     ulid.Make().String(),
		EventType:   eventType,
		Chain:       r.chain,
		Contract:    r.contract,
		Scope:       record.Scope,
		TokenNumber: record.TokenNumber,
		BenefitID:   record.BenefitID,
		MetadataURI: record.MetadataURI,
		Assigner:    record.Assigner,
		Timestamp:   r.clock.Now().UTC(),
	}
}

// emit hands the event to the notifier. The mutation is already committed;
// notification failures are logged, not surfaced.
func (r *registry) emit(ctx context.Context, event *domain.BenefitEvent) {
	if r.notifier == nil {
		return
	}

	if !event.Valid() {
		logger.WarnCtx(ctx, "dropping malformed event", zap.Any("event", event))
		return
	}

	r.notifier.Notify(ctx, event)
}

func validateAttachArgs(benefitID, metadataURI string) error {
	if !domain.ValidBenefitID(benefitID) {
		return fmt.Errorf("%w: benefit id %q", domain.ErrInvalidArgument, benefitID)
	}
	if metadataURI == "" {
		return fmt.Errorf("%w: empty metadata uri", domain.ErrInvalidArgument)
	}
	return nil
}

func toBenefits(records []schema.BenefitRecord) []domain.Benefit {
	benefits := make([]domain.Benefit, 0, len(records))
	for i := range records {
		benefits = append(benefits, *records[i].Benefit())
	}
	return benefits
}
