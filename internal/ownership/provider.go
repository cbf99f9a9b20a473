package ownership

import (
	"context"
)

// Provider answers authorization questions against the underlying ERC-721
// collection. Answers are always fetched live, never cached.
//
//go:generate mockgen -source=provider.go -destination=../mocks/ownership.go -package=mocks -mock_names=Provider=MockOwnershipProvider
type Provider interface {
	// OwnerOf returns the current owner of a token.
	// Returns domain.ErrTokenNotFound when the token does not exist.
	OwnerOf(ctx context.Context, tokenNumber string) (string, error)

	// IsAuthorizedForToken reports whether the caller may manage benefits of a
	// token: the token owner, an address approved for the token, an operator
	// approved for all of the owner's tokens, or a collection operator.
	IsAuthorizedForToken(ctx context.Context, caller, tokenNumber string) (bool, error)

	// IsCollectionOperator reports whether the caller may manage
	// collection-wide benefits
	IsCollectionOperator(ctx context.Context, caller string) (bool, error)

	// Close closes the underlying connection
	Close()
}
