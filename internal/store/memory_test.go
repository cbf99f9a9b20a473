package store

import (
	"testing"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
)

func TestMemoryStore(t *testing.T) {
	RunStoreTests(t,
		func(t *testing.T) Store {
			return NewMemoryStore(adapter.NewClock())
		},
		func(t *testing.T) {},
	)
}
