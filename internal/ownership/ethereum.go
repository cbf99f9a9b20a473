package ownership

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

// Config holds the collection the provider answers for
type Config struct {
	Chain           domain.Chain
	ContractAddress string
	// ExtraOperators are addresses trusted for collection-wide benefits in
	// addition to the contract owner
	ExtraOperators []string
}

type ethereumProvider struct {
	cfg    Config
	client adapter.EthClient
}

// NewEthereumProvider creates a Provider backed by live eth_call lookups
// against an ERC-721 contract
func NewEthereumProvider(cfg Config, client adapter.EthClient) Provider {
	return &ethereumProvider{cfg: cfg, client: client}
}

// OwnerOf returns the current owner of a token
func (p *ethereumProvider) OwnerOf(ctx context.Context, tokenNumber string) (string, error) {
	// ERC721 ownerOf function signature: ownerOf(uint256) returns (address)
	ownerOfABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI: %w", err)
	}

	tokenID, ok := new(big.Int).SetString(tokenNumber, 10)
	if !ok {
		return "", fmt.Errorf("invalid token number: %s", tokenNumber)
	}

	data, err := ownerOfABI.Pack("ownerOf", tokenID)
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	result, err := p.call(ctx, data)
	if err != nil {
		// ownerOf reverts for nonexistent tokens
		if isRevertError(err) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to call contract: %w", err)
	}

	var owner common.Address
	if err := ownerOfABI.UnpackIntoInterface(&owner, "ownerOf", result); err != nil {
		return "", fmt.Errorf("failed to unpack result: %w", err)
	}

	if owner.Hex() == domain.ETHEREUM_ZERO_ADDRESS {
		return "", domain.ErrTokenNotFound
	}

	return owner.Hex(), nil
}

// IsAuthorizedForToken reports whether the caller may manage benefits of a token
func (p *ethereumProvider) IsAuthorizedForToken(ctx context.Context, caller, tokenNumber string) (bool, error) {
	owner, err := p.OwnerOf(ctx, tokenNumber)
	if err != nil {
		return false, err
	}

	if domain.SameAddress(caller, owner) {
		return true, nil
	}

	approved, err := p.getApproved(ctx, tokenNumber)
	if err != nil {
		return false, err
	}
	if domain.SameAddress(caller, approved) {
		return true, nil
	}

	operator, err := p.isApprovedForAll(ctx, owner, caller)
	if err != nil {
		return false, err
	}
	if operator {
		return true, nil
	}

	return p.IsCollectionOperator(ctx, caller)
}

// IsCollectionOperator reports whether the caller may manage collection-wide benefits
func (p *ethereumProvider) IsCollectionOperator(ctx context.Context, caller string) (bool, error) {
	for _, op := range p.cfg.ExtraOperators {
		if domain.SameAddress(caller, op) {
			return true, nil
		}
	}

	contractOwner, err := p.contractOwner(ctx)
	if err != nil {
		return false, err
	}

	return contractOwner != "" && domain.SameAddress(caller, contractOwner), nil
}

// getApproved fetches the approved address for a token
func (p *ethereumProvider) getApproved(ctx context.Context, tokenNumber string) (string, error) {
	// ERC721 getApproved function signature: getApproved(uint256) returns (address)
	getApprovedABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"getApproved","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI: %w", err)
	}

	tokenID, ok := new(big.Int).SetString(tokenNumber, 10)
	if !ok {
		return "", fmt.Errorf("invalid token number: %s", tokenNumber)
	}

	data, err := getApprovedABI.Pack("getApproved", tokenID)
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	result, err := p.call(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to call contract: %w", err)
	}

	var approved common.Address
	if err := getApprovedABI.UnpackIntoInterface(&approved, "getApproved", result); err != nil {
		return "", fmt.Errorf("failed to unpack result: %w", err)
	}

	return approved.Hex(), nil
}

// isApprovedForAll checks whether an operator is approved for all of an owner's tokens
func (p *ethereumProvider) isApprovedForAll(ctx context.Context, owner, operator string) (bool, error) {
	// ERC721 isApprovedForAll function signature: isApprovedForAll(address,address) returns (bool)
	isApprovedForAllABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	if err != nil {
		return false, fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := isApprovedForAllABI.Pack("isApprovedForAll", common.HexToAddress(owner), common.HexToAddress(operator))
	if err != nil {
		return false, fmt.Errorf("failed to pack data: %w", err)
	}

	result, err := p.call(ctx, data)
	if err != nil {
		return false, fmt.Errorf("failed to call contract: %w", err)
	}

	var approved bool
	if err := isApprovedForAllABI.UnpackIntoInterface(&approved, "isApprovedForAll", result); err != nil {
		return false, fmt.Errorf("failed to unpack result: %w", err)
	}

	return approved, nil
}

// contractOwner fetches the Ownable owner of the contract.
// Returns "" when the contract does not implement owner().
func (p *ethereumProvider) contractOwner(ctx context.Context) (string, error) {
	// Ownable owner function signature: owner() returns (address)
	ownerABI, err := abi.JSON(strings.NewReader(`[{"constant":true,"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := ownerABI.Pack("owner")
	if err != nil {
		return "", fmt.Errorf("failed to pack data: %w", err)
	}

	result, err := p.call(ctx, data)
	if err != nil {
		if isRevertError(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to call contract: %w", err)
	}

	var owner common.Address
	if err := ownerABI.UnpackIntoInterface(&owner, "owner", result); err != nil {
		return "", fmt.Errorf("failed to unpack result: %w", err)
	}

	return owner.Hex(), nil
}

// call performs an eth_call against the configured contract at the latest block
func (p *ethereumProvider) call(ctx context.Context, data []byte) ([]byte, error) {
	contractAddr := common.HexToAddress(p.cfg.ContractAddress)
	return p.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
}

// isRevertError checks if an eth_call error is a contract revert
func isRevertError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "execution reverted") ||
		strings.Contains(err.Error(), "revert")
}

// Close closes the connection
func (p *ethereumProvider) Close() {
	p.client.Close()
}
