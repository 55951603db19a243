package ports

import (
	"context"

	"github.com/tdex-network/tdex-vault/internal/core/domain"
)

// ForgeRequest is a batch of manager operations to be forged on behalf of
// Source. PublicKey is used to prepend a reveal operation when the source
// has not revealed its key yet.
type ForgeRequest struct {
	Source     string
	PublicKey  string
	Operations []domain.OperationParams
}

// TezosRPC is the subset of a Tezos node API the vault needs to submit
// operations. Rejections of the node are returned as *domain.OperationError.
type TezosRPC interface {
	ChainID(ctx context.Context) (string, error)
	// ForgeOperations fills branch, counters, fees and limits and returns the
	// hex encoded unsigned bytes.
	ForgeOperations(ctx context.Context, req ForgeRequest) (string, error)
	// InjectOperation injects the hex encoded signed bytes and returns the
	// operation hash.
	InjectOperation(ctx context.Context, signedBytes string) (string, error)
}

// TezosRPCFactory returns a client for the node at the given URL.
type TezosRPCFactory interface {
	TezosRPC(rpcURL string) (TezosRPC, error)
}

// ChainIDResolver looks up the chain id served by an RPC endpoint.
type ChainIDResolver interface {
	// TezosChainID returns the base58 encoded chain id of a Tezos node.
	TezosChainID(ctx context.Context, rpcURL string) (string, error)
	// EvmChainID returns the decimal chain id of an EVM JSON-RPC endpoint.
	EvmChainID(ctx context.Context, rpcURL string) (string, error)
}
