package chainrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tdex-network/tdex-vault/pkg/httputil"
)

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

// EvmChainID returns the chain id of the EVM node at rpcURL, in decimal.
func (s *Service) EvmChainID(ctx context.Context, rpcURL string) (string, error) {
	baseURL, err := normalizeURL(rpcURL)
	if err != nil {
		return "", err
	}

	var resp jsonRPCResponse
	if err := s.call(baseURL, func() error {
		return httputil.PostJSON(ctx, baseURL, jsonRPCRequest{
			JSONRPC: "2.0",
			ID:      1,
			Method:  "eth_chainId",
			Params:  []interface{}{},
		}, &resp)
	}); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf(
			"eth_chainId failed with code %d: %s", resp.Error.Code, resp.Error.Message,
		)
	}

	var hexChainID string
	if err := json.Unmarshal(resp.Result, &hexChainID); err != nil {
		return "", fmt.Errorf("invalid eth_chainId result: %w", err)
	}
	chainID, err := hexutil.DecodeBig(hexChainID)
	if err != nil {
		return "", fmt.Errorf("invalid eth_chainId result: %w", err)
	}
	return chainID.String(), nil
}
