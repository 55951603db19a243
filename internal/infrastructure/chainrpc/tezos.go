package chainrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/pkg/httputil"
)

// Fees and limits used for operations that do not set their own.
const (
	DefaultTransactionFee          = 10000
	DefaultTransactionGasLimit     = 10600
	DefaultTransactionStorageLimit = 496
	DefaultDelegationFee           = 1257
	DefaultDelegationGasLimit      = 1000
	DefaultRevealFee               = 1420
	DefaultRevealGasLimit          = 1100
)

const (
	chainIDPath   = "/chains/main/chain_id"
	headHashPath  = "/chains/main/blocks/head/hash"
	contractsPath = "/chains/main/blocks/head/context/contracts/"
	forgePath     = "/chains/main/blocks/head/helpers/forge/operations"
	injectionPath = "/injection/operation"
)

type tezosClient struct {
	svc     *Service
	baseURL string
}

func (c *tezosClient) ChainID(ctx context.Context) (string, error) {
	var chainID string
	if err := c.get(ctx, chainIDPath, &chainID); err != nil {
		return "", err
	}
	return chainID, nil
}

type forgeBody struct {
	Branch   string                   `json:"branch"`
	Contents []map[string]interface{} `json:"contents"`
}

func (c *tezosClient) ForgeOperations(
	ctx context.Context, req ports.ForgeRequest,
) (string, error) {
	var branch string
	if err := c.get(ctx, headHashPath, &branch); err != nil {
		return "", err
	}
	var counterStr string
	if err := c.get(
		ctx, contractsPath+req.Source+"/counter", &counterStr,
	); err != nil {
		return "", err
	}
	counter, err := strconv.ParseUint(counterStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid counter %q: %w", counterStr, err)
	}
	var managerKey *string
	if err := c.get(
		ctx, contractsPath+req.Source+"/manager_key", &managerKey,
	); err != nil {
		return "", err
	}

	contents := make([]map[string]interface{}, 0, len(req.Operations)+1)
	if managerKey == nil {
		counter++
		contents = append(contents, map[string]interface{}{
			"kind":          "reveal",
			"source":        req.Source,
			"fee":           strconv.Itoa(DefaultRevealFee),
			"counter":       strconv.FormatUint(counter, 10),
			"gas_limit":     strconv.Itoa(DefaultRevealGasLimit),
			"storage_limit": "0",
			"public_key":    req.PublicKey,
		})
	}
	for _, op := range req.Operations {
		counter++
		content, err := operationContent(req.Source, counter, op)
		if err != nil {
			return "", err
		}
		contents = append(contents, content)
	}

	var forged string
	if err := c.post(ctx, forgePath, forgeBody{branch, contents}, &forged); err != nil {
		return "", err
	}
	return forged, nil
}

func (c *tezosClient) InjectOperation(
	ctx context.Context, signedBytes string,
) (string, error) {
	var hash string
	if err := c.post(ctx, injectionPath, signedBytes, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

func (c *tezosClient) get(ctx context.Context, path string, value interface{}) error {
	return c.svc.call(c.baseURL, func() error {
		return nodeError(httputil.GetJSON(ctx, c.baseURL+path, value))
	})
}

func (c *tezosClient) post(
	ctx context.Context, path string, body, value interface{},
) error {
	return c.svc.call(c.baseURL, func() error {
		return nodeError(httputil.PostJSON(ctx, c.baseURL+path, body, value))
	})
}

func operationContent(
	source string, counter uint64, op domain.OperationParams,
) (map[string]interface{}, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	content := map[string]interface{}{
		"kind":    string(op.Kind),
		"source":  source,
		"counter": strconv.FormatUint(counter, 10),
	}
	switch op.Kind {
	case domain.OperationTransaction:
		amount, _ := op.AmountMutez()
		content["amount"] = amount
		content["destination"] = op.To
		content["fee"] = valueOrDefault(op.Fee, DefaultTransactionFee)
		content["gas_limit"] = valueOrDefault(op.GasLimit, DefaultTransactionGasLimit)
		content["storage_limit"] = valueOrDefault(
			op.StorageLimit, DefaultTransactionStorageLimit,
		)
		if len(op.Parameters) > 0 {
			content["parameters"] = op.Parameters
		}
	case domain.OperationDelegation:
		if op.Delegate != "" {
			content["delegate"] = op.Delegate
		}
		content["fee"] = valueOrDefault(op.Fee, DefaultDelegationFee)
		content["gas_limit"] = valueOrDefault(op.GasLimit, DefaultDelegationGasLimit)
		content["storage_limit"] = valueOrDefault(op.StorageLimit, 0)
	}
	return content, nil
}

func valueOrDefault(v *int64, def int64) string {
	if v != nil {
		return strconv.FormatInt(*v, 10)
	}
	return strconv.FormatInt(def, 10)
}

// nodeError turns the error trace of a node into a *domain.OperationError.
// Responses that are not a trace are returned unchanged.
func nodeError(err error) error {
	statusErr, ok := err.(*httputil.StatusError)
	if !ok {
		return err
	}
	var trace []domain.RPCError
	if json.Unmarshal(statusErr.Body, &trace) != nil || len(trace) <= 0 {
		return err
	}
	return &domain.OperationError{
		Message: "Operation rejected",
		Errors:  trace,
	}
}
