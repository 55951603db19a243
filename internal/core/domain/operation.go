package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OperationKind is the kind of a Tezos manager operation.
type OperationKind string

const (
	OperationTransaction OperationKind = "transaction"
	OperationDelegation  OperationKind = "delegation"
)

var tezDecimals int32 = 6

// OperationParams describes a manager operation to be forged, signed and
// injected. Amounts are expressed in tez, fees and limits are optional and
// default to the values of the rpc client when missing.
type OperationParams struct {
	Kind         OperationKind   `json:"kind"`
	To           string          `json:"to,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Delegate     string          `json:"delegate,omitempty"`
	Fee          *int64          `json:"fee,omitempty"`
	GasLimit     *int64          `json:"gasLimit,omitempty"`
	StorageLimit *int64          `json:"storageLimit,omitempty"`
	Parameters   json.RawMessage `json:"parameter,omitempty"`
}

// Validate checks the params are consistent with their kind.
func (p OperationParams) Validate() error {
	switch p.Kind {
	case OperationTransaction:
		if p.To == "" {
			return ErrInvalidOperation
		}
		if _, err := p.AmountMutez(); err != nil {
			return err
		}
	case OperationDelegation:
	default:
		return ErrInvalidOperation
	}
	for _, v := range []*int64{p.Fee, p.GasLimit, p.StorageLimit} {
		if v != nil && *v < 0 {
			return ErrInvalidOperation
		}
	}
	return nil
}

// AmountMutez returns the amount converted to mutez, as a decimal string.
func (p OperationParams) AmountMutez() (string, error) {
	mutez := p.Amount.Shift(tezDecimals)
	if mutez.IsNegative() || !mutez.Equal(mutez.Truncate(0)) {
		return "", ErrInvalidOperation
	}
	return mutez.StringFixed(0), nil
}

// RPCError is a single entry of the error trace returned by a Tezos node.
type RPCError struct {
	Kind string          `json:"kind"`
	ID   string          `json:"id"`
	Msg  string          `json:"msg,omitempty"`
	With json.RawMessage `json:"with,omitempty"`
}

// OperationError is returned when a node rejects an operation. It is passed
// through to callers unchanged so that they can branch on the error trace.
type OperationError struct {
	Message string
	Errors  []RPCError
}

func (e *OperationError) Error() string {
	if len(e.Errors) <= 0 {
		return e.Message
	}
	ids := make([]string, 0, len(e.Errors))
	for _, rpcErr := range e.Errors {
		ids = append(ids, rpcErr.ID)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(ids, ", "))
}

// SentOperation is the outcome of a successful injection.
type SentOperation struct {
	Hash      string `json:"hash"`
	Bytes     string `json:"bytes"`
	Signature string `json:"signature"`
}
