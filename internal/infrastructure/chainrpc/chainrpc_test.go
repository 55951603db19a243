package chainrpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/internal/infrastructure/chainrpc"
	"github.com/tdex-network/tdex-vault/pkg/circuitbreaker"
)

const (
	testChainID   = "NetXdQprcVkpaWU"
	testBranch    = "BLockGenesisGenesisGenesisGenesisGenesisf79b5d1CoW2"
	testSource    = "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb"
	testDest      = "tz1aSkwEot3L2kmUvcoxzjMomb9mvBNuzFK6"
	testPublicKey = "edpkuBknW28nW72KG6RoHtYW7p12T6GKc7nAbwYX5m8Wd9sDVC9yav"
	testForged    = "a1b2c3d4"
	testOpHash    = "ooTestOperationHash"
)

var ctx = context.Background()

type fakeNode struct {
	revealed  bool
	rejection []domain.RPCError
	forged    forgeRequest
	injected  string
}

type forgeRequest struct {
	Branch   string                   `json:"branch"`
	Contents []map[string]interface{} `json:"contents"`
}

func (n *fakeNode) handler() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/chains/main/chain_id", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, testChainID)
	})
	mux.HandleFunc("/chains/main/blocks/head/hash", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, testBranch)
	})
	mux.HandleFunc(
		"/chains/main/blocks/head/context/contracts/"+testSource+"/counter",
		func(w http.ResponseWriter, _ *http.Request) { reply(w, "41") },
	)
	mux.HandleFunc(
		"/chains/main/blocks/head/context/contracts/"+testSource+"/manager_key",
		func(w http.ResponseWriter, _ *http.Request) {
			if n.revealed {
				reply(w, testPublicKey)
				return
			}
			reply(w, nil)
		},
	)
	mux.HandleFunc(
		"/chains/main/blocks/head/helpers/forge/operations",
		func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&n.forged)
			reply(w, testForged)
		},
	)
	mux.HandleFunc("/injection/operation", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&n.injected)
		if len(n.rejection) > 0 {
			w.WriteHeader(http.StatusInternalServerError)
			reply(w, n.rejection)
			return
		}
		reply(w, testOpHash)
	})
	return mux
}

func TestTezosChainID(t *testing.T) {
	srv := httptest.NewServer((&fakeNode{}).handler())
	defer srv.Close()

	svc := chainrpc.NewService(0)
	chainID, err := svc.TezosChainID(ctx, srv.URL+"/")
	require.NoError(t, err)
	require.Equal(t, testChainID, chainID)

	_, err = svc.TezosChainID(ctx, "not a url")
	require.Error(t, err)
}

func TestForgeOperations(t *testing.T) {
	fee := int64(2000)
	ops := []domain.OperationParams{
		{
			Kind:   domain.OperationTransaction,
			To:     testDest,
			Amount: decimal.RequireFromString("1.5"),
			Fee:    &fee,
		},
		{
			Kind:     domain.OperationDelegation,
			Delegate: testDest,
		},
	}

	t.Run("unrevealed source", func(t *testing.T) {
		node := &fakeNode{}
		srv := httptest.NewServer(node.handler())
		defer srv.Close()

		rpc, err := chainrpc.NewService(0).TezosRPC(srv.URL)
		require.NoError(t, err)
		forged, err := rpc.ForgeOperations(ctx, ports.ForgeRequest{
			Source: testSource, PublicKey: testPublicKey, Operations: ops,
		})
		require.NoError(t, err)
		require.Equal(t, testForged, forged)

		require.Equal(t, testBranch, node.forged.Branch)
		require.Len(t, node.forged.Contents, 3)

		reveal := node.forged.Contents[0]
		require.Equal(t, "reveal", reveal["kind"])
		require.Equal(t, "42", reveal["counter"])
		require.Equal(t, testPublicKey, reveal["public_key"])

		transfer := node.forged.Contents[1]
		require.Equal(t, "transaction", transfer["kind"])
		require.Equal(t, "43", transfer["counter"])
		require.Equal(t, "1500000", transfer["amount"])
		require.Equal(t, testDest, transfer["destination"])
		require.Equal(t, "2000", transfer["fee"])
		require.Equal(t, "10600", transfer["gas_limit"])

		delegation := node.forged.Contents[2]
		require.Equal(t, "delegation", delegation["kind"])
		require.Equal(t, "44", delegation["counter"])
		require.Equal(t, testDest, delegation["delegate"])
		require.Equal(t, "1257", delegation["fee"])
	})

	t.Run("revealed source", func(t *testing.T) {
		node := &fakeNode{revealed: true}
		srv := httptest.NewServer(node.handler())
		defer srv.Close()

		rpc, err := chainrpc.NewService(0).TezosRPC(srv.URL)
		require.NoError(t, err)
		_, err = rpc.ForgeOperations(ctx, ports.ForgeRequest{
			Source: testSource, PublicKey: testPublicKey, Operations: ops[:1],
		})
		require.NoError(t, err)
		require.Len(t, node.forged.Contents, 1)
		require.Equal(t, "42", node.forged.Contents[0]["counter"])
	})
}

func TestInjectOperation(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		node := &fakeNode{}
		srv := httptest.NewServer(node.handler())
		defer srv.Close()

		rpc, err := chainrpc.NewService(0).TezosRPC(srv.URL)
		require.NoError(t, err)
		hash, err := rpc.InjectOperation(ctx, "deadbeef")
		require.NoError(t, err)
		require.Equal(t, testOpHash, hash)
		require.Equal(t, "deadbeef", node.injected)
	})

	t.Run("rejected", func(t *testing.T) {
		node := &fakeNode{rejection: []domain.RPCError{{
			Kind: "temporary", ID: "proto.alpha.contract.balance_too_low",
		}}}
		srv := httptest.NewServer(node.handler())
		defer srv.Close()

		rpc, err := chainrpc.NewService(0).TezosRPC(srv.URL)
		require.NoError(t, err)

		// Rejections must not open the circuit breaker of the node.
		for i := 0; i <= circuitbreaker.MaxNumOfFailingRequests; i++ {
			_, err = rpc.InjectOperation(ctx, "deadbeef")
			opErr, ok := err.(*domain.OperationError)
			require.True(t, ok)
			require.Equal(t, node.rejection, opErr.Errors)
		}
	})
}

func TestEvmChainID(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		method = req.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x89"}`))
	}))
	defer srv.Close()

	chainID, err := chainrpc.NewService(0).EvmChainID(ctx, srv.URL)
	require.NoError(t, err)
	require.Equal(t, "137", chainID)
	require.Equal(t, "eth_chainId", method)
}

func TestEvmChainIDError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	}))
	defer srv.Close()

	_, err := chainrpc.NewService(0).EvmChainID(ctx, srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "method not found")
}
