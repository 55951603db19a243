package vault

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrwallet/errors/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/internal/metrics"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
)

// Sign signs the hex encoded payload with the key of address. Tezos payloads
// are prefixed with watermark before hashing, EVM payloads are signed as
// personal messages. Managed contracts sign with their owner's key.
func (v *Vault) Sign(
	ctx context.Context, address, bytesHex string, watermark []byte,
) (*domain.Signature, error) {
	const op errors.Op = "vault.Sign"

	var signature *domain.Signature
	err := withError(op, "Failed to sign", func() error {
		if _, err := decodePayload(bytesHex); err != nil {
			return err
		}
		accounts, err := v.fetchAccounts()
		if err != nil {
			return err
		}
		signer, signerAddress, err := resolveSigner(accounts, address)
		if err != nil {
			return err
		}
		signature, err = v.sign(ctx, signer, signerAddress, bytesHex, watermark)
		return err
	})
	return signature, err
}

// SendOperations forges the given manager operations with the node at
// rpcURL, signs them with the key of address and injects them. Rejections
// of the node are returned as *domain.OperationError.
func (v *Vault) SendOperations(
	ctx context.Context, address, rpcURL string, ops []domain.OperationParams,
) (*domain.SentOperation, error) {
	const op errors.Op = "vault.SendOperations"

	var sent *domain.SentOperation
	err := func() error {
		if len(ops) <= 0 {
			return domain.ErrInvalidOperation
		}
		for _, o := range ops {
			if err := o.Validate(); err != nil {
				return err
			}
		}
		if v.deps.RPC == nil {
			return errors.E(errors.Invalid, "tezos rpc is not supported")
		}

		accounts, err := v.fetchAccounts()
		if err != nil {
			return err
		}
		signer, source, err := resolveSigner(accounts, address)
		if err != nil {
			return err
		}
		if source != signer.Address(wallet.ChainTezos) {
			return domain.ErrInvalidChain
		}
		publicKey, err := v.publicKey(source)
		if err != nil {
			return err
		}

		rpc, err := v.deps.RPC.TezosRPC(rpcURL)
		if err != nil {
			return err
		}
		forged, err := rpc.ForgeOperations(ctx, ports.ForgeRequest{
			Source:     source,
			PublicKey:  publicKey,
			Operations: ops,
		})
		if err != nil {
			return err
		}
		signature, err := v.sign(
			ctx, signer, source, forged, wallet.WatermarkGenericOp,
		)
		if err != nil {
			return err
		}
		hash, err := rpc.InjectOperation(ctx, signature.SBytes)
		if err != nil {
			return err
		}

		sent = &domain.SentOperation{
			Hash:      hash,
			Bytes:     forged,
			Signature: signature.PrefixSig,
		}
		return nil
	}()
	if err == nil {
		return sent, nil
	}
	if err = fromWalletError(err); domain.IsPublic(err) {
		return nil, err
	}
	log.WithError(err).Error("failed to send operations")
	return nil, errors.E(op, fmt.Sprintf("Failed to send operations: %s", err))
}

// resolveSigner returns the account holding the key that signs for address,
// together with the address of that key.
func resolveSigner(
	accounts domain.Accounts, address string,
) (*domain.Account, string, error) {
	account, ok := accounts.SignerByAddress(address)
	if !ok {
		return nil, "", domain.ErrAccountNotFound
	}

	switch k := account.Kind.(type) {
	case domain.WatchOnlyAccount:
		return nil, "", domain.ErrWatchOnlySign
	case domain.ManagedKTAccount:
		owner, ok := accounts.SignerByAddress(k.Owner)
		if !ok {
			return nil, "", domain.ErrManagedKTOwnerNotFound
		}
		if _, isKT := owner.Kind.(domain.ManagedKTAccount); isKT {
			return nil, "", domain.ErrManagedKTOwnerNotFound
		}
		if _, isWatchOnly := owner.Kind.(domain.WatchOnlyAccount); isWatchOnly {
			return nil, "", domain.ErrWatchOnlySign
		}
		return owner, k.Owner, nil
	default:
		return account, address, nil
	}
}

func (v *Vault) sign(
	ctx context.Context, account *domain.Account,
	address, bytesHex string, watermark []byte,
) (*domain.Signature, error) {
	key, err := v.sessionKey()
	if err != nil {
		return nil, err
	}
	chain := wallet.ChainTezos
	if account.Address(wallet.ChainEvm) == address {
		chain = wallet.ChainEvm
	}

	var signature *domain.Signature
	switch k := account.Kind.(type) {
	case domain.HDAccount, domain.ImportedAccount:
		var privateKey string
		if err := v.deps.Store.FetchAndDecryptOne(
			domain.PrivateKeyKey(address), key, &privateKey,
		); err != nil {
			return nil, err
		}
		signature, err = signLocal(chain, privateKey, bytesHex, watermark)
	case domain.LedgerAccount:
		signature, err = v.signHardware(ctx, k, bytesHex, watermark)
	default:
		return nil, domain.ErrWatchOnlySign
	}
	if err != nil {
		return nil, err
	}

	metrics.ObserveSignature(string(chain), account.Type().String())
	return signature, nil
}

func signLocal(
	chain wallet.Chain, privateKey, bytesHex string, watermark []byte,
) (*domain.Signature, error) {
	if chain == wallet.ChainEvm {
		payload, err := decodePayload(bytesHex)
		if err != nil {
			return nil, err
		}
		sig, err := wallet.SignEvmMessage(privateKey, payload)
		if err != nil {
			return nil, err
		}
		return &domain.Signature{Bytes: bytesHex, Sig: sig}, nil
	}

	// Tezos bytes are plain hex, the 0x prefix is an EVM convention.
	sig, err := wallet.SignTezos(wallet.SignTezosOpts{
		PrivateKey: privateKey,
		Bytes:      strings.TrimPrefix(bytesHex, "0x"),
		Watermark:  watermark,
	})
	if err != nil {
		return nil, err
	}
	return tezosSignature(sig), nil
}

// signHardware signs on the device of a Ledger account. The device is
// released on every path.
func (v *Vault) signHardware(
	ctx context.Context, account domain.LedgerAccount,
	bytesHex string, watermark []byte,
) (*domain.Signature, error) {
	if v.deps.Signers == nil {
		return nil, errors.E(errors.Invalid, "hardware signers are not supported")
	}
	publicKey, err := v.publicKey(account.Address)
	if err != nil {
		return nil, err
	}
	payload, err := decodePayload(bytesHex)
	if err != nil {
		return nil, err
	}

	signer, cleanup, err := v.deps.Signers.Create(ctx, ports.HardwareSignerOpts{
		Chain:          account.Chain,
		DerivationPath: account.DerivationPath,
		DerivationType: account.DerivationType,
		PublicKey:      publicKey,
		Address:        account.Address,
	})
	if err != nil {
		return nil, err
	}
	defer cleanup()

	sig, err := signer.Sign(ctx, payload, watermark)
	if err != nil {
		return nil, err
	}
	if account.Chain == wallet.ChainEvm {
		return &domain.Signature{
			Bytes: bytesHex, Sig: "0x" + hex.EncodeToString(sig),
		}, nil
	}
	return tezosSignature(
		wallet.NewTezosSignature(strings.TrimPrefix(bytesHex, "0x"), sig),
	), nil
}

func (v *Vault) publicKey(address string) (string, error) {
	key, err := v.sessionKey()
	if err != nil {
		return "", err
	}
	var publicKey string
	if err := v.deps.Store.FetchAndDecryptOne(
		domain.PublicKeyKey(address), key, &publicKey,
	); err != nil {
		return "", err
	}
	return publicKey, nil
}

func tezosSignature(sig *wallet.TezosSignature) *domain.Signature {
	return &domain.Signature{
		Bytes:     sig.Bytes,
		Sig:       sig.Sig,
		PrefixSig: sig.PrefixSig,
		SBytes:    sig.SBytes,
	}
}

func decodePayload(bytesHex string) ([]byte, error) {
	payload, err := hex.DecodeString(strings.TrimPrefix(bytesHex, "0x"))
	if err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return payload, nil
}
