package wallet

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// MnemonicToEvmAccountCreds derives the secp256k1 key pair of the HD account
// at the given index.
func MnemonicToEvmAccountCreds(mnemonic string, index int) (*AccountCreds, error) {
	path, err := HDPath(ChainEvm, index)
	if err != nil {
		return nil, err
	}
	return EvmMnemonicWithPathToAccountCreds(mnemonic, "", path)
}

// EvmMnemonicWithPathToAccountCreds derives an EVM key pair from a mnemonic,
// an optional BIP-39 passphrase and a BIP-32 path. The default HD path of
// account 0 is used when path is empty.
func EvmMnemonicWithPathToAccountCreds(
	mnemonic, passphrase, path string,
) (*AccountCreds, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, ErrInvalidMnemonicOrPassword
	}
	if path == "" {
		path, _ = HDPath(ChainEvm, 0)
	}
	privateKey, err := DeriveEvmPrivateKey(seed, path)
	if err != nil {
		return nil, err
	}
	return PrivateKeyToEvmAccountCreds(hexutil.Encode(privateKey))
}

// DeriveEvmPrivateKey walks a BIP-32 path from the master key of the given
// seed and returns the raw 32 byte secp256k1 private key at its end.
func DeriveEvmPrivateKey(seed []byte, path string) ([]byte, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	derivationPath, err := ParseChainDerivationPath(ChainEvm, path)
	if err != nil {
		return nil, err
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, step := range derivationPath {
		key, err = key.Derive(step)
		if err != nil {
			return nil, err
		}
	}
	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return privKey.Serialize(), nil
}

// PrivateKeyToEvmAccountCreds parses a hex encoded secp256k1 private key,
// with or without 0x prefix.
func PrivateKeyToEvmAccountCreds(privateKey string) (*AccountCreds, error) {
	privateKey = strings.TrimSpace(privateKey)
	if privateKey == "" {
		return nil, ErrNullPrivateKey
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}

	return &AccountCreds{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PublicKey:  hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}, nil
}

// EvmPublicKeyToAddress returns the checksummed address of a hex encoded
// secp256k1 public key, in either compressed or uncompressed form.
func EvmPublicKeyToAddress(publicKey string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(publicKey, "0x"))
	if err != nil {
		return "", ErrInvalidAddress
	}
	pubKey, err := btcec.ParsePubKey(raw)
	if err != nil {
		return "", ErrInvalidAddress
	}
	return crypto.PubkeyToAddress(*pubKey.ToECDSA()).Hex(), nil
}

// ValidateEvmAddress returns an error if the given string is not a 20 byte
// hex address.
func ValidateEvmAddress(address string) error {
	if !common.IsHexAddress(address) || !strings.HasPrefix(address, "0x") {
		return ErrInvalidAddress
	}
	return nil
}

// ChecksumEvmAddress returns the EIP-55 form of a valid address.
func ChecksumEvmAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
