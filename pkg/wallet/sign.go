package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

// Watermarks prepended to Tezos payloads before hashing.
var (
	WatermarkBlock        = []byte{0x01}
	WatermarkEndorsement  = []byte{0x02}
	WatermarkGenericOp    = []byte{0x03}
	WatermarkMichelsonMsg = []byte{0x05}
)

// TezosSignature is the result of signing a hex encoded Tezos payload.
type TezosSignature struct {
	Bytes     string `json:"bytes"`
	Sig       string `json:"sig"`
	PrefixSig string `json:"prefixSig"`
	SBytes    string `json:"sbytes"`
}

// SignTezosOpts is the struct given to SignTezos method
type SignTezosOpts struct {
	PrivateKey string
	Bytes      string
	Watermark  []byte
}

func (o SignTezosOpts) validate() error {
	if len(o.PrivateKey) <= 0 {
		return ErrNullPrivateKey
	}
	if _, err := hex.DecodeString(o.Bytes); err != nil {
		return ErrInvalidPayload
	}
	return nil
}

// SignTezos signs the blake2b-256 digest of watermark || bytes with an edsk
// private key.
func SignTezos(opts SignTezosOpts) (*TezosSignature, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	creds, err := PrivateKeyToTezosAccountCreds(opts.PrivateKey, "")
	if err != nil {
		return nil, err
	}
	sk, _ := b58CheckDecode(creds.PrivateKey, prefixEdsk)

	digest := TezosDigest(opts.Bytes, opts.Watermark)
	sig := ed25519.Sign(ed25519.PrivateKey(sk), digest)
	return NewTezosSignature(opts.Bytes, sig), nil
}

// NewTezosSignature builds the signature result of a payload from the raw
// 64 byte ed25519 signature, as returned by local and hardware signers.
func NewTezosSignature(bytesHex string, sig []byte) *TezosSignature {
	sigHex := hex.EncodeToString(sig)
	return &TezosSignature{
		Bytes:     bytesHex,
		Sig:       sigHex,
		PrefixSig: b58CheckEncode(prefixEdsig, sig),
		SBytes:    bytesHex + sigHex,
	}
}

// TezosDigest returns the blake2b-256 digest a Tezos signer signs.
func TezosDigest(bytesHex string, watermark []byte) []byte {
	payload, _ := hex.DecodeString(bytesHex)
	data := make([]byte, 0, len(watermark)+len(payload))
	data = append(data, watermark...)
	data = append(data, payload...)
	digest := blake2b.Sum256(data)
	return digest[:]
}

// VerifyTezos checks an edsig signature of a payload against an edpk public
// key.
func VerifyTezos(publicKey, bytesHex, prefixSig string, watermark []byte) bool {
	pk, err := b58CheckDecode(publicKey, prefixEdpk)
	if err != nil || len(pk) != ed25519.PublicKeySize {
		return false
	}
	sig, err := b58CheckDecode(prefixSig, prefixEdsig)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pk, TezosDigest(bytesHex, watermark), sig)
}

// SignEvmMessage produces a 65 byte EIP-191 personal message signature with
// the recovery id in its legacy 27/28 form.
func SignEvmMessage(privateKey string, message []byte) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return "", ErrInvalidPrivateKey
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return "", ErrInvalidPrivateKey
	}

	sig, err := crypto.Sign(accounts.TextHash(message), key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// RecoverEvmMessageSigner returns the address that produced a personal
// message signature.
func RecoverEvmMessageSigner(message []byte, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", ErrInvalidSignature
	}
	sig = append([]byte{}, sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pubKey, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return "", ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}
