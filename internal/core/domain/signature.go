package domain

// Signature is the result of signing a payload. Tezos signatures fill every
// field following the Tezos signer shape, EVM signatures only fill Bytes and
// Sig, the 0x prefixed 65 byte personal message signature.
type Signature struct {
	Bytes     string `json:"bytes"`
	Sig       string `json:"sig"`
	PrefixSig string `json:"prefixSig,omitempty"`
	SBytes    string `json:"sbytes,omitempty"`
}
