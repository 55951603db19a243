package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-bip39"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
	"pgregory.net/rapid"
)

func TestSlip10Ed25519Vector(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")

	master := slip10Master(seed)
	require.Equal(t,
		"2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7",
		hex.EncodeToString(master.key),
	)
	require.Equal(t,
		"90046a93de5380a72b5e45010748567d5ea02bbf6522f979e05c0d8d8ca9fffb",
		hex.EncodeToString(master.chainCode),
	)
	require.Equal(t,
		"a4b2856bfec510abab89753fac1ac0e1112364e7d250545963f135f2a33188ed",
		hex.EncodeToString(ed25519.NewKeyFromSeed(master.key).Public().(ed25519.PublicKey)),
	)

	child := master.child(hardened(0))
	require.Equal(t,
		"8b59aa11380b624e81507a27fedda59fea6d0b779a778918a2fd3590e16e9c69",
		hex.EncodeToString(child.chainCode),
	)

	key, err := DeriveSeed(seed, "m/0'")
	require.NoError(t, err)
	require.Equal(t,
		"68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3",
		hex.EncodeToString(key),
	)
	require.Equal(t,
		"8c8a13df77a28f3445213a0f432fde644acaa215fc72dcdf300d5efaa85d350c",
		hex.EncodeToString(ed25519.NewKeyFromSeed(key).Public().(ed25519.PublicKey)),
	)
}

func TestFailingDeriveSeed(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")

	tests := []struct {
		name string
		seed []byte
		path string
		err  error
	}{
		{"null seed", nil, "m/0'", ErrNullSeed},
		{"non hardened", seed, "m/44'/1729'/0'/0", ErrNonHardenedDerivationPath},
		{"malformed", seed, "m/", ErrMalformedDerivationPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveSeed(tt.seed, tt.path)
			require.Equal(t, tt.err, err)
		})
	}
}

func TestMnemonicToTezosAccountCreds(t *testing.T) {
	creds, err := MnemonicToTezosAccountCreds(testMnemonic, 0)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(creds.Address, "tz1"))
	require.Len(t, creds.Address, 36)
	require.True(t, strings.HasPrefix(creds.PublicKey, "edpk"))
	require.True(t, strings.HasPrefix(creds.PrivateKey, "edsk"))
	require.NoError(t, ValidateTezosAddress(creds.Address))

	address, err := TezosPublicKeyToAddress(creds.PublicKey)
	require.NoError(t, err)
	require.Equal(t, creds.Address, address)

	withPath, err := TezosMnemonicWithPathToAccountCreds(
		testMnemonic, "", "m/44'/1729'/0'/0'",
	)
	require.NoError(t, err)
	require.Equal(t, creds, withPath)

	next, err := MnemonicToTezosAccountCreds(testMnemonic, 1)
	require.NoError(t, err)
	require.NotEqual(t, creds.Address, next.Address)

	noPath, err := TezosMnemonicWithPathToAccountCreds(testMnemonic, "", "")
	require.NoError(t, err)
	require.NotEqual(t, creds.Address, noPath.Address)

	_, err = MnemonicToTezosAccountCreds("not a mnemonic", 0)
	require.Equal(t, ErrInvalidMnemonicOrPassword, err)

	_, err = MnemonicToTezosAccountCreds(testMnemonic, -1)
	require.Error(t, err)
}

func TestFundraiserToTezosAccountCreds(t *testing.T) {
	creds, err := FundraiserToTezosAccountCreds(testMnemonic, "me@example.com", "secret")
	require.NoError(t, err)

	seed, err := SeedFromMnemonic(testMnemonic, "me@example.comsecret")
	require.NoError(t, err)
	require.Equal(t, tezosCredsFromSeed(seed[:32]), creds)

	_, err = FundraiserToTezosAccountCreds("foo bar", "me@example.com", "secret")
	require.Equal(t, ErrInvalidMnemonicOrPassword, err)
}

func TestPrivateKeyToTezosAccountCreds(t *testing.T) {
	creds, err := MnemonicToTezosAccountCreds(testMnemonic, 0)
	require.NoError(t, err)

	expanded, err := b58CheckDecode(creds.PrivateKey, prefixEdsk)
	require.NoError(t, err)
	seedForm := b58CheckEncode(prefixEdsk2, expanded[:32])

	salt := make([]byte, edeskSaltSize)
	_, err = rand.Read(salt)
	require.NoError(t, err)
	var key [32]byte
	copy(key[:], pbkdf2.Key([]byte("encpassword"), salt, edeskIterations, 32, sha512.New))
	var nonce [24]byte
	box := secretbox.Seal(nil, expanded[:32], &nonce, &key)
	encrypted := b58CheckEncode(prefixEdesk, append(salt, box...))

	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			name        string
			privateKey  string
			encPassword string
		}{
			{"expanded", creds.PrivateKey, ""},
			{"seed", seedForm, ""},
			{"encrypted", encrypted, "encpassword"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := PrivateKeyToTezosAccountCreds(tt.privateKey, tt.encPassword)
				require.NoError(t, err)
				require.Equal(t, creds, got)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name        string
			privateKey  string
			encPassword string
			err         error
		}{
			{"empty", "", "", ErrNullPrivateKey},
			{"garbage", "edskfoobar", "", ErrInvalidPrivateKey},
			{"unknown", "xyz", "", ErrInvalidPrivateKey},
			{"secp256k1", "spsk1234", "", ErrUnsupportedPrivateKey},
			{"missing password", encrypted, "", ErrMissingEncryptionPassword},
			{"wrong password", encrypted, "wrong", ErrInvalidEncryptionPassword},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := PrivateKeyToTezosAccountCreds(tt.privateKey, tt.encPassword)
				require.Equal(t, tt.err, err)
			})
		}
	})
}

func TestValidateTezosAddress(t *testing.T) {
	creds, err := MnemonicToTezosAccountCreds(testMnemonic, 0)
	require.NoError(t, err)

	kt := b58CheckEncode(prefixKT1, make([]byte, 20))
	require.NoError(t, ValidateTezosAddress(kt))
	require.True(t, IsKTAddress(kt))
	require.False(t, IsKTAddress(creds.Address))

	tampered := []byte(creds.Address)
	if tampered[10] == 'a' {
		tampered[10] = 'b'
	} else {
		tampered[10] = 'a'
	}
	require.Error(t, ValidateTezosAddress(string(tampered)))
	require.Error(t, ValidateTezosAddress(creds.PublicKey))
	require.Error(t, ValidateTezosAddress(""))
}

func TestTezosChainID(t *testing.T) {
	chainID := EncodeTezosChainID([]byte{0x7a, 0x06, 0xa7, 0x70})
	require.Equal(t, "NetXdQprcVkpaWU", chainID)
	require.NoError(t, ValidateTezosChainID(chainID))
	require.Error(t, ValidateTezosChainID("NetXfoo"))
}

func TestDerivationDeterminism(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entropy := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "entropy")
		index := rapid.IntRange(0, 50).Draw(t, "index")
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			t.Fatal(err)
		}

		tz1, err := MnemonicToTezosAccountCreds(mnemonic, index)
		if err != nil {
			t.Fatal(err)
		}
		tz2, err := MnemonicToTezosAccountCreds(mnemonic, index)
		if err != nil {
			t.Fatal(err)
		}
		if *tz1 != *tz2 {
			t.Fatalf("tezos creds differ: %v != %v", tz1, tz2)
		}

		evm1, err := MnemonicToEvmAccountCreds(mnemonic, index)
		if err != nil {
			t.Fatal(err)
		}
		evm2, err := MnemonicToEvmAccountCreds(mnemonic, index)
		if err != nil {
			t.Fatal(err)
		}
		if *evm1 != *evm2 {
			t.Fatalf("evm creds differ: %v != %v", evm1, evm2)
		}
	})
}
