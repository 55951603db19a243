package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tdex-network/tdex-vault/internal/core/application/vault"
	"github.com/tdex-network/tdex-vault/internal/core/ports"
	"github.com/tdex-network/tdex-vault/internal/infrastructure/chainrpc"
	filesession "github.com/tdex-network/tdex-vault/internal/infrastructure/session/file"
	inmemorysession "github.com/tdex-network/tdex-vault/internal/infrastructure/session/inmemory"
	"github.com/tdex-network/tdex-vault/pkg/httputil"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	badgersecurestore "github.com/tdex-network/tdex-vault/pkg/securestore/badger"
	boltsecurestore "github.com/tdex-network/tdex-vault/pkg/securestore/bolt"
	inmemorysecurestore "github.com/tdex-network/tdex-vault/pkg/securestore/inmemory"
)

const (
	// DatadirKey is the local data directory to store the vault and the session
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is the storage backend of the vault. One of "badger", "bolt"
	// or "inmemory"
	DBTypeKey = "DB_TYPE"
	// KDFTimeKey is the number of Argon2id passes over memory
	KDFTimeKey = "KDF_TIME"
	// KDFMemoryKey is the Argon2id memory cost in KiB
	KDFMemoryKey = "KDF_MEMORY"
	// KDFThreadsKey is the Argon2id parallelism
	KDFThreadsKey = "KDF_THREADS"
	// SessionTTLKey is the lifetime of a saved session. Zero disables expiry
	SessionTTLKey = "SESSION_TTL"
	// RPCRequestTimeoutKey are the milliseconds to wait for RPC responses before timeouts
	RPCRequestTimeoutKey = "RPC_REQUEST_TIMEOUT"
	// RPCRateLimitKey is the max number of requests per second made to RPC endpoints
	RPCRateLimitKey = "RPC_RATE_LIMIT"
	// TezosRPCURLKey is the Tezos node used when sending operations
	TezosRPCURLKey = "TEZOS_RPC_URL"
	// MetricsTextfileKey is the path where counters are exported after a
	// migration, in the Prometheus text format. Empty disables the export
	MetricsTextfileKey = "METRICS_TEXTFILE"

	DbLocation      = "db"
	SessionLocation = "session"

	DBTypeBadger   = "badger"
	DBTypeBolt     = "bolt"
	DBTypeInMemory = "inmemory"

	boltFilename = "vault.db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("tdex-vault", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("VAULT")
	vip.AutomaticEnv()

	defaultKDF := securestore.DefaultKDFParams()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBTypeBadger)
	vip.SetDefault(KDFTimeKey, defaultKDF.Time)
	vip.SetDefault(KDFMemoryKey, defaultKDF.Memory)
	vip.SetDefault(KDFThreadsKey, defaultKDF.Threads)
	vip.SetDefault(SessionTTLKey, "15m")
	vip.SetDefault(RPCRequestTimeoutKey, 15000)
	vip.SetDefault(RPCRateLimitKey, chainrpc.DefaultRequestsPerSecond)
	vip.SetDefault(TezosRPCURLKey, "https://mainnet.api.tez.ie")

	if err := Validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetLogLevel returns the configured logrus level.
func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

// GetKDFCost returns the Argon2id cost used for new vaults and password
// changes.
func GetKDFCost() securestore.KDFParams {
	return securestore.KDFParams{
		Time:    vip.GetUint32(KDFTimeKey),
		Memory:  vip.GetUint32(KDFMemoryKey),
		Threads: uint8(vip.GetUint(KDFThreadsKey)),
	}
}

// GetSecureStore opens the configured storage backend.
func GetSecureStore() (*securestore.SecureStore, error) {
	var (
		db  securestore.Storage
		err error
	)
	dbDir := filepath.Join(GetDatadir(), DbLocation)
	switch GetString(DBTypeKey) {
	case DBTypeBolt:
		db, err = boltsecurestore.NewStorage(dbDir, boltFilename)
	case DBTypeInMemory:
		db = inmemorysecurestore.NewStorage()
	default:
		db, err = badgersecurestore.NewStorage(dbDir, log.StandardLogger())
	}
	if err != nil {
		return nil, err
	}
	return securestore.NewSecureStore(db, securestore.WithKDFCost(GetKDFCost()))
}

// GetSessionStore returns the session store. Persistent sessions are saved
// in the datadir so that they can be recovered by later processes.
func GetSessionStore(persistent bool) (ports.SessionStore, error) {
	ttl := GetDuration(SessionTTLKey)
	c := clock.NewDefaultClock()
	if !persistent {
		return inmemorysession.NewStore(ttl, c), nil
	}
	return filesession.NewStore(
		filepath.Join(GetDatadir(), SessionLocation), ttl, c,
	)
}

// GetChainRPC returns the client for the Tezos and EVM nodes.
func GetChainRPC() *chainrpc.Service {
	httputil.SetTimeout(
		time.Duration(GetInt(RPCRequestTimeoutKey)) * time.Millisecond,
	)
	return chainrpc.NewService(GetInt(RPCRateLimitKey))
}

// GetVaultDeps wires the dependencies of the vault. Hardware signers are not
// available from the command line.
func GetVaultDeps(persistentSession bool) (vault.Deps, error) {
	store, err := GetSecureStore()
	if err != nil {
		return vault.Deps{}, err
	}
	sessions, err := GetSessionStore(persistentSession)
	if err != nil {
		store.Close()
		return vault.Deps{}, err
	}
	rpc := GetChainRPC()
	return vault.Deps{
		Store:    store,
		Sessions: sessions,
		RPC:      rpc,
		ChainIDs: rpc,
	}, nil
}

// Validate checks the current configuration.
func Validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	dbType := GetString(DBTypeKey)
	if dbType != DBTypeBadger && dbType != DBTypeBolt && dbType != DBTypeInMemory {
		return fmt.Errorf(
			"db type must be one of '%s', '%s' or '%s'",
			DBTypeBadger, DBTypeBolt, DBTypeInMemory,
		)
	}

	cost := GetKDFCost()
	if cost.Time == 0 || cost.Memory == 0 || cost.Threads == 0 {
		return fmt.Errorf("kdf time, memory and threads must be greater than zero")
	}

	if GetDuration(SessionTTLKey) < 0 {
		return fmt.Errorf("session ttl must not be negative")
	}
	if GetInt(RPCRequestTimeoutKey) <= 0 {
		return fmt.Errorf("rpc request timeout must be greater than zero")
	}
	if GetInt(RPCRateLimitKey) <= 0 {
		return fmt.Errorf("rpc rate limit must be greater than zero")
	}
	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, SessionLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0700)
	}
	return nil
}
