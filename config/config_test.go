package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate())

	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"empty datadir", DatadirKey, ""},
		{"unknown db type", DBTypeKey, "sqlite"},
		{"zero kdf time", KDFTimeKey, 0},
		{"zero kdf memory", KDFMemoryKey, 0},
		{"zero kdf threads", KDFThreadsKey, 0},
		{"negative session ttl", SessionTTLKey, "-1m"},
		{"zero rpc timeout", RPCRequestTimeoutKey, 0},
		{"zero rpc rate limit", RPCRateLimitKey, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := vip.Get(tt.key)
			Set(tt.key, tt.value)
			defer Set(tt.key, prev)

			require.Error(t, Validate())
		})
	}
}

func TestGetKDFCost(t *testing.T) {
	Set(KDFTimeKey, 3)
	Set(KDFMemoryKey, 1024)
	Set(KDFThreadsKey, 2)

	cost := GetKDFCost()
	require.Equal(t, uint32(3), cost.Time)
	require.Equal(t, uint32(1024), cost.Memory)
	require.Equal(t, uint8(2), cost.Threads)
}

func TestGetSessionStore(t *testing.T) {
	Set(DatadirKey, t.TempDir())
	Set(SessionTTLKey, time.Minute)

	for _, persistent := range []bool{true, false} {
		sessions, err := GetSessionStore(persistent)
		require.NoError(t, err)
		require.NotNil(t, sessions)
	}
}

func TestGetSecureStore(t *testing.T) {
	Set(DatadirKey, t.TempDir())
	Set(DBTypeKey, DBTypeBolt)
	Set(KDFTimeKey, 1)
	Set(KDFMemoryKey, 64)
	Set(KDFThreadsKey, 1)

	store, err := GetSecureStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
