package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(migrations.WithLabelValues("hd-index", resultFailure))
	ObserveMigration("hd-index", fmt.Errorf("boom"))
	after := testutil.ToFloat64(migrations.WithLabelValues("hd-index", resultFailure))
	require.Equal(t, before+1, after)

	before = testutil.ToFloat64(unlocks.WithLabelValues(resultSuccess))
	ObserveUnlock(nil)
	require.Equal(t, before+1, testutil.ToFloat64(unlocks.WithLabelValues(resultSuccess)))

	before = testutil.ToFloat64(signatures.WithLabelValues("tezos", "HD"))
	ObserveSignature("tezos", "HD")
	require.Equal(t, before+1, testutil.ToFloat64(signatures.WithLabelValues("tezos", "HD")))
}

func TestWriteTextfile(t *testing.T) {
	ObserveMigration("multi-chain", nil)

	path := filepath.Join(t.TempDir(), "vault.prom")
	require.NoError(t, WriteTextfile(path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(buf), `vault_migrations_total{migration="multi-chain",result="success"}`)
}
