// Package metrics exposes prometheus counters for the vault lifecycle.
// Counters are registered on a dedicated registry so that commands can
// export them without the default process collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vault"

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	// Registry holds every collector of this package.
	Registry = prometheus.NewRegistry()

	unlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unlocks_total",
			Help:      "Number of unlock attempts by result.",
		},
		[]string{"result"},
	)
	migrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migrations_total",
			Help:      "Number of migration steps applied by name and result.",
		},
		[]string{"migration", "result"},
	)
	signatures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signatures_total",
			Help:      "Number of signatures produced by chain and account type.",
		},
		[]string{"chain", "account_type"},
	)
)

func init() {
	Registry.MustRegister(unlocks, migrations, signatures)
}

// ObserveUnlock counts an unlock attempt.
func ObserveUnlock(err error) {
	unlocks.WithLabelValues(result(err)).Inc()
}

// ObserveMigration counts the outcome of a migration step.
func ObserveMigration(name string, err error) {
	migrations.WithLabelValues(name, result(err)).Inc()
}

// ObserveSignature counts a successful signature.
func ObserveSignature(chain, accountType string) {
	signatures.WithLabelValues(chain, accountType).Inc()
}

// WriteTextfile writes the current value of every counter to path in the
// text exposition format, for the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
