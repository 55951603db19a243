package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tdex-network/tdex-vault/config"
	"github.com/tdex-network/tdex-vault/internal/core/application"
	"github.com/tdex-network/tdex-vault/internal/metrics"
)

var (
	passwordFlag     = "password"
	passwordFileFlag = "password-file"
	metricsFlag  = "metrics-textfile"

	version = "dev"
	commit  = "none"
	date    = "unknown"

	app = &cobra.Command{
		Use:           "migrate",
		Short:         "vault migration tool",
		Long:          "this tool upgrades the storage of a vault to the latest format, unlocking it with the given password",
		Version:       formatVersion(),
		RunE:          action,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	password        string
	passwordFile    string
	metricsTextfile string
)

func init() {
	app.Flags().StringVarP(&password, passwordFlag, "p", "", "the password of the vault")
	app.Flags().StringVarP(&passwordFile, passwordFileFlag, "", "", "the path of the file containing the password of the vault")
	app.Flags().StringVarP(&metricsTextfile, metricsFlag, "", config.GetString(config.MetricsTextfileKey), "the file where to export migration counters")
}

func main() {
	log.SetLevel(config.GetLogLevel())

	if err := app.Execute(); err != nil {
		log.Fatal(err)
	}
}

func action(cmd *cobra.Command, args []string) (err error) {
	pwdProvider, err := getProvider()
	if err != nil {
		return err
	}
	pwd, err := pwdProvider.Password()
	if err != nil {
		return err
	}

	deps, err := config.GetVaultDeps(false)
	if err != nil {
		return err
	}
	defer deps.Store.Close()

	walletSvc, err := application.NewWalletService(deps)
	if err != nil {
		return err
	}
	unlockerSvc, err := application.NewUnlockerService(walletSvc)
	if err != nil {
		return err
	}

	ctx := context.Background()
	initialized, err := unlockerSvc.IsExist(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return fmt.Errorf("no vault found in %s", config.GetDatadir())
	}

	start := time.Now()
	log.Info("starting migration...")

	defer func(start time.Time) {
		if metricsTextfile != "" {
			if werr := metrics.WriteTextfile(metricsTextfile); werr != nil {
				log.WithError(werr).Warn("failed to export metrics")
			}
		}
		if err == nil {
			elapsedTime := time.Since(start).Seconds()
			log.Infof("migration ended in %fs", elapsedTime)
		}
	}(start)

	err = unlockerSvc.RunMigrations(ctx, pwd)
	return
}

func formatVersion() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
