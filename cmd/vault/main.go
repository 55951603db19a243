package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-vault/config"
	"github.com/tdex-network/tdex-vault/internal/core/application"
	"github.com/urfave/cli/v2"
)

const passwordFlagName = "password"

var (
	version = "dev"

	passwordFlag = &cli.StringFlag{
		Name:    passwordFlagName,
		Usage:   "the password of the vault",
		EnvVars: []string{"VAULT_PASSWORD"},
	}

	errLocked = errors.New("vault is locked: run 'vault unlock' first")
)

func main() {
	log.SetLevel(config.GetLogLevel())

	app := cli.NewApp()

	app.Version = version
	app.Name = "vault"
	app.Usage = "Command line interface to manage a Tezos and EVM key vault"
	app.Commands = append(
		app.Commands,
		&initvault,
		&unlockvault,
		&lockvault,
		&status,
		&changepassword,
		&listaccounts,
		&createaccount,
		&freeindex,
		&renameaccount,
		&removeaccount,
		&importkey,
		&importmnemonic,
		&importfundraiser,
		&importkt,
		&watchaddress,
		&revealmnemonic,
		&revealkey,
		&syncpayload,
		&sign,
		&sendoperations,
		&settings,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

type services struct {
	wallet   application.WalletService
	unlocker application.UnlockerService
}

// getServices opens the vault in the datadir. The returned cleanup closes
// the underlying store.
func getServices() (*services, func(), error) {
	deps, err := config.GetVaultDeps(true)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = deps.Store.Close() }

	walletSvc, err := application.NewWalletService(deps)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	unlockerSvc, err := application.NewUnlockerService(walletSvc)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &services{walletSvc, unlockerSvc}, cleanup, nil
}

// getUnlockedServices opens the vault and unlocks it with the saved session
// or, if missing, with the password flag of the command.
func getUnlockedServices(ctx *cli.Context) (*services, func(), error) {
	svc, cleanup, err := getServices()
	if err != nil {
		return nil, nil, err
	}

	recovered, err := svc.unlocker.RecoverSession(ctx.Context)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if recovered {
		return svc, cleanup, nil
	}

	password := ctx.String(passwordFlagName)
	if password == "" {
		cleanup()
		return nil, nil, errLocked
	}
	if err := svc.unlocker.Unlock(ctx.Context, password, false); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func printJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to encode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[vault] %v\n", err)
	}
	os.Exit(1)
}
