package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var revealmnemonic = cli.Command{
	Name:   "reveal-mnemonic",
	Usage:  "print the mnemonic of the vault",
	Flags:  []cli.Flag{passwordFlag},
	Action: revealMnemonicAction,
}

var revealkey = cli.Command{
	Name:  "reveal-key",
	Usage: "print the private key of an account",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:     addressFlagName,
			Usage:    "the address of the account",
			Required: true,
		},
	},
	Action: revealKeyAction,
}

var syncpayload = cli.Command{
	Name:   "sync-payload",
	Usage:  "export the mnemonic and the number of HD accounts, encrypted with the password",
	Flags:  []cli.Flag{passwordFlag},
	Action: syncPayloadAction,
}

// Secrets are always revealed against the password, even with a saved
// session.
func requirePassword(ctx *cli.Context) (string, error) {
	password := ctx.String(passwordFlagName)
	if password == "" {
		return "", &invalidUsageError{ctx, ctx.Command.Name}
	}
	return password, nil
}

func revealMnemonicAction(ctx *cli.Context) error {
	password, err := requirePassword(ctx)
	if err != nil {
		return err
	}
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	mnemonic, err := svc.wallet.RevealMnemonic(ctx.Context, password)
	if err != nil {
		return err
	}

	fmt.Println(mnemonic)
	return nil
}

func revealKeyAction(ctx *cli.Context) error {
	password, err := requirePassword(ctx)
	if err != nil {
		return err
	}
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	privateKey, err := svc.wallet.RevealPrivateKey(
		ctx.Context, ctx.String(addressFlagName), password,
	)
	if err != nil {
		return err
	}

	fmt.Println(privateKey)
	return nil
}

func syncPayloadAction(ctx *cli.Context) error {
	password, err := requirePassword(ctx)
	if err != nil {
		return err
	}
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	payload, err := svc.wallet.GenerateSyncPayload(ctx.Context, password)
	if err != nil {
		return err
	}

	fmt.Println(payload)
	return nil
}
