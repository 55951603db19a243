package main

import (
	"fmt"

	"github.com/tdex-network/tdex-vault/pkg/wallet"
	"github.com/urfave/cli/v2"
)

const (
	chainFlagName      = "chain"
	keyFlagName        = "key"
	keyPwdFlagName     = "key_password"
	passphraseFlagName = "passphrase"
	pathFlagName       = "derivation_path"
	emailFlagName      = "email"
	addressFlagName    = "address"
	chainIDFlagName    = "chain_id"
	ownerFlagName      = "owner"
)

var chainFlag = &cli.StringFlag{
	Name:  chainFlagName,
	Usage: "the chain of the account, either 'tezos' or 'evm'",
	Value: string(wallet.ChainTezos),
}

var importkey = cli.Command{
	Name:  "import-key",
	Usage: "import an account from its private key",
	Flags: []cli.Flag{
		passwordFlag,
		chainFlag,
		&cli.StringFlag{
			Name:     keyFlagName,
			Usage:    "the private key to import",
			Required: true,
		},
		&cli.StringFlag{
			Name:  keyPwdFlagName,
			Usage: "the password of an encrypted Tezos secret key",
		},
	},
	Action: importKeyAction,
}

var importmnemonic = cli.Command{
	Name:  "import-mnemonic",
	Usage: "import an account from an external mnemonic",
	Flags: []cli.Flag{
		passwordFlag,
		chainFlag,
		&cli.StringFlag{
			Name:     mnemonicFlagName,
			Usage:    "the mnemonic to derive the account from",
			Required: true,
		},
		&cli.StringFlag{
			Name:  passphraseFlagName,
			Usage: "the optional passphrase of the mnemonic",
		},
		&cli.StringFlag{
			Name:  pathFlagName,
			Usage: "the derivation path. The default one of the chain is used if missing",
		},
	},
	Action: importMnemonicAction,
}

var importfundraiser = cli.Command{
	Name:  "import-fundraiser",
	Usage: "import a Tezos fundraiser account",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:     emailFlagName,
			Usage:    "the email of the fundraiser account",
			Required: true,
		},
		&cli.StringFlag{
			Name:     keyPwdFlagName,
			Usage:    "the password of the fundraiser account",
			Required: true,
		},
		&cli.StringFlag{
			Name:     mnemonicFlagName,
			Usage:    "the mnemonic of the fundraiser account",
			Required: true,
		},
	},
	Action: importFundraiserAction,
}

var importkt = cli.Command{
	Name:  "import-kt",
	Usage: "import a Tezos managed contract owned by an account of the vault",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:     addressFlagName,
			Usage:    "the KT1 address of the contract",
			Required: true,
		},
		&cli.StringFlag{
			Name:     chainIDFlagName,
			Usage:    "the chain id of the network of the contract",
			Required: true,
		},
		&cli.StringFlag{
			Name:     ownerFlagName,
			Usage:    "the address of the account owning the contract",
			Required: true,
		},
	},
	Action: importKTAction,
}

var watchaddress = cli.Command{
	Name:  "watch",
	Usage: "add a watch-only account for the given address",
	Flags: []cli.Flag{
		passwordFlag,
		chainFlag,
		&cli.StringFlag{
			Name:     addressFlagName,
			Usage:    "the address to watch",
			Required: true,
		},
		&cli.StringFlag{
			Name:  chainIDFlagName,
			Usage: "the chain id of the network of the address",
		},
	},
	Action: watchAddressAction,
}

func importKeyAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := svc.wallet.ImportAccount(
		ctx.Context, wallet.Chain(ctx.String(chainFlagName)),
		ctx.String(keyFlagName), ctx.String(keyPwdFlagName),
	)
	if err != nil {
		return err
	}

	printJSON(accounts[len(accounts)-1])
	return nil
}

func importMnemonicAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := svc.wallet.ImportMnemonicAccount(
		ctx.Context, wallet.Chain(ctx.String(chainFlagName)),
		ctx.String(mnemonicFlagName), ctx.String(passphraseFlagName),
		ctx.String(pathFlagName),
	)
	if err != nil {
		return err
	}

	printJSON(accounts[len(accounts)-1])
	return nil
}

func importFundraiserAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := svc.wallet.ImportFundraiserAccount(
		ctx.Context, ctx.String(emailFlagName), ctx.String(keyPwdFlagName),
		ctx.String(mnemonicFlagName),
	)
	if err != nil {
		return err
	}

	printJSON(accounts[len(accounts)-1])
	return nil
}

func importKTAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := svc.wallet.ImportManagedKTAccount(
		ctx.Context, ctx.String(addressFlagName), ctx.String(chainIDFlagName),
		ctx.String(ownerFlagName),
	)
	if err != nil {
		return err
	}

	printJSON(accounts[len(accounts)-1])
	return nil
}

func watchAddressAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := svc.wallet.ImportWatchOnlyAccount(
		ctx.Context, wallet.Chain(ctx.String(chainFlagName)),
		ctx.String(addressFlagName), ctx.String(chainIDFlagName),
	); err != nil {
		return err
	}

	fmt.Println("Done")
	return nil
}
