package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const (
	nameFlagName  = "name"
	indexFlagName = "index"
	idFlagName    = "id"
)

var listaccounts = cli.Command{
	Name:   "accounts",
	Usage:  "list the accounts of the vault",
	Flags:  []cli.Flag{passwordFlag},
	Action: listAccountsAction,
}

var createaccount = cli.Command{
	Name:  "create-account",
	Usage: "derive a new HD account from the mnemonic of the vault",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:  nameFlagName,
			Usage: "the name of the account. A default one is used if missing",
		},
		&cli.IntFlag{
			Name:  indexFlagName,
			Usage: "the HD index of the account. The next free one is used if missing",
		},
	},
	Action: createAccountAction,
}

var freeindex = cli.Command{
	Name:   "free-index",
	Usage:  "show the first HD index not used by any account",
	Flags:  []cli.Flag{passwordFlag},
	Action: freeIndexAction,
}

var renameaccount = cli.Command{
	Name:  "rename",
	Usage: "change the name of an account",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:     idFlagName,
			Usage:    "the id of the account",
			Required: true,
		},
		&cli.StringFlag{
			Name:     nameFlagName,
			Usage:    "the new name of the account",
			Required: true,
		},
	},
	Action: renameAccountAction,
}

var removeaccount = cli.Command{
	Name:  "remove",
	Usage: "remove a non HD account from the vault",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:     idFlagName,
			Usage:    "the id of the account",
			Required: true,
		},
	},
	Action: removeAccountAction,
}

func listAccountsAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := svc.wallet.Accounts(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(accounts)
	return nil
}

func createAccountAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var index *int
	if ctx.IsSet(indexFlagName) {
		i := ctx.Int(indexFlagName)
		index = &i
	}
	accounts, err := svc.wallet.CreateHDAccount(
		ctx.Context, ctx.String(nameFlagName), index,
	)
	if err != nil {
		return err
	}

	printJSON(accounts[len(accounts)-1])
	return nil
}

func freeIndexAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	index, account, err := svc.wallet.FindFreeHDIndex(ctx.Context)
	if err != nil {
		return err
	}

	resp := map[string]interface{}{"index": index}
	if account != nil {
		resp["account"] = account
	}
	printJSON(resp)
	return nil
}

func renameAccountAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := svc.wallet.EditAccountName(
		ctx.Context, ctx.String(idFlagName), ctx.String(nameFlagName),
	); err != nil {
		return err
	}

	fmt.Println("Done")
	return nil
}

func removeAccountAction(ctx *cli.Context) error {
	password, err := requirePassword(ctx)
	if err != nil {
		return err
	}

	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := svc.wallet.RemoveAccount(
		ctx.Context, ctx.String(idFlagName), password,
	); err != nil {
		return err
	}

	fmt.Println("Done")
	return nil
}
