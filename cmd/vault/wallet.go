package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const (
	mnemonicFlagName = "mnemonic"
	curPwdFlagName   = "current_password"
	newPwdFlagName   = "new_password"
)

var initvault = cli.Command{
	Name:  "init",
	Usage: "create a new vault from the given or a freshly generated mnemonic",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:  mnemonicFlagName,
			Usage: "the mnemonic to restore. A new one is generated if missing",
		},
	},
	Action: initVaultAction,
}

var unlockvault = cli.Command{
	Name:   "unlock",
	Usage:  "unlock the vault and save a session for the following commands",
	Flags:  []cli.Flag{passwordFlag},
	Action: unlockVaultAction,
}

var lockvault = cli.Command{
	Name:   "lock",
	Usage:  "lock the vault and forget the saved session",
	Action: lockVaultAction,
}

var status = cli.Command{
	Name:   "status",
	Usage:  "show whether the vault is initialized and unlocked",
	Action: statusAction,
}

var changepassword = cli.Command{
	Name:  "change-password",
	Usage: "change the password of the vault. Saved sessions are invalidated",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  curPwdFlagName,
			Usage: "the current password of the vault",
		},
		&cli.StringFlag{
			Name:  newPwdFlagName,
			Usage: "the new password that replaces the current one",
		},
	},
	Action: changePasswordAction,
}

func initVaultAction(ctx *cli.Context) error {
	password := ctx.String(passwordFlagName)
	if password == "" {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getServices()
	if err != nil {
		return err
	}
	defer cleanup()

	mnemonic, err := svc.unlocker.Spawn(
		ctx.Context, password, ctx.String(mnemonicFlagName),
	)
	if err != nil {
		return err
	}

	if !ctx.IsSet(mnemonicFlagName) {
		fmt.Println("Write down the mnemonic of the vault:")
		fmt.Println(mnemonic)
		fmt.Println()
	}
	fmt.Println("Vault is initialized")
	return nil
}

func unlockVaultAction(ctx *cli.Context) error {
	password := ctx.String(passwordFlagName)
	if password == "" {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getServices()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.unlocker.Unlock(ctx.Context, password, true); err != nil {
		return err
	}

	fmt.Println("Vault is unlocked")
	return nil
}

func lockVaultAction(ctx *cli.Context) error {
	svc, cleanup, err := getServices()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.unlocker.Lock(ctx.Context); err != nil {
		return err
	}

	fmt.Println("Vault is locked")
	return nil
}

func statusAction(ctx *cli.Context) error {
	svc, cleanup, err := getServices()
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := svc.unlocker.RecoverSession(ctx.Context); err != nil {
		return err
	}
	status, err := svc.unlocker.Status(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(map[string]bool{
		"initialized": status.Initialized,
		"unlocked":    status.Unlocked,
	})
	return nil
}

func changePasswordAction(ctx *cli.Context) error {
	curPwd := ctx.String(curPwdFlagName)
	newPwd := ctx.String(newPwdFlagName)
	if curPwd == "" || newPwd == "" {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getServices()
	if err != nil {
		return err
	}
	defer cleanup()

	recovered, err := svc.unlocker.RecoverSession(ctx.Context)
	if err != nil {
		return err
	}
	if !recovered {
		if err := svc.unlocker.Unlock(ctx.Context, curPwd, false); err != nil {
			return err
		}
	}
	if err := svc.unlocker.ChangePassword(ctx.Context, curPwd, newPwd); err != nil {
		return err
	}

	fmt.Println("Done")
	return nil
}
