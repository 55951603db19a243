package main

import (
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
	"github.com/urfave/cli/v2"
)

const (
	urlFlagName   = "url"
	flagFlagName  = "flag"
	valueFlagName = "value"
)

var settings = cli.Command{
	Name:   "settings",
	Usage:  "show or update the settings of the vault",
	Flags:  []cli.Flag{passwordFlag},
	Action: settingsAction,
	Subcommands: []*cli.Command{
		{
			Name:  "add-network",
			Usage: "add a custom network. The chain id is fetched from the node",
			Flags: []cli.Flag{
				passwordFlag,
				chainFlag,
				&cli.StringFlag{
					Name:     nameFlagName,
					Usage:    "the name of the network",
					Required: true,
				},
				&cli.StringFlag{
					Name:     urlFlagName,
					Usage:    "the RPC url of the network",
					Required: true,
				},
				&cli.StringFlag{
					Name:  chainIDFlagName,
					Usage: "the chain id of the network. Fetched from the node if missing",
				},
			},
			Action: addNetworkAction,
		},
		{
			Name:  "remove-network",
			Usage: "remove a custom network",
			Flags: []cli.Flag{
				passwordFlag,
				&cli.StringFlag{
					Name:     idFlagName,
					Usage:    "the id of the network",
					Required: true,
				},
			},
			Action: removeNetworkAction,
		},
		{
			Name:  "lambda-url",
			Usage: "set the base url of the lambda RPC",
			Flags: []cli.Flag{
				passwordFlag,
				&cli.StringFlag{
					Name:     urlFlagName,
					Usage:    "the base url. Empty to unset",
					Required: true,
				},
			},
			Action: setLambdaURLAction,
		},
		{
			Name:  "flag",
			Usage: "set a feature flag",
			Flags: []cli.Flag{
				passwordFlag,
				&cli.StringFlag{
					Name:     flagFlagName,
					Usage:    "the name of the flag",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  valueFlagName,
					Usage: "the value of the flag",
				},
			},
			Action: setFlagAction,
		},
	},
}

func settingsAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	settings, err := svc.wallet.Settings(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(settings)
	return nil
}

func addNetworkAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	settings, err := svc.wallet.AddNetwork(ctx.Context, domain.Network{
		Chain:      wallet.Chain(ctx.String(chainFlagName)),
		Name:       ctx.String(nameFlagName),
		RPCBaseURL: ctx.String(urlFlagName),
		ChainID:    ctx.String(chainIDFlagName),
	})
	if err != nil {
		return err
	}

	printJSON(settings.CustomNetworks)
	return nil
}

func removeNetworkAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	settings, err := svc.wallet.RemoveNetwork(ctx.Context, ctx.String(idFlagName))
	if err != nil {
		return err
	}

	printJSON(settings.CustomNetworks)
	return nil
}

func setLambdaURLAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	url := ctx.String(urlFlagName)
	settings, err := svc.wallet.UpdateSettings(ctx.Context, domain.SettingsPatch{
		LambdaRPCBaseURL: &url,
	})
	if err != nil {
		return err
	}

	printJSON(settings)
	return nil
}

func setFlagAction(ctx *cli.Context) error {
	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	current, err := svc.wallet.Settings(ctx.Context)
	if err != nil {
		return err
	}
	flags := make(map[string]bool, len(current.Flags)+1)
	for k, v := range current.Flags {
		flags[k] = v
	}
	flags[ctx.String(flagFlagName)] = ctx.Bool(valueFlagName)

	settings, err := svc.wallet.UpdateSettings(ctx.Context, domain.SettingsPatch{
		Flags: &flags,
	})
	if err != nil {
		return err
	}

	printJSON(settings.Flags)
	return nil
}
