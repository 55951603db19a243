package main

import (
	"encoding/json"
	"fmt"

	"github.com/tdex-network/tdex-vault/config"
	"github.com/tdex-network/tdex-vault/internal/core/domain"
	"github.com/tdex-network/tdex-vault/pkg/wallet"
	"github.com/urfave/cli/v2"
)

const (
	bytesFlagName      = "bytes"
	watermarkFlagName  = "watermark"
	rpcFlagName        = "rpc"
	operationsFlagName = "operations"
)

var watermarks = map[string][]byte{
	"none":      nil,
	"block":     wallet.WatermarkBlock,
	"endorse":   wallet.WatermarkEndorsement,
	"generic":   wallet.WatermarkGenericOp,
	"michelson": wallet.WatermarkMichelsonMsg,
}

var sign = cli.Command{
	Name:  "sign",
	Usage: "sign a hex encoded payload with the key of an account",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:     addressFlagName,
			Usage:    "the address of the signing account",
			Required: true,
		},
		&cli.StringFlag{
			Name:     bytesFlagName,
			Usage:    "the hex encoded payload to sign",
			Required: true,
		},
		&cli.StringFlag{
			Name:  watermarkFlagName,
			Usage: "the watermark of Tezos payloads: none, block, endorse, generic or michelson",
			Value: "generic",
		},
	},
	Action: signAction,
}

var sendoperations = cli.Command{
	Name:  "send",
	Usage: "forge, sign and inject a batch of Tezos operations",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{
			Name:     addressFlagName,
			Usage:    "the source address of the operations",
			Required: true,
		},
		&cli.StringFlag{
			Name:  rpcFlagName,
			Usage: "the Tezos node to use. The configured one is used if missing",
		},
		&cli.StringFlag{
			Name:     operationsFlagName,
			Usage:    `the JSON list of operations, ie. [{"kind":"transaction","to":"tz1...","amount":"1.5"}]`,
			Required: true,
		},
	},
	Action: sendOperationsAction,
}

func signAction(ctx *cli.Context) error {
	watermark, ok := watermarks[ctx.String(watermarkFlagName)]
	if !ok {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	signature, err := svc.wallet.Sign(
		ctx.Context, ctx.String(addressFlagName), ctx.String(bytesFlagName),
		watermark,
	)
	if err != nil {
		return err
	}

	printJSON(signature)
	return nil
}

func sendOperationsAction(ctx *cli.Context) error {
	var ops []domain.OperationParams
	if err := json.Unmarshal(
		[]byte(ctx.String(operationsFlagName)), &ops,
	); err != nil {
		return fmt.Errorf("invalid operations: %w", err)
	}
	rpcURL := ctx.String(rpcFlagName)
	if rpcURL == "" {
		rpcURL = config.GetString(config.TezosRPCURLKey)
	}

	svc, cleanup, err := getUnlockedServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sent, err := svc.wallet.SendOperations(
		ctx.Context, ctx.String(addressFlagName), rpcURL, ops,
	)
	if err != nil {
		if opErr, ok := err.(*domain.OperationError); ok {
			printJSON(opErr.Errors)
		}
		return err
	}

	printJSON(sent)
	return nil
}
