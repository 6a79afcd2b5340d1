package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/devinventory/cmd/app/commands"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Create the store and generate the master key if none exists",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				return commands.RunInit(ctx, container, container.Logger(), commands.DefaultIO().Writer)
			},
		},
		{
			Name:  "rotate",
			Usage: "Generate a new master key and re-encrypt every secret under it",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				current, err := container.CryptoService(ctx)
				if err != nil {
					return err
				}

				provider, err := container.MasterKeyProvider(ctx)
				if err != nil {
					return err
				}

				secretUseCase, err := container.SecretUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunRotateMasterKey(
					ctx,
					current,
					provider,
					secretUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
