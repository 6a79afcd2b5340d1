package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/devinventory/cmd/app/commands"
)

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				db, err := container.DB()
				if err != nil {
					return err
				}

				return commands.RunMigrations(
					db,
					container.Config().DBDriver,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "config",
			Usage: "Inspect the configuration",
			Commands: []*cli.Command{
				{
					Name:  "example",
					Usage: "Print a sample .env file",
					Action: func(ctx context.Context, cmd *cli.Command) error {
						return commands.RunConfigExample(commands.DefaultIO().Writer)
					},
				},
				{
					Name:  "path",
					Usage: "Print where the store and the master key live",
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container, err := newContainer(cmd)
						if err != nil {
							return err
						}
						defer shutdown(ctx, container)

						return commands.RunConfigPath(
							container.Config(),
							container.CredentialStore(),
							commands.DefaultIO().Writer,
						)
					},
				},
			},
		},
	}
}
