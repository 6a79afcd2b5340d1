package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/devinventory/cmd/app/commands"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getSecretCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "add",
			Usage:     "Add a secret or replace the value of an existing one",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "kind",
					Aliases: []string{"k"},
					Usage:   "Free-form category (e.g., token, password)",
				},
				&cli.StringFlag{
					Name:    "note",
					Aliases: []string{"n"},
					Usage:   "Free-form description",
				},
				&cli.StringFlag{
					Name:  "value",
					Usage: "Secret value (omit to be prompted without echo)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				name, err := requiredArg(cmd, "name")
				if err != nil {
					return err
				}

				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				secretUseCase, err := container.SecretUseCase(ctx)
				if err != nil {
					return err
				}

				var value *string
				if cmd.IsSet("value") {
					v := cmd.String("value")
					value = &v
				}

				return commands.RunAddSecret(
					ctx,
					secretUseCase,
					container.Logger(),
					commands.DefaultIO(),
					name,
					cmd.String("kind"),
					cmd.String("note"),
					value,
				)
			},
		},
		{
			Name:      "get",
			Usage:     "Decrypt a secret and print it masked",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "show",
					Usage: "Print the plaintext value (asks for confirmation)",
				},
				&cli.BoolFlag{
					Name:    "yes",
					Aliases: []string{"y"},
					Usage:   "Skip the --show confirmation",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				name, err := requiredArg(cmd, "name")
				if err != nil {
					return err
				}

				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				secretUseCase, err := container.SecretUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunGetSecret(
					ctx,
					secretUseCase,
					container.Logger(),
					commands.DefaultIO(),
					name,
					cmd.Bool("show"),
					cmd.Bool("yes"),
				)
			},
		},
		{
			Name:  "list",
			Usage: "List secret names and metadata",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				secretUseCase, err := container.SecretUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunListSecrets(
					ctx,
					secretUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:      "search",
			Usage:     "Find secrets whose name, kind or note contains the query",
			ArgsUsage: "<query>",
			Flags:     []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				query, err := requiredArg(cmd, "query")
				if err != nil {
					return err
				}

				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				secretUseCase, err := container.SecretUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunSearchSecrets(
					ctx,
					secretUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					query,
					cmd.String("format"),
				)
			},
		},
		{
			Name:      "rm",
			Usage:     "Remove a secret",
			ArgsUsage: "<name>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				name, err := requiredArg(cmd, "name")
				if err != nil {
					return err
				}

				container, err := newContainer(cmd)
				if err != nil {
					return err
				}
				defer shutdown(ctx, container)

				secretUseCase, err := container.SecretUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunRemoveSecret(
					ctx,
					secretUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					name,
				)
			},
		},
	}
}

// requiredArg returns the first positional argument.
func requiredArg(cmd *cli.Command, name string) (string, error) {
	if cmd.Args().Len() < 1 || cmd.Args().First() == "" {
		return "", fmt.Errorf("missing required argument <%s>", name)
	}
	return cmd.Args().First(), nil
}
