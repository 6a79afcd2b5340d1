package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands() []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSecretCommands()...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getSystemCommands()...)
	return cmds
}
