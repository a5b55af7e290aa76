package commands

import (
	"fmt"

	"github.com/flowguard/flowguard/config"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:   "version",
		Usage:  "Show flowguard version",
		Action: showVersion,
	}

	bootstrapCommands(command)
}

func showVersion(c *cli.Context) error {
	fmt.Printf("flowguard %s\n", config.ExactVersion)
	fmt.Printf("artifact format %s\n", store.FormatVersion)
	return nil
}
