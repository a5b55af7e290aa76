package commands

import (
	"path/filepath"

	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/resources"
	"github.com/urfave/cli"
)

var (
	allCommands []cli.Command

	// below are some prebuilt flags that get used often in various commands

	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "Load configuration from `FILE`",
		Value: "",
	}

	humanFlag = cli.BoolFlag{
		Name:  "human-readable, H",
		Usage: "Print a report instead of csv",
	}

	modelDirFlag = cli.StringFlag{
		Name:  "model-dir, m",
		Usage: "Read and write model artifacts in `DIR` instead of the configured directory",
		Value: "",
	}
)

// bootstrapCommands simply adds a given command to the allCommands array
func bootstrapCommands(commands ...cli.Command) {
	allCommands = append(allCommands, commands...)
}

// Commands provides all of the defined commands to the front end
func Commands() []cli.Command {
	return allCommands
}

// applyModelDir points the artifact store at the --model-dir flag when given
func applyModelDir(c *cli.Context, res *resources.Resources) error {
	dir := c.String("model-dir")
	if dir == "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	res.Config.S.Model.Directory = dir
	res.Config.R.ModelDirectory = abs
	res.Store = store.New(abs, res.Log)
	return nil
}
