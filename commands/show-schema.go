package commands

import (
	"os"

	"github.com/flowguard/flowguard/resources"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:  "show-schema",
		Usage: "Print the feature schema and labels of the stored model",
		Flags: []cli.Flag{
			humanFlag,
			configFlag,
			modelDirFlag,
		},
		Action: showSchema,
	}

	bootstrapCommands(command)
}

func showSchema(c *cli.Context) error {
	res := resources.InitResources(c.String("config"))
	if err := applyModelDir(c, res); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	artifacts, err := res.Store.Load()
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	if c.Bool("human-readable") {
		showSchemaReport(os.Stdout, artifacts)
		return nil
	}

	if err := showSchemaCsv(os.Stdout, artifacts); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	return nil
}
