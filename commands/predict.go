package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/flowguard/flowguard/pkg/inference"
	"github.com/flowguard/flowguard/pkg/metrics"
	"github.com/flowguard/flowguard/resources"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "predict",
		Usage:     "Classify the flows of one or more capture files",
		UsageText: "flowguard predict [command options] <capture.csv>...",
		Flags: []cli.Flag{
			configFlag,
			modelDirFlag,
			cli.StringFlag{
				Name:  "log-dir, l",
				Usage: "Write threat logs to `DIR` instead of the configured directory",
				Value: "",
			},
		},
		Action: predictCaptures,
	}

	bootstrapCommands(command)
}

func predictCaptures(c *cli.Context) error {
	paths := []string(c.Args())
	if len(paths) == 0 {
		return cli.NewExitError("Specify at least one capture file", -1)
	}

	res := resources.InitResources(c.String("config"))
	if err := applyModelDir(c, res); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	logDir := res.Config.R.LogDirectory
	if c.String("log-dir") != "" {
		logDir = c.String("log-dir")
	}

	artifacts, err := res.Store.Load()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("[!] Could not load the model: %v", err), -1)
	}

	start := time.Now()
	runMetrics := metrics.New()
	driver := inference.FromArtifacts(artifacts, inference.Settings{
		HeaderOffset: res.Config.S.Predict.HeaderOffset,
		LogDirectory: logDir,
		BenignLabel:  res.Config.S.Labels.BenignLabel,
		DropColumns:  res.Config.S.Dataset.DropColumns,
		Metrics:      runMetrics,
	}, os.Stdout, res.Log)

	_, failures := driver.Run(paths)

	runMetrics.Finish("predict", start)
	writeMetrics(res, runMetrics)

	if len(failures) > 0 {
		return cli.NewExitError(fmt.Sprintf("[!] %d of %d capture(s) could not be processed", len(failures), len(paths)), -1)
	}
	return nil
}
