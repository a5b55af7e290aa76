package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/flowguard/flowguard/pkg/metrics"
	"github.com/flowguard/flowguard/pkg/training"
	"github.com/flowguard/flowguard/resources"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:  "train",
		Usage: "Train the classifier on labeled flow datasets",
		UsageText: "flowguard train [command options] [dataset...]\n\n" +
			"Datasets may be csv files or directories of csv files. If none are given\n" +
			"the --data directory, or the configured training directory, is used.",
		Flags: []cli.Flag{
			configFlag,
			modelDirFlag,
			cli.StringFlag{
				Name:  "data, d",
				Usage: "Read training datasets from `DIR`",
				Value: "",
			},
			cli.BoolFlag{
				Name:  "allow-unmapped",
				Usage: "Keep labels outside of the canonical set as their own classes",
			},
			cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide progress bars",
			},
		},
		Action: trainModel,
	}

	bootstrapCommands(command)
}

func trainModel(c *cli.Context) error {
	res := resources.InitResources(c.String("config"))
	if err := applyModelDir(c, res); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	if c.Bool("allow-unmapped") {
		res.Config.S.Labels.AllowUnmapped = true
	}

	paths := []string(c.Args())
	if len(paths) == 0 {
		dataDir := c.String("data")
		if dataDir == "" {
			dataDir = res.Config.S.Dataset.TrainingDirectory
		}
		paths = []string{dataDir}
	}

	start := time.Now()
	runMetrics := metrics.New()

	fmt.Println("[+] Training classifier")
	pipeline := training.NewPipeline(res, os.Stdout,
		training.WithMetrics(runMetrics),
		training.WithProgress(!c.Bool("no-progress")),
	)
	summary, err := pipeline.Run(paths)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("[!] Training failed: %v", err), -1)
	}

	fmt.Printf("\t[-] Accuracy: %.4f\n\n", summary.Report.Accuracy)
	showEvaluationReport(os.Stdout, summary.Report)

	runMetrics.Finish("train", start)
	writeMetrics(res, runMetrics)

	fmt.Printf("[+] Saved model %s to %s\n", summary.Artifacts.Header().RunID, res.Config.R.ModelDirectory)
	return nil
}

// writeMetrics exports run metrics when a textfile path is configured. A
// failed export is logged but does not fail the command.
func writeMetrics(res *resources.Resources, runMetrics *metrics.Metrics) {
	path := res.Config.S.Metrics.TextfilePath
	if err := runMetrics.WriteTextfile(path); err != nil {
		res.Log.WithFields(log.Fields{
			"path":  path,
			"error": err.Error(),
		}).Error("Could not write metrics textfile")
	}
}
