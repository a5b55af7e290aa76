package commands

import (
	"os"

	"github.com/flowguard/flowguard/reporting"
	"github.com/flowguard/flowguard/resources"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:  "show-report",
		Usage: "Print the evaluation of the stored model",
		Flags: []cli.Flag{
			humanFlag,
			configFlag,
			modelDirFlag,
			cli.BoolFlag{
				Name:  "html",
				Usage: "Write an html report and open it in the default browser",
			},
		},
		Action: showReport,
	}

	bootstrapCommands(command)
}

func showReport(c *cli.Context) error {
	res := resources.InitResources(c.String("config"))
	if err := applyModelDir(c, res); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	evaluation, err := res.Store.LoadEvaluation()
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}

	if c.Bool("html") {
		if err := reporting.PrintHTML(evaluation, res); err != nil {
			return cli.NewExitError(err.Error(), -1)
		}
		return nil
	}

	if c.Bool("human-readable") {
		showEvaluationReport(os.Stdout, evaluation.Report)
		return nil
	}

	if err := showEvaluationCsv(os.Stdout, evaluation.Report); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	return nil
}
