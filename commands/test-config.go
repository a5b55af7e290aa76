package commands

import (
	"fmt"
	"os"

	"github.com/flowguard/flowguard/config"
	"github.com/flowguard/flowguard/resources"

	"github.com/urfave/cli"
	yaml "gopkg.in/yaml.v2"
)

func init() {
	command := cli.Command{
		Flags: []cli.Flag{
			configFlag,
		},
		Name:   "test-config",
		Usage:  "Check the configuration file for validity",
		Action: testConfiguration,
	}

	bootstrapCommands(command)
}

// testConfiguration prints out the result of parsing the config file
func testConfiguration(c *cli.Context) error {
	// First, print out the config as it was parsed
	conf, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Failed to config: %s", err.Error()), -1)
	}

	staticConfig, err := yaml.Marshal(conf.S)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\n%s\n", string(staticConfig))
	if conf.R.ConfigPath != "" {
		fmt.Fprintf(os.Stdout, "Loaded from: %s\n", conf.R.ConfigPath)
	} else {
		fmt.Fprintf(os.Stdout, "No config file found, using built in defaults\n")
	}
	fmt.Fprintf(os.Stdout, "Model directory: %s\nThreat log directory: %s\n",
		conf.R.ModelDirectory, conf.R.LogDirectory)

	// Then test initializing the logger and artifact store
	resources.InitResources(c.String("config"))

	return nil
}
