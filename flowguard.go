package main

import (
	"os"
	"runtime"

	"github.com/flowguard/flowguard/commands"
	"github.com/flowguard/flowguard/config"
	"github.com/urfave/cli"
)

// Entry point of flowguard
func main() {
	app := cli.NewApp()
	app.Name = "flowguard"
	app.Usage = "Train a flow classifier on labeled captures and hunt for attacks in new ones."

	// Change the version string with updates so that a quick help command will
	// let the testers know what version they're on
	app.Version = config.Version

	// Define commands used with this application
	app.Commands = commands.Commands()

	runtime.GOMAXPROCS(runtime.NumCPU())
	app.Run(os.Args)
}
