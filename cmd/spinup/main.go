package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `long:"config" short:"c" default:"spinup.json" description:"Robot configuration file"`

	Run    RunCommand    `command:"run" description:"Initialize the robot and run an autonomous routine"`
	List   ListCommand   `command:"list" alias:"ls" description:"List the available routines"`
	Check  CheckCommand  `command:"check" description:"Validate the wiring and print the derived constants"`
	Render RenderCommand `command:"render" description:"Print routines as script source"`
	Init   InitCommand   `command:"init" description:"Write the default configuration file"`
	Ports  PortsCommand  `command:"ports" description:"List serial ports a brain may be attached to"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "spinup - autonomous routine runner for the Spin Up robot"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
