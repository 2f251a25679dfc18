package main

import (
	"fmt"

	"github.com/pawbotics/spinup/pkg/link"
)

type PortsCommand struct{}

func (c *PortsCommand) Execute(args []string) error {
	ports, err := link.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		fmt.Println("Make sure the brain is connected over USB and powered on.")
		return nil
	}
	for _, p := range ports {
		fmt.Println("  " + p)
	}
	return nil
}
