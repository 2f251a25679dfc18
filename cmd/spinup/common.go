package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pawbotics/spinup/pkg/auton"
	"github.com/pawbotics/spinup/pkg/robot"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableNameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// loadHardware reads the configuration file, or the built-in wiring when it
// does not exist, and validates it.
func loadHardware() (*robot.Hardware, error) {
	cfg, err := robot.LoadConfigOrDefault(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", opts.Config, err)
	}
	hw, err := robot.Build(*cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", opts.Config, err)
	}
	return hw, nil
}

// loadRoutines returns the built-in routines plus those defined in scripts.
func loadRoutines(scripts []string) (*auton.Registry, error) {
	reg := auton.Builtin()
	for _, path := range scripts {
		routines, err := auton.ParseFile(path)
		if err != nil {
			return nil, err
		}
		for _, r := range routines {
			if err := reg.Add(r); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return reg, nil
}
