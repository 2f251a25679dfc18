package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pawbotics/spinup/pkg/robot"
)

type CheckCommand struct{}

func (c *CheckCommand) Execute(args []string) error {
	hw, err := loadHardware()
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Wiring"))
	var rows [][]string
	for _, d := range hw.Devices() {
		rev := ""
		if d.Reversed {
			rev = "yes"
		}
		rows = append(rows, []string{string(d.Name), d.Kind, d.Port.Bus.String() + " " + d.Port.String(), rev})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Device", "Kind", "Port", "Reversed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 0:
				return tableNameStyle
			}
			return tableCellStyle
		})
	fmt.Println(t)
	fmt.Println()

	dt := hw.Drivetrain()
	fmt.Println(headerStyle.Render("Drivetrain"))
	fmt.Printf("  Wheel diameter:   %.4g in\n", dt.WheelDiameter)
	fmt.Printf("  Track:            %.4g in\n", dt.Track)
	fmt.Printf("  Wheel base:       %.4g in\n", dt.WheelBase)
	fmt.Printf("  Gear ratio:       %.4g\n", hw.GearRatio())
	fmt.Printf("  Cartridge:        %s (%.0f rpm)\n", dt.Cartridge, hw.CartridgeRPM())
	fmt.Printf("  Wheel rpm:        %.4g\n", hw.WheelRPM())
	fmt.Printf("  Circumference:    %.4g in\n", hw.WheelCircumference())
	fmt.Printf("  Top speed:        %.4g in/s\n", hw.MaxWheelSpeed())
	fmt.Println()

	fmt.Println(headerStyle.Render("Controllers"))
	for _, pc := range []struct {
		name string
		c    robot.ChassisController
	}{{"lateral", hw.Lateral()}, {"angular", hw.Angular()}} {
		fmt.Printf("  %-8s kP %g  kD %g  small %g/%s  large %g/%s  slew %g\n",
			pc.name, pc.c.KP, pc.c.KD,
			pc.c.SmallErrorRange, pc.c.SmallErrorTimeout(),
			pc.c.LargeErrorRange, pc.c.LargeErrorTimeout(),
			pc.c.Slew)
	}
	fmt.Println()
	fmt.Println(successStyle.Render("Configuration OK"))
	return nil
}

type InitCommand struct {
	Force bool `long:"force" short:"f" description:"Overwrite an existing file"`
}

func (c *InitCommand) Execute(args []string) error {
	exists, err := robot.ConfigExists(opts.Config)
	if err != nil {
		return err
	}
	if exists && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", opts.Config)
	}

	cfg := robot.Default()
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	return nil
}
