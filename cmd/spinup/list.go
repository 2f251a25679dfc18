package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pawbotics/spinup/pkg/auton"
)

type ListCommand struct {
	Scripts []string `long:"script" short:"s" description:"Routine script to load (repeatable)"`
}

func (c *ListCommand) Execute(args []string) error {
	reg, err := loadRoutines(c.Scripts)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, r := range reg.Routines() {
		start := r.Start()
		unit := "°"
		if start.Radians {
			unit = " rad"
		}
		name := r.Name()
		if name == auton.DefaultRoutine {
			name += " *"
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(r.Len()),
			fmt.Sprintf("(%g, %g) %g%s", start.X, start.Y, start.Heading, unit),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Routine", "Steps", "Start pose").
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
	fmt.Println(dimStyle.Render("* runs when no routine is named"))
	return nil
}

type RenderCommand struct {
	Scripts []string `long:"script" short:"s" description:"Routine script to load (repeatable)"`
	Args    struct {
		Routines []string `positional-arg-name:"routine" description:"Routines to print (default all)"`
	} `positional-args:"yes"`
}

func (c *RenderCommand) Execute(args []string) error {
	reg, err := loadRoutines(c.Scripts)
	if err != nil {
		return err
	}

	routines := reg.Routines()
	if len(c.Args.Routines) > 0 {
		routines = routines[:0]
		for _, name := range c.Args.Routines {
			r, err := reg.Get(name)
			if err != nil {
				return err
			}
			routines = append(routines, r)
		}
	}
	return auton.Render(os.Stdout, routines...)
}
