package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/pawbotics/spinup/pkg/auton"
	"github.com/pawbotics/spinup/pkg/chassis"
	"github.com/pawbotics/spinup/pkg/link"
	"github.com/pawbotics/spinup/pkg/robot"
	"github.com/pawbotics/spinup/pkg/telemetry"
)

type RunCommand struct {
	Routine string   `long:"routine" short:"r" description:"Routine to run (default leftRoller)"`
	Menu    bool     `long:"menu" short:"m" description:"Pick the routine from a menu"`
	Scripts []string `long:"script" short:"s" description:"Routine script to load (repeatable)"`
	Port    string   `long:"port" short:"p" description:"Serial port of the brain; simulate when empty"`
	Paths   string   `long:"paths" description:"Directory of path files for the simulator"`
	Fast    bool     `long:"fast" description:"Simulate without waiting for wall clock time"`
	Hz      int      `long:"hz" default:"20" description:"Pose sampling frequency"`
	MQTT    string   `long:"mqtt" description:"MQTT broker to publish poses to, e.g. tcp://localhost:1883"`
	Topic   string   `long:"topic" default:"spinup/pose" description:"MQTT topic for poses"`
	Plain   bool     `long:"plain" description:"Print log lines instead of the dashboard"`
}

// drive is a facade that also reports its pose and log lines.
type drive interface {
	auton.Facade
	telemetry.PoseSource
	Logs() <-chan string
}

func (c *RunCommand) Execute(args []string) error {
	if err := c.validate(); err != nil {
		return err
	}
	hw, err := loadHardware()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	reg, err := loadRoutines(c.Scripts)
	if err != nil {
		return err
	}
	routine, err := c.selectRoutine(reg)
	if err != nil {
		return err
	}

	d, closeDrive, err := c.openDrive(hw)
	if err != nil {
		return err
	}
	defer closeDrive()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session := auton.NewSession(d, routine)
	if err := session.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	logs := newLogPump(64, session.Sequencer().Logs(), d.Logs())

	observer := telemetry.NewObserver(d, c.Hz)
	go func() {
		if err := observer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logs.Logf("Observer error: %v", err)
		}
	}()

	if c.MQTT != "" {
		pub, err := telemetry.DialMQTT(c.MQTT, c.Topic, "spinup")
		if err != nil {
			return err
		}
		defer pub.Close()
		states := observer.Subscribe()
		go pub.Run(ctx, states, func(err error) { logs.Logf("%v", err) })
	}

	if c.Plain {
		return runPlain(ctx, session, logs)
	}
	defer logs.Stop()
	return runDashboard(ctx, session, observer, logs.Out(), c.source())
}

func (c *RunCommand) validate() error {
	if c.Hz < 1 || c.Hz > telemetry.MaxHz {
		return fmt.Errorf("--hz must be between 1 and %d, got %d", telemetry.MaxHz, c.Hz)
	}
	return nil
}

func (c *RunCommand) selectRoutine(reg *auton.Registry) (auton.Routine, error) {
	name := c.Routine
	if name == "" && c.Menu {
		var options []huh.Option[string]
		for _, n := range reg.Names() {
			options = append(options, huh.NewOption(n, n))
		}
		name = auton.DefaultRoutine
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Autonomous routine").
					Options(options...).
					Value(&name),
			),
		)
		if err := form.Run(); err != nil {
			return auton.Routine{}, fmt.Errorf("select routine: %w", err)
		}
	}
	if name == "" {
		name = auton.DefaultRoutine
	}
	return reg.Get(name)
}

func (c *RunCommand) openDrive(hw *robot.Hardware) (drive, func(), error) {
	if c.Port != "" {
		l, err := link.Open(c.Port, link.Options{})
		if err != nil {
			return nil, nil, err
		}
		return l, func() { l.Close() }, nil
	}

	var paths *chassis.PathStore
	if c.Paths != "" {
		var err error
		if paths, err = chassis.LoadPaths(c.Paths); err != nil {
			return nil, nil, err
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("Loaded %d paths from %s", paths.Len(), c.Paths)))
	}
	sim := chassis.NewSim(hw, chassis.Options{Realtime: !c.Fast, Paths: paths})
	return sim, func() {}, nil
}

func (c *RunCommand) source() string {
	if c.Port != "" {
		return c.Port
	}
	return "simulator"
}

func runPlain(ctx context.Context, session *auton.Session, logs *logPump) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case msg := <-logs.Out():
				fmt.Println(msg)
			case <-done:
				return
			}
		}
	}()

	report, err := session.Autonomous(ctx)
	close(done)
	<-stopped
	logs.Flush(func(msg string) { fmt.Println(msg) })

	printReport(report)
	if errors.Is(err, context.Canceled) {
		fmt.Println(warnStyle.Render("Routine aborted"))
		return nil
	}
	return err
}

func printReport(r auton.Report) {
	fmt.Println()
	fmt.Println(headerStyle.Render("Routine " + r.Routine))
	for _, res := range r.Results {
		status := successStyle.Render("done")
		switch {
		case res.Err != nil:
			status = warnStyle.Render("error: " + res.Err.Error())
		case !res.Reached:
			status = dimStyle.Render("timed out")
		}
		fmt.Printf("  %2d  %-44s %8s  %s\n", res.Index+1, res.Step, res.Elapsed.Round(time.Millisecond), status)
	}
	fmt.Printf("Completed %d steps in %s\n", len(r.Results), r.Elapsed.Round(time.Millisecond))
}
