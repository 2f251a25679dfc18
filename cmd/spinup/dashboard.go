package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/pawbotics/spinup/pkg/auton"
	"github.com/pawbotics/spinup/pkg/robot"
	"github.com/pawbotics/spinup/pkg/telemetry"
)

const (
	headerHeight = 3 // title, progress, blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Pose series colors
var seriesColors = map[string]string{
	"x":       "196", // red
	"y":       "46",  // green
	"heading": "51",  // cyan
}

var seriesOrder = []string{"x", "y", "heading"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type dashboardModel struct {
	ctx      context.Context
	session  *auton.Session
	states   <-chan telemetry.State
	logCh    <-chan string
	results  <-chan auton.StepResult
	source   string
	hz       int
	chart    *streamlinechart.Model
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	pose     robot.Pose
	progress string
	report   *auton.Report
	err      error
	quitting bool
}

func (m *dashboardModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the routine and the observer
type stateMsg telemetry.State
type logMsg string
type resultMsg auton.StepResult
type doneMsg struct {
	report auton.Report
	err    error
}

func waitForState(ch <-chan telemetry.State) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ch)
	}
}

func waitForLog(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ch)
	}
}

func waitForResult(ch <-chan auton.StepResult) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(<-ch)
	}
}

func runRoutine(ctx context.Context, session *auton.Session) tea.Cmd {
	return func() tea.Msg {
		report, err := session.Autonomous(ctx)
		return doneMsg{report: report, err: err}
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *dashboardModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *dashboardModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func newDashboardModel(ctx context.Context, session *auton.Session, observer *telemetry.Observer, logs <-chan string, source string) dashboardModel {
	// Headings are scaled down by ten to share the inch axis.
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-robot.FieldLength, robot.FieldLength),
	)
	for _, name := range seriesOrder {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return dashboardModel{
		ctx:      ctx,
		session:  session,
		states:   observer.Subscribe(),
		logCh:    logs,
		results:  session.Sequencer().Results(),
		source:   source,
		hz:       observer.Hz(),
		chart:    &chart,
		progress: "starting",
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.states),
		waitForLog(m.logCh),
		waitForResult(m.results),
		runRoutine(m.ctx, m.session),
	)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "d":
			m.session.Disable()
			return m, nil
		case "q", "ctrl+c":
			m.session.Disable()
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		m.pose = msg.Pose
		m.chart.PushDataSet("x", msg.Pose.X)
		m.chart.PushDataSet("y", msg.Pose.Y)
		m.chart.PushDataSet("heading", robot.WrapDegrees(msg.Pose.Heading)/10)
		m.chart.DrawAll()
		return m, waitForState(m.states)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.logCh)

	case resultMsg:
		m.progress = fmt.Sprintf("step %d/%d %s", msg.Index+1, msg.Total, msg.Step)
		return m, waitForResult(m.results)

	case doneMsg:
		m.report = &msg.report
		m.err = msg.err
		switch {
		case errors.Is(msg.err, context.Canceled):
			m.progress = "aborted, press 'q' to quit"
		case msg.err != nil:
			m.progress = "error: " + msg.err.Error()
		default:
			m.progress = fmt.Sprintf("completed in %s, press 'q' to quit", msg.report.Elapsed.Round(time.Millisecond))
		}
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return "Routine stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Spin Up Autonomous"))
	sb.WriteString(fmt.Sprintf(" - %s on %s, %d Hz", m.session.Routine().Name(), m.source, m.hz))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(fmt.Sprintf("pose (%.1f, %.1f) %.1f°  %s",
		m.pose.X, m.pose.Y, m.pose.Heading, m.progress)))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'd' to disable, 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, name := range seriesOrder {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		label := name
		if name == "heading" {
			label = "heading/10"
		}
		items = append(items, colorStyle.Render("━━")+" "+label)
	}
	return strings.Join(items, "  ")
}

func runDashboard(ctx context.Context, session *auton.Session, observer *telemetry.Observer, logs <-chan string, source string) error {
	m := newDashboardModel(ctx, session, observer, logs, source)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	session.Disable()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run dashboard: %w", err)
	}
	if dm, ok := final.(dashboardModel); ok && dm.report != nil {
		printReport(*dm.report)
		if dm.err != nil && !errors.Is(dm.err, context.Canceled) {
			return dm.err
		}
	}
	return nil
}
