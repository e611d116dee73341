package battle

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"hacklab-sim/internal/scenario"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// eventMsg carries one rendered event line for the log viewport.
type eventMsg struct {
	line string
	row  EventRow
}

// scoreMsg carries the latest score row for the header panels.
type scoreMsg struct{ ScoreRow }

// TUIWriter renders the battle using a bubbletea dashboard.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(scn *scenario.Scenario) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(scn), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Done is closed when the user quits the dashboard.
func (w *TUIWriter) Done() <-chan struct{} { return w.done }

// Quit shuts the dashboard down without signalling the process.
func (w *TUIWriter) Quit() {
	w.sendSignal.Store(false)
	w.program.Send(tea.Quit())
	<-w.done
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(row EventRow) error {
	line := fmt.Sprintf("%s[%s]%s %s%-7s%s %s%s%s %s",
		colorGray, row.Timestamp.Format("15:04:05"), colorReset,
		teamColor(row.Team), row.Team, colorReset,
		colorCyan, row.Type, colorReset,
		row.Message)
	if row.Points != 0 {
		line += fmt.Sprintf(" %s+%.0f%s", colorGreen, row.Points, colorReset)
	}
	w.program.Send(eventMsg{line: line, row: row})
	return nil
}

// WriteEvents implements the batch upgrade.
func (w *TUIWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteScore implements ScoreWriter.
func (w *TUIWriter) WriteScore(row ScoreRow) error {
	w.program.Send(scoreMsg{row})
	return nil
}

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	tuiPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	tuiRedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	tuiBlueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tuiDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tuiPausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

type tuiModel struct {
	scn      *scenario.Scenario
	score    ScoreRow
	attacks  table.Model
	events   viewport.Model
	lines    []string
	width    int
	height   int
	ready    bool
	complete bool
}

func newTUIModel(scn *scenario.Scenario) tuiModel {
	cols := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Team", Width: 6},
		{Title: "Event", Width: 20},
		{Title: "Severity", Width: 9},
		{Title: "Points", Width: 7},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))
	return tuiModel{scn: scn, attacks: t}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 16
		if vpHeight < 4 {
			vpHeight = 4
		}
		if !m.ready {
			m.events = viewport.New(m.width-4, vpHeight)
			m.ready = true
		} else {
			m.events.Width = m.width - 4
			m.events.Height = vpHeight
		}
		m.refreshViewport()
	case eventMsg:
		m.lines = append(m.lines, msg.line)
		if len(m.lines) > defaultEventLogCap {
			m.lines = m.lines[len(m.lines)-defaultEventLogCap:]
		}
		m.appendTableRow(msg.row)
		if msg.row.Type == string(EventBattleComplete) {
			m.complete = true
		}
		m.refreshViewport()
	case scoreMsg:
		m.score = msg.ScoreRow
	}
	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m *tuiModel) appendTableRow(row EventRow) {
	rows := append(m.attacks.Rows(), table.Row{
		row.Timestamp.Format("15:04:05"),
		row.Team,
		row.Type,
		row.Severity,
		fmt.Sprintf("%.0f", row.Points),
	})
	if len(rows) > 50 {
		rows = rows[len(rows)-50:]
	}
	m.attacks.SetRows(rows)
	m.attacks.GotoBottom()
}

func (m *tuiModel) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.events.Width
	if width <= 0 {
		width = 80
	}
	wrapped := make([]string, 0, len(m.lines))
	for _, l := range m.lines {
		wrapped = append(wrapped, wordwrap.String(l, width))
	}
	m.events.SetContent(strings.Join(wrapped, "\n"))
	m.events.GotoBottom()
}

func (m tuiModel) headerView() string {
	name := "battle"
	if m.scn != nil {
		name = m.scn.Name
	}
	title := tuiTitleStyle.Render("HackLab Battle: " + name)
	status := ""
	if m.score.Paused {
		status = " " + tuiPausedStyle.Render("PAUSED")
	}
	if m.complete {
		status = " " + tuiTitleStyle.Render("COMPLETE")
	}
	return title + status
}

func (m tuiModel) scoreView() string {
	red := tuiRedStyle.Render(fmt.Sprintf("RED %.0f", m.score.RedPoints))
	blue := tuiBlueStyle.Render(fmt.Sprintf("BLUE %.0f", m.score.BluePoints))
	stats := tuiDimStyle.Render(fmt.Sprintf(
		"phase=%s adv=%s attacks=%d blocks=%d success=%.0f%% compromised=%d",
		m.score.Phase, m.score.Advantage, m.score.TotalAttacks,
		m.score.TotalBlocks, m.score.SuccessRate*100, m.score.Compromised))
	return tuiPanelStyle.Render(red + "  vs  " + blue + "\n" + stats)
}

func (m tuiModel) View() string {
	if !m.ready {
		return "starting battle dashboard..."
	}
	help := tuiDimStyle.Render("q: quit")
	return strings.Join([]string{
		m.headerView(),
		m.scoreView(),
		tuiPanelStyle.Render(m.attacks.View()),
		tuiPanelStyle.Render(m.events.View()),
		help,
	}, "\n")
}

var (
	_ EventWriter = (*TUIWriter)(nil)
	_ ScoreWriter = (*TUIWriter)(nil)
)
