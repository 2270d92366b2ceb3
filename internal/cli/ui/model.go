// Package ui renders the live batch view: one progress row per job, assigned
// by submission order so rows never move as jobs finish out of order.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pukpuklouis/video-split/internal/cli/hooks"
	"github.com/pukpuklouis/video-split/pkg/batch"
)

const barWidth = 30

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	barFillStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// jobRow is the display state of one job. Its slice index equals the job's
// submission index, never its completion order.
type jobRow struct {
	name    string
	status  batch.Status
	message string
	percent int
}

// Model is the bubbletea model for a batch run. All mutation happens inside
// Update, on the bubbletea event loop, so no extra locking is needed here;
// concurrent workers reach it only through program.Send.
type Model struct {
	spinner   spinner.Model
	rows      []jobRow
	startTime time.Time
	report    *batch.Report
	quitting  bool
	width     int
}

// NewModel builds the initial model.
func NewModel() *Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return &Model{
		spinner:   sp,
		startTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.quitting || m.report != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case hooks.JobQueuedMsg:
		// Rows arrive in submission order; grow the table to hold the ID.
		for len(m.rows) < msg.Spec.ID {
			m.rows = append(m.rows, jobRow{status: batch.StatusPending})
		}
		row := &m.rows[msg.Spec.ID-1]
		row.name = fmt.Sprintf("[%d/%d] %s", msg.Spec.SeqIndex, msg.Spec.SeqTotal, baseName(msg.Spec.InputPath))

	case hooks.JobStatusMsg:
		if msg.JobID >= 1 && msg.JobID <= len(m.rows) {
			row := &m.rows[msg.JobID-1]
			// percent is monotonically non-decreasing upstream; keep the
			// guard anyway so a late message cannot move a bar backwards.
			if msg.Percent > row.percent {
				row.percent = msg.Percent
			}
			row.status = msg.Status
			if msg.Message != "" {
				row.message = msg.Message
			}
		}

	case hooks.RunCompleteMsg:
		report := msg.Report
		m.report = &report
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("video-split"))
	if m.report == nil {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	for _, row := range m.rows {
		b.WriteString(renderRow(row))
		b.WriteString("\n")
	}

	if m.report != nil {
		b.WriteString("\n")
		b.WriteString(batch.SummaryFor(*m.report))
		b.WriteString("\n")
	} else {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\nelapsed %s  (q to quit)", time.Since(m.startTime).Round(time.Second))))
		b.WriteString("\n")
	}
	return b.String()
}

// Quitting reports whether the user requested shutdown before completion.
func (m *Model) Quitting() bool { return m.quitting }

func renderRow(row jobRow) string {
	bar := renderBar(row.percent)
	statusMark := " "
	style := dimStyle
	switch row.status {
	case batch.StatusSuccess:
		statusMark, style = "✓", successStyle
	case batch.StatusWarning:
		statusMark, style = "!", warningStyle
	case batch.StatusError:
		statusMark, style = "✗", errorStyle
	case batch.StatusDetecting, batch.StatusSplitting:
		style = lipgloss.NewStyle()
	}

	line := fmt.Sprintf("%s %s %3d%% %s", style.Render(statusMark), bar, row.percent, row.name)
	if row.message != "" && row.status.IsTerminal() {
		line += dimStyle.Render(" " + row.message)
	}
	return line
}

func renderBar(percent int) string {
	filled := percent * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barWidth-filled))
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
