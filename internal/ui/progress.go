// Package ui holds the terminal front-ends: a Bubble Tea progress model
// for sweeps and a lipgloss lattice renderer for layout inspection.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// SweepStatus tracks one grid point through its lifecycle.
type SweepStatus int

const (
	StatusQueued SweepStatus = iota
	StatusBuilding
	StatusDecoding
	StatusDone
	StatusError
)

// SweepEvent reports a status change for the named grid point.
type SweepEvent struct {
	Point  string
	Status SweepStatus
}

type sweepModel struct {
	title   string
	events  <-chan SweepEvent
	spinner spinner.Model
	prog    progress.Model
	items   []pointItem
	index   map[string]int
	width   int
	done    bool
}

type pointItem struct {
	point  string
	status SweepStatus
}

type eventMsg SweepEvent
type doneMsg struct{}

// NewSweepModel returns a Bubble Tea model that renders sweep progress.
// points fixes the display order; events drive status changes and the
// model quits when the channel closes.
func NewSweepModel(title string, points []string, events <-chan SweepEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]pointItem, 0, len(points))
	index := make(map[string]int, len(points))
	for i, pt := range points {
		items = append(items, pointItem{point: pt, status: StatusQueued})
		index[pt] = i
	}
	return &sweepModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *sweepModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *sweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(SweepEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		model, cmd := m.prog.Update(msg)
		m.prog = model.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *sweepModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		name := truncate(item.point, nameWidth)
		label := statusLabel(item.status)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", label))
		b.WriteString(fmt.Sprintf("  %s %s", statusStyled, name))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *sweepModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *sweepModel) applyEvent(ev SweepEvent) tea.Cmd {
	idx, ok := m.index[ev.Point]
	if !ok {
		return nil
	}
	m.items[idx].status = ev.Status

	total := 0.0
	for _, item := range m.items {
		total += progressFromStatus(item.status)
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func progressFromStatus(status SweepStatus) float64 {
	switch status {
	case StatusBuilding:
		return 0.3
	case StatusDecoding:
		return 0.7
	case StatusDone, StatusError:
		return 1.0
	default:
		return 0.0
	}
}

func statusLabel(status SweepStatus) string {
	switch status {
	case StatusBuilding:
		return "building"
	case StatusDecoding:
		return "decoding"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "queued"
	}
}

func styleStatus(status SweepStatus) lipgloss.Style {
	switch status {
	case StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case StatusBuilding, StatusDecoding:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
