package viewer

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rigpath/backend/internal/transport/ws"
)

const (
	progressWidth = 40
	maxErrorRows  = 5
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffff00"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	tableStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Sender delivers a playback command to the server.
type Sender func(cmd string) error

// Model is the terminal view of a playback stream.
type Model struct {
	send Sender

	connected bool
	addr      string
	lastErr   error
	info      string

	objects   []string
	frame     int
	total     int
	progress  float64
	paused    bool
	applied   bool
	positions map[string]ws.Position
	errors    []string
}

// NewModel returns a disconnected model. send may be nil for a read only view.
func NewModel(send Sender) Model {
	return Model{send: send, positions: make(map[string]ws.Position)}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "p":
			return m, m.togglePause()
		}

	case ConnectedMsg:
		m.connected = true
		m.addr = msg.Addr
		m.lastErr = nil

	case DisconnectedMsg:
		m.connected = false
		m.lastErr = msg.Err

	case InfoMsg:
		m.info = string(msg)

	case ErrorMsg:
		m.errors = append(m.errors, string(msg))
		if len(m.errors) > maxErrorRows {
			m.errors = m.errors[len(m.errors)-maxErrorRows:]
		}

	case SceneMsg:
		m.total = msg.TotalFrames
		m.objects = m.objects[:0]
		for _, obj := range msg.Objects {
			m.objects = append(m.objects, obj.Name)
		}

	case UpdateMsg:
		m.frame = msg.Frame
		m.total = msg.Total
		m.progress = msg.Progress
		m.paused = msg.Paused
		m.applied = msg.Applied
		positions := make(map[string]ws.Position, len(msg.Updates))
		for name, pos := range msg.Updates {
			positions[name] = pos
		}
		m.positions = positions

	case AckMsg:
		switch msg.Cmd {
		case ws.CommandPause:
			m.paused = true
		case ws.CommandResume:
			m.paused = false
		}
	}

	return m, nil
}

func (m Model) togglePause() tea.Cmd {
	if m.send == nil || !m.connected {
		return nil
	}
	cmd := ws.CommandPause
	if m.paused {
		cmd = ws.CommandResume
	}
	send := m.send
	return func() tea.Msg {
		if err := send(cmd); err != nil {
			return ErrorMsg(fmt.Sprintf("sending %s: %v", cmd, err))
		}
		return nil
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rigpath playback"))
	b.WriteString("\n\n")

	if m.connected {
		b.WriteString(okStyle.Render("● connected") + " " + labelStyle.Render(m.addr))
	} else {
		status := "○ disconnected"
		if m.lastErr != nil {
			status += ": " + m.lastErr.Error()
		}
		b.WriteString(badStyle.Render(status))
	}
	b.WriteString("\n")
	if m.info != "" {
		b.WriteString(labelStyle.Render(m.info) + "\n")
	}
	b.WriteString("\n")

	state := "playing"
	if m.paused {
		state = "paused"
	}
	b.WriteString(fmt.Sprintf("%s %d / %d  %s\n", labelStyle.Render("frame"), m.frame, m.total, state))
	b.WriteString(barStyle.Render(ProgressBar(m.progress, progressWidth)))
	b.WriteString(fmt.Sprintf(" %5.1f%%\n\n", m.progress*100))

	b.WriteString(tableStyle.Render(m.positionTable()))
	b.WriteString("\n")

	for _, e := range m.errors {
		b.WriteString(badStyle.Render("! "+e) + "\n")
	}

	b.WriteString(helpStyle.Render("\np pause/resume • q quit"))
	return b.String()
}

func (m Model) positionTable() string {
	names := make([]string, 0, len(m.positions))
	for name := range m.positions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %9s %9s %9s", "object", "x", "y", "z")))
	if len(names) == 0 {
		b.WriteString("\n" + labelStyle.Render("waiting for frames"))
	}
	for _, name := range names {
		p := m.positions[name]
		b.WriteString(fmt.Sprintf("\n%-10s %9.3f %9.3f %9.3f", name, p.X, p.Y, p.Z))
	}
	if !m.applied && len(names) > 0 {
		b.WriteString("\n" + badStyle.Render("positions not applied"))
	}
	return b.String()
}

// ProgressBar renders progress in [0,1] as a fixed width bar.
func ProgressBar(progress float64, width int) string {
	if width <= 0 {
		return ""
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Paused reports the last known pause state.
func (m Model) Paused() bool { return m.paused }

// Frame returns the last frame index and total.
func (m Model) Frame() (int, int) { return m.frame, m.total }
