package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fletcher/iebusctl/internal/iebus"
	"github.com/fletcher/iebusctl/internal/sigrok"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

const pageSize = 20

// Model is the interactive browser over decoded bus messages.
type Model struct {
	events []sigrok.Event
	cursor int
	top    int
	status string
}

// NewModel builds a browser over the given events.
func NewModel(events []sigrok.Event) Model {
	return Model{events: events}
}

// Run opens the browser and blocks until the user quits.
func Run(events []sigrok.Event) error {
	if len(events) == 0 {
		return fmt.Errorf("no messages to browse")
	}
	_, err := tea.NewProgram(NewModel(events), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.events)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(m.events) - 1
		case "c":
			if err := clipboard.WriteAll(m.events[m.cursor].Message); err != nil {
				m.status = errorStyle.Render("clipboard: " + err.Error())
			} else {
				m.status = "message copied to clipboard"
			}
		}
		m.scroll()
	}
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *Model) scroll() {
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+pageSize {
		m.top = m.cursor - pageSize + 1
	}
}

func (m Model) View() string {
	var buf strings.Builder

	buf.WriteString(titleStyle.Render(fmt.Sprintf("Bus messages (%d)", len(m.events))))
	buf.WriteString("\n\n")

	end := m.top + pageSize
	if end > len(m.events) {
		end = len(m.events)
	}
	for i := m.top; i < end; i++ {
		ev := m.events[i]
		line := fmt.Sprintf("%-12d %-4s %s", ev.Timestamp, ev.Channel, ev.Message)
		if i == m.cursor {
			buf.WriteString(selectedStyle.Render("> " + line))
		} else {
			buf.WriteString("  " + line)
		}
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')
	buf.WriteString(m.detail())
	buf.WriteByte('\n')

	if m.status != "" {
		buf.WriteString(m.status)
		buf.WriteByte('\n')
	}
	buf.WriteString(statusStyle.Render("up/down move · c copy · q quit"))
	buf.WriteByte('\n')

	return buf.String()
}

// detail renders the decoded fields of the selected message.
func (m Model) detail() string {
	ev := m.events[m.cursor]

	msg, err := iebus.ParseMessage(ev.Message)
	if err != nil {
		return detailStyle.Render(errorStyle.Render("unparseable: " + err.Error()))
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "mode    %s\n", msg.Broadcast())
	fmt.Fprintf(&buf, "master  %03x\n", msg.Master())
	fmt.Fprintf(&buf, "slave   %03x\n", msg.Slave())
	fmt.Fprintf(&buf, "length  %d\n", msg.DataLen())
	fmt.Fprintf(&buf, "samples %d\n", len(iebus.Encode(msg)))
	fmt.Fprintf(&buf, "payload % x", msg.Payload())
	if findings := msg.Validate(); len(findings) > 0 {
		buf.WriteByte('\n')
		for _, f := range findings {
			buf.WriteString(errorStyle.Render(f.String()))
			buf.WriteByte('\n')
		}
	}
	return detailStyle.Render(strings.TrimRight(buf.String(), "\n"))
}
