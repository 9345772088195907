package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fletcher/iebusctl/internal/iebus"
	"github.com/fletcher/iebusctl/internal/sigrok"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	rxStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	txStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// RenderPlain formats decoded messages as a tab-separated log suitable
// for writing to a file: timestamp, channel, message per line.
func RenderPlain(events []sigrok.Event) string {
	var buf strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&buf, "%d\t%s\t%s\n", ev.Timestamp, ev.Channel, ev.Message)
	}
	return buf.String()
}

// RenderStyled formats decoded messages as a colored terminal table.
// Messages that do not parse as valid frames are flagged in the status
// column rather than dropped.
func RenderStyled(events []sigrok.Event) string {
	var buf strings.Builder

	buf.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-4s %-6s %s", "TIMESTAMP", "CH", "STATUS", "MESSAGE")))
	buf.WriteByte('\n')

	for _, ev := range events {
		chStyle := rxStyle
		if ev.Channel == "TX" {
			chStyle = txStyle
		}

		status := dimStyle.Render(fmt.Sprintf("%-6s", "ok"))
		if _, err := iebus.ParseMessage(ev.Message); err != nil {
			status = badStyle.Render(fmt.Sprintf("%-6s", "bad"))
		}

		// pad before styling so ANSI escapes do not skew the columns
		fmt.Fprintf(&buf, "%-12d %s %s %s\n",
			ev.Timestamp,
			chStyle.Render(fmt.Sprintf("%-4s", ev.Channel)),
			status,
			ev.Message)
	}

	fmt.Fprintf(&buf, "%s\n", dimStyle.Render(fmt.Sprintf("%d messages", len(events))))
	return buf.String()
}
