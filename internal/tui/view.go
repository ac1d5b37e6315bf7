package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/debugbridge/internal/events"
)

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing monitor..."
	}

	parts := []string{
		m.renderHeader(),
		m.renderExecution(),
		m.theme.Border.Width(m.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("COMMANDS"),
			m.commands.View(),
		)),
		renderEventStream(m.state.EventLog, m.theme, m.width),
	}
	if m.lastError != "" {
		parts = append(parts, m.theme.StatusFailed.Render(" ⚠ "+m.lastError))
	}
	parts = append(parts, m.theme.Dim.Render(" [q] Quit • [↑/↓] Scroll commands"))

	return lipgloss.NewStyle().Margin(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderHeader() string {
	innerWidth := m.width - 4

	status := m.theme.StatusOK.Render("CONNECTED")
	switch {
	case !m.health.Connected:
		status = m.theme.StatusFailed.Render("CONNECTING")
	case m.health.Status != "ok" && m.health.Status != "":
		status = m.theme.StatusFailed.Render("DEGRADED")
	}

	enabled := "disabled"
	if m.health.Enabled {
		enabled = "enabled"
	}

	lastEvent := "never"
	if at := m.spinner.LastEvent(); !at.IsZero() {
		lastEvent = time.Since(at).Round(time.Second).String() + " ago"
	}

	title := fmt.Sprintf(" DEBUGBRIDGE MONITOR %s", m.theme.Highlight.Render(m.ticker.Current()))
	clock := m.theme.Dim.Render(time.Now().Format("15:04:05"))
	pad := max(innerWidth-lipgloss.Width(title)-lipgloss.Width(clock)-4, 1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title+strings.Repeat(" ", pad)+clock+" ",
		fmt.Sprintf(" %s  ⏱ %s  Debugger: %s  Scripts: %d  Sessions: %d  Warnings: %d",
			status,
			formatDuration(time.Duration(m.health.UptimeSeconds)*time.Second),
			enabled,
			m.health.Scripts,
			m.health.Sessions,
			m.state.Warnings,
		),
		fmt.Sprintf(" Last event: %s %s", lastEvent, m.spinner.Render(m.theme)),
	)
	return m.theme.Border.Width(innerWidth).Render(content)
}

func (m Model) renderExecution() string {
	exec := m.state.Exec
	var lines []string
	switch {
	case !exec.Known:
		lines = append(lines, m.theme.Dim.Render(" unknown (waiting for the debugger)"))
	case exec.Paused:
		lines = append(lines, fmt.Sprintf(" %s  reason: %s  frames: %d",
			m.theme.StatusPaused.Render("PAUSED"), exec.Reason, exec.Frames))
		if exec.Location != "" {
			lines = append(lines, fmt.Sprintf(" at %s (%s)", m.theme.Highlight.Render(exec.Function), exec.Location))
		}
		if len(exec.HitBreakpoints) > 0 {
			lines = append(lines, " breakpoints: "+strings.Join(exec.HitBreakpoints, ", "))
		}
	default:
		lines = append(lines, " "+m.theme.StatusRunning.Render("RUNNING"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{m.theme.Title.Render("EXECUTION")}, lines...)...)
	return m.theme.Border.Width(m.width - 4).Render(content)
}

func commandRows(cmds []CommandRow) []table.Row {
	rows := make([]table.Row, 0, len(cmds))
	for _, c := range cmds {
		rows = append(rows, table.Row{
			c.At.Format("15:04:05"),
			c.Method,
			c.Duration.String(),
			c.Error,
		})
	}
	return rows
}

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4
	if len(eventLog) == 0 {
		return theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		))
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}
	return theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n")),
	))
}

func formatEvent(e events.Event, theme Theme) string {
	var style lipgloss.Style
	switch e.Type {
	case "Debugger.paused":
		style = theme.StatusPaused
	case "Debugger.resumed":
		style = theme.StatusRunning
	case "Console.messageAdded":
		style = theme.StatusFailed
	default:
		style = theme.Dim
	}
	return fmt.Sprintf("%s %s %s",
		theme.Dim.Render(e.At.Format("15:04:05")),
		style.Render(fmt.Sprintf("%-22s", e.Type)),
		eventSummary(e),
	)
}

// eventSummary picks the most telling field of an event payload.
func eventSummary(e events.Event) string {
	var data map[string]any
	_ = json.Unmarshal(e.Data, &data)

	for _, key := range []string{"method", "reason", "url"} {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
	}
	if msg, ok := data["message"].(map[string]any); ok {
		if text, ok := msg["text"].(string); ok {
			return firstLine(text)
		}
	}

	raw := string(e.Data)
	if len(raw) > 60 {
		raw = raw[:60] + "..."
	}
	return raw
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
