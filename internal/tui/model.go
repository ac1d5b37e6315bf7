package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/debugbridge/internal/events"
)

// HealthState tracks bridge health from /healthz polling.
type HealthState struct {
	Status        string
	UptimeSeconds int64
	Enabled       bool
	Scripts       int
	Sessions      int64
	Connected     bool
	LastCheck     time.Time
}

// Model is the BubbleTea model of the monitor.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	health   HealthState
	state    *State
	commands table.Model

	ticker  Ticker
	spinner Spinner
	theme   Theme

	hubEvents chan events.Event
	lastError string
}

// NewMonitor creates a monitor for the bridge served at apiURL.
func NewMonitor(apiURL, apiKey string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 8},
			{Title: "Method", Width: 34},
			{Title: "Duration", Width: 10},
			{Title: "Error", Width: 30},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{
		apiURL:    apiURL,
		apiKey:    apiKey,
		state:     NewState(),
		commands:  t,
		ticker:    NewTicker(),
		theme:     NewDefaultTheme(),
		hubEvents: make(chan events.Event, 100),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.apiURL) },
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.commands.SetWidth(max(m.width-6, 20))

	case tickMsg:
		m.ticker.Tick()
		m.spinner.Decay(time.Time(msg))
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case eventMsg:
		e := events.Event(msg)
		m.state.Apply(e)
		m.commands.SetRows(commandRows(m.state.Commands))
		m.spinner.OnEvent(time.Now())
		m.health.Connected = true
		m.lastError = ""
		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.Enabled = msg.Enabled
		m.health.Scripts = msg.Scripts
		m.health.Sessions = msg.Sessions
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg { return fetchHealth(m.apiURL) })

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "event stream disconnected, reconnecting..."
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg { return fetchHealth(m.apiURL) })
	}

	var cmd tea.Cmd
	m.commands, cmd = m.commands.Update(msg)
	return m, cmd
}
