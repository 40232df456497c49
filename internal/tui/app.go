package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/poller"
)

// Tab identifies the active panel tab
type Tab int

const (
	TabDashboard Tab = iota
	TabConfig
)

// Messages delivered from the poll pipeline

// frameMsg carries one scheduled applier flush. Executing it on the update
// loop keeps all renderer writes on the UI goroutine, one batch per frame.
type frameMsg struct {
	flush func()
}

// stateAppliedMsg reports that a poll cycle delivered a fresh snapshot.
type stateAppliedMsg struct {
	at time.Time
}

// pollStatusMsg reports the outcome of a poll cycle; err is nil when the
// connection recovered.
type pollStatusMsg struct {
	err error
}

// PollControl is the slice of the poller the app drives from focus changes
// and the refresh key.
type PollControl interface {
	Suspend()
	Resume()
	RefreshNow()
}

// AppModel is the top-level model: it owns the tab switcher, routes
// messages to the active tab, and drives poller suspend/resume from
// terminal focus.
type AppModel struct {
	ActiveTab Tab

	Dashboard DashboardModel
	Config    ConfigModel

	Poll PollControl

	// Focused mirrors terminal focus; polling is suspended while false.
	Focused bool

	Width  int
	Height int

	Help help.Model
}

// NewAppModel assembles the panel from its parts.
func NewAppModel(buffer *FieldBuffer, config ConfigModel, poll PollControl) AppModel {
	return AppModel{
		ActiveTab: TabDashboard,
		Dashboard: NewDashboardModel(buffer),
		Config:    config,
		Poll:      poll,
		Focused:   true,
		Help:      help.New(),
	}
}

// Init initializes the panel
func (m AppModel) Init() tea.Cmd {
	return m.Config.Init()
}

// Update handles all messages and routes them to the active tab
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Dashboard, _ = m.Dashboard.Update(msg)
		m.Config, _ = m.Config.Update(msg)
		return m, nil

	case tea.FocusMsg:
		// Terminal regained focus: resume polling with an immediate poll.
		if !m.Focused {
			m.Focused = true
			if m.Poll != nil {
				m.Poll.Resume()
			}
		}
		return m, nil

	case tea.BlurMsg:
		// Terminal hidden: stop polling and abort the in-flight request.
		if m.Focused {
			m.Focused = false
			if m.Poll != nil {
				m.Poll.Suspend()
			}
		}
		return m, nil

	case frameMsg:
		msg.flush()
		return m, nil

	case stateAppliedMsg:
		m.Dashboard.LastUpdate = msg.at
		return m, nil

	case pollStatusMsg:
		if msg.err != nil {
			m.Dashboard.Degraded = true
			m.Dashboard.StatusMessage = api.ShortMessage(msg.err)
		} else {
			m.Dashboard.Degraded = false
			m.Dashboard.StatusMessage = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m.handleTabKey(msg)
	}

	// Everything else goes to both tabs (spinner ticks, async results).
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Config, cmd = m.Config.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.Dashboard, cmd = m.Dashboard.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleTabKey routes key input to the active tab, handling the tab switch
// keys itself.
func (m AppModel) handleTabKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.ActiveTab {
	case TabDashboard:
		switch msg.String() {
		case "tab", "c":
			m.ActiveTab = TabConfig
			return m, nil
		case "r":
			if m.Poll != nil {
				m.Poll.RefreshNow()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, cmd

	case TabConfig:
		switch msg.String() {
		case "esc", "d":
			m.ActiveTab = TabDashboard
			return m, nil
		}
		var cmd tea.Cmd
		m.Config, cmd = m.Config.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the active tab inside the application container
func (m AppModel) View() string {
	var content, footer string

	switch m.ActiveTab {
	case TabDashboard:
		content = m.Dashboard.View()
		footer = m.Dashboard.StatusLine() + "  " + m.Help.View(m.Dashboard.Keys)
	case TabConfig:
		content = m.Config.View()
		footer = m.Config.StatusLine() + "  " + m.Help.View(m.Config.Keys)
	}

	if !m.Focused {
		footer = SubtitleStyle.Render("paused (terminal unfocused)") + "  " + footer
	}

	return RenderApplicationContainer(content, footer, m.Width, m.Height)
}

var _ PollControl = (*poller.Poller)(nil)
