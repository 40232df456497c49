package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lecztomek/furnace-panel/internal/view"
)

// FieldBuffer is the renderer binding for the dashboard: the state applier
// writes display strings into it on frame flushes and the dashboard view
// reads them back. It is shared between the poll pipeline and the UI loop,
// so access is guarded.
type FieldBuffer struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewFieldBuffer creates an empty field buffer.
func NewFieldBuffer() *FieldBuffer {
	return &FieldBuffer{values: make(map[string]string)}
}

// SetField stores the display value for one dashboard field.
func (b *FieldBuffer) SetField(key, value string) {
	b.mu.Lock()
	b.values[key] = value
	b.mu.Unlock()
}

// Get returns the display value for a field, or a placeholder before the
// first poll has landed.
func (b *FieldBuffer) Get(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.values[key]; ok {
		return v
	}
	return "--"
}

// dashboardKeyMap defines key bindings for the dashboard tab
type dashboardKeyMap struct {
	Refresh key.Binding
	Config  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Config, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Config, k.Help, k.Quit},
	}
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Config: key.NewBinding(
			key.WithKeys("tab", "c"),
			key.WithHelp("tab", "config"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DashboardModel renders the boiler schematic read-outs. The values
// themselves arrive through the FieldBuffer; this model only lays them out.
type DashboardModel struct {
	Buffer *FieldBuffer
	Fields []view.FieldSpec

	// LastUpdate is when the last state snapshot landed.
	LastUpdate time.Time

	// Connection status line state
	StatusMessage string
	Degraded      bool

	Width  int
	Height int

	Keys dashboardKeyMap
}

// NewDashboardModel creates a dashboard over the given field buffer.
func NewDashboardModel(buffer *FieldBuffer) DashboardModel {
	return DashboardModel{
		Buffer: buffer,
		Fields: view.DefaultFields(),
		Keys:   newDashboardKeyMap(),
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the dashboard tab. Navigation keys are
// handled by the app model; the dashboard itself only tracks size.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

// sensorRow is one line of the schematic: a label and the field key whose
// display value fills it.
type sensorRow struct {
	label string
	key   string
	isOut bool
}

var dashboardLayout = []struct {
	section string
	rows    []sensorRow
}{
	{
		section: "Temperatures",
		rows: []sensorRow{
			{label: "Boiler", key: "boiler_temp"},
			{label: "Return", key: "return_temp"},
			{label: "Radiators", key: "radiators_temp"},
			{label: "Hot water", key: "cwu_temp"},
			{label: "Flue gas", key: "flue_gas_temp"},
			{label: "Hopper", key: "hopper_temp"},
			{label: "Outside", key: "outside_temp"},
			{label: "Mixer", key: "mixer_temp"},
		},
	},
	{
		section: "Burner",
		rows: []sensorRow{
			{label: "Fan power", key: "fan_power"},
			{label: "Output power", key: "power_percent"},
			{label: "Feeder", key: "feeder_on", isOut: true},
		},
	},
	{
		section: "Circuits",
		rows: []sensorRow{
			{label: "CH pump", key: "pump_co_on", isOut: true},
			{label: "DHW pump", key: "pump_cwu_on", isOut: true},
			{label: "Circulation", key: "pump_circ_on", isOut: true},
			{label: "Mixer open", key: "mixer_open_on", isOut: true},
			{label: "Mixer close", key: "mixer_close_on", isOut: true},
			{label: "Alarm buzzer", key: "alarm_buzzer_on", isOut: true},
			{label: "Alarm relay", key: "alarm_relay_on", isOut: true},
		},
	},
}

// View renders the dashboard content (without the outer container, which
// the app model applies).
func (m DashboardModel) View() string {
	var b strings.Builder

	// Mode and alarm banner first.
	mode := m.Buffer.Get("mode")
	b.WriteString(LabelStyle.Render("Mode "))
	b.WriteString(ValueStyle.Render(mode))
	b.WriteString("\n")

	if alarm := m.Buffer.Get("alarm"); alarm != "" && alarm != "--" {
		b.WriteString(AlarmStyle.Render(alarm))
		b.WriteString("\n")
	}

	columns := make([]string, 0, len(dashboardLayout))
	for _, sec := range dashboardLayout {
		var col strings.Builder
		col.WriteString(SectionStyle.Render(sec.section))
		col.WriteString("\n")
		for _, row := range sec.rows {
			value := m.Buffer.Get(row.key)
			style := ValueStyle
			if row.isOut {
				switch value {
				case "ON":
					style = OnValueStyle
				case "OFF":
					style = OffValueStyle
				}
			}
			col.WriteString(fmt.Sprintf("%s %s\n",
				LabelStyle.Render(fmt.Sprintf("%-12s", row.label)),
				style.Render(value)))
		}
		columns = append(columns, lipgloss.NewStyle().MarginRight(4).Render(col.String()))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))

	// Controller module health strip.
	health := m.Buffer.Get("module_health")
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Modules "))
	if health == "all ok" || health == "--" {
		b.WriteString(ValueStyle.Render(health))
	} else {
		b.WriteString(ErrorStyle.Render(health))
	}
	b.WriteString("\n")

	return b.String()
}

// StatusLine renders the connection footer: last update age plus any
// degraded-connection message.
func (m DashboardModel) StatusLine() string {
	var parts []string

	if m.LastUpdate.IsZero() {
		parts = append(parts, "waiting for first poll")
	} else {
		age := time.Since(m.LastUpdate).Round(time.Second)
		parts = append(parts, fmt.Sprintf("updated %s ago", age))
	}

	if m.Degraded && m.StatusMessage != "" {
		parts = append(parts, ErrorStyle.Render(m.StatusMessage))
	}

	return strings.Join(parts, "  ")
}
