package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/editor"
)

// Message types for async config operations
type modulesLoadedMsg struct {
	err error
}

type moduleReloadedMsg struct {
	moduleID string
	err      error
}

type saveDoneMsg struct {
	moduleID string
	err      error
}

// configKeyMap defines key bindings for the config tab
type configKeyMap struct {
	PrevModule key.Binding
	NextModule key.Binding
	Up         key.Binding
	Down       key.Binding
	Decrement  key.Binding
	Increment  key.Binding
	Save       key.Binding
	Revert     key.Binding
	Reload     key.Binding
	Dashboard  key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k configKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextModule, k.Increment, k.Save, k.Revert, k.Dashboard, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k configKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevModule, k.NextModule, k.Up, k.Down},
		{k.Decrement, k.Increment, k.Save, k.Revert},
		{k.Reload, k.Dashboard, k.Quit},
	}
}

func newConfigKeyMap() configKeyMap {
	return configKeyMap{
		PrevModule: key.NewBinding(
			key.WithKeys("[", "shift+tab"),
			key.WithHelp("[", "prev module"),
		),
		NextModule: key.NewBinding(
			key.WithKeys("]", "tab"),
			key.WithHelp("]", "next module"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("left", "h", "-"),
			key.WithHelp("←/-", "decrease"),
		),
		Increment: key.NewBinding(
			key.WithKeys("right", "l", "+", "enter", " "),
			key.WithHelp("→/+", "increase"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Revert: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "revert"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload module"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("esc", "d"),
			key.WithHelp("esc", "dashboard"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ConfigModel is the configuration editing tab. It renders one module at a
// time with a widget row per schema field and drives the editor engine.
type ConfigModel struct {
	Engine *editor.Engine

	// Navigation
	ModuleIdx int // which module tab is active
	FieldIdx  int // which field row is focused

	// Async state
	Loading bool // initial module list load in flight
	Saving  bool // save of the active module in flight

	// Last operation result, shown in the footer
	Notice    string
	NoticeErr bool

	Spinner spinner.Model

	Width  int
	Height int

	Keys configKeyMap
}

// NewConfigModel creates the config tab over the given engine.
func NewConfigModel(engine *editor.Engine) ConfigModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return ConfigModel{
		Engine:  engine,
		Loading: true,
		Spinner: s,
		Keys:    newConfigKeyMap(),
	}
}

// Init starts the module list load.
func (m ConfigModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, loadModulesCmd(m.Engine))
}

// loadModulesCmd fetches the module list and every module's schema and
// values in the background.
func loadModulesCmd(engine *editor.Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return modulesLoadedMsg{err: engine.LoadAll(ctx)}
	}
}

// reloadModuleCmd retries a single module's load.
func reloadModuleCmd(engine *editor.Engine, moduleID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return moduleReloadedMsg{moduleID: moduleID, err: engine.ReloadModule(ctx, moduleID)}
	}
}

// saveModuleCmd sends the module's full draft to the controller.
func saveModuleCmd(engine *editor.Engine, moduleID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return saveDoneMsg{moduleID: moduleID, err: engine.Save(ctx, moduleID)}
	}
}

// activeModuleID returns the id of the module the cursor is on.
func (m ConfigModel) activeModuleID() string {
	mods := m.Engine.Modules()
	if len(mods) == 0 || m.ModuleIdx >= len(mods) {
		return ""
	}
	return mods[m.ModuleIdx].Info.ID
}

// Update handles messages for the config tab.
func (m ConfigModel) Update(msg tea.Msg) (ConfigModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.Loading && !m.Saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case modulesLoadedMsg:
		m.Loading = false
		if msg.err != nil {
			m.Notice = api.ShortMessage(msg.err)
			m.NoticeErr = true
		} else {
			m.Notice = ""
			m.NoticeErr = false
		}
		return m, nil

	case moduleReloadedMsg:
		if msg.err != nil {
			m.Notice = fmt.Sprintf("%s: %s", msg.moduleID, api.ShortMessage(msg.err))
			m.NoticeErr = true
		} else {
			m.Notice = fmt.Sprintf("%s reloaded", msg.moduleID)
			m.NoticeErr = false
		}
		return m, nil

	case saveDoneMsg:
		m.Saving = false
		if msg.err != nil {
			m.Notice = fmt.Sprintf("save failed: %s", api.ShortMessage(msg.err))
			m.NoticeErr = true
		} else {
			m.Notice = fmt.Sprintf("%s saved", msg.moduleID)
			m.NoticeErr = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes key input. Saves in flight block edits to the module
// being saved but not navigation.
func (m ConfigModel) handleKey(msg tea.KeyMsg) (ConfigModel, tea.Cmd) {
	mods := m.Engine.Modules()

	switch {
	case key.Matches(msg, m.Keys.PrevModule):
		if len(mods) > 0 {
			m.ModuleIdx = (m.ModuleIdx - 1 + len(mods)) % len(mods)
			m.FieldIdx = 0
		}

	case key.Matches(msg, m.Keys.NextModule):
		if len(mods) > 0 {
			m.ModuleIdx = (m.ModuleIdx + 1) % len(mods)
			m.FieldIdx = 0
		}

	case key.Matches(msg, m.Keys.Up):
		if m.FieldIdx > 0 {
			m.FieldIdx--
		}

	case key.Matches(msg, m.Keys.Down):
		if n := m.activeFieldCount(); m.FieldIdx < n-1 {
			m.FieldIdx++
		}

	case key.Matches(msg, m.Keys.Decrement):
		m.adjust(-1)

	case key.Matches(msg, m.Keys.Increment):
		m.adjust(+1)

	case key.Matches(msg, m.Keys.Save):
		id := m.activeModuleID()
		if id == "" || m.Saving {
			break
		}
		if !m.Engine.Dirty(id) {
			m.Notice = "no changes to save"
			m.NoticeErr = false
			break
		}
		m.Saving = true
		m.Notice = ""
		return m, tea.Batch(m.Spinner.Tick, saveModuleCmd(m.Engine, id))

	case key.Matches(msg, m.Keys.Revert):
		if id := m.activeModuleID(); id != "" {
			m.Engine.Revert(id)
			m.Notice = "changes reverted"
			m.NoticeErr = false
		}

	case key.Matches(msg, m.Keys.Reload):
		if id := m.activeModuleID(); id != "" {
			return m, reloadModuleCmd(m.Engine, id)
		}
	}

	return m, nil
}

// adjust applies one widget interaction to the focused field.
func (m *ConfigModel) adjust(delta int) {
	id := m.activeModuleID()
	if id == "" || m.Saving {
		return
	}
	st, ok := m.Engine.Module(id)
	if !ok || st.Schema == nil || m.FieldIdx >= len(st.Schema.Fields) {
		return
	}
	f := st.Schema.Fields[m.FieldIdx]
	if _, err := m.Engine.AdjustField(id, f.Key, delta); err != nil {
		m.Notice = err.Error()
		m.NoticeErr = true
	}
}

func (m ConfigModel) activeFieldCount() int {
	st, ok := m.Engine.Module(m.activeModuleID())
	if !ok || st.Schema == nil {
		return 0
	}
	return len(st.Schema.Fields)
}

// View renders the config tab content.
func (m ConfigModel) View() string {
	if m.Loading {
		return fmt.Sprintf("\n %s loading configuration modules...", m.Spinner.View())
	}

	mods := m.Engine.Modules()
	if len(mods) == 0 {
		return "\n" + SubtitleStyle.Render("controller reports no configurable modules")
	}
	if m.ModuleIdx >= len(mods) {
		m.ModuleIdx = 0
	}

	var b strings.Builder

	// Module tab bar.
	tabs := make([]string, 0, len(mods))
	for i, mod := range mods {
		name := mod.Info.DisplayName()
		if m.Engine.Dirty(mod.Info.ID) {
			name += " " + DirtyStyle.Render("*")
		}
		if i == m.ModuleIdx {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	active := mods[m.ModuleIdx]
	if active.Err != nil {
		b.WriteString(RenderError(api.ShortMessage(active.Err)))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("press R to retry loading this module"))
		b.WriteString("\n")
		return b.String()
	}
	if active.Schema == nil {
		return b.String()
	}

	// Field rows.
	for i, f := range active.Schema.Fields {
		rendered := m.Engine.RenderField(active.Info.ID, f.Key)
		line := fmt.Sprintf("%-28s %s", f.DisplayLabel(), rendered)
		if i == m.FieldIdx {
			b.WriteString(SelectedFieldStyle.Render("→ " + line))
		} else {
			b.WriteString(FieldStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if desc := active.Info.Description; desc != "" {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render(desc))
		b.WriteString("\n")
	}

	if m.Saving {
		b.WriteString(fmt.Sprintf("\n %s saving %s...\n", m.Spinner.View(), active.Info.DisplayName()))
	}

	return b.String()
}

// StatusLine renders the config tab footer notice.
func (m ConfigModel) StatusLine() string {
	if m.Notice == "" {
		return ""
	}
	if m.NoticeErr {
		return ErrorStyle.Render(m.Notice)
	}
	return m.Notice
}
