package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/editor"
	"github.com/lecztomek/furnace-panel/internal/poller"
	"github.com/lecztomek/furnace-panel/internal/state"
	"github.com/lecztomek/furnace-panel/internal/view"
)

// Run assembles the full panel (poll pipeline, state applier, config
// editor) around the given controller client and runs it until quit.
//
// The data path is:
//
//	poller -> applier.Apply (diff + stage) -> frameMsg -> flush -> FieldBuffer -> View
//
// Apply runs on the poll goroutine; the flush it schedules is executed by
// the update loop, so the renderer only ever sees writes on the UI
// goroutine, batched once per frame.
func Run(client *api.Client, pollInterval time.Duration) error {
	buffer := NewFieldBuffer()
	engine := editor.New(client)

	var program *tea.Program

	scheduler := view.SchedulerFunc(func(flush func()) {
		program.Send(frameMsg{flush: flush})
	})
	applier := view.NewApplier(buffer, scheduler, view.DefaultFields())

	poll := poller.New(client,
		func(s *state.DeviceState) {
			applier.Apply(s)
			program.Send(stateAppliedMsg{at: time.Now()})
			program.Send(pollStatusMsg{err: nil})
		},
		func(err error) {
			program.Send(pollStatusMsg{err: err})
		},
	)

	model := NewAppModel(buffer, NewConfigModel(engine), poll)
	// Seed the layout before the first WindowSizeMsg arrives.
	model.Width, model.Height = GetTerminalSize()

	program = tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)

	poll.Start(pollInterval)
	defer poll.Stop()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("panel terminated: %w", err)
	}
	return nil
}
