package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/fwfleet/internal/events"
	"github.com/muurk/fwfleet/internal/fleet"
)

type eventMsg events.Event

type runDoneMsg struct{}

// WatchModel is a Bubble Tea model that shows live job progress for a run
// and exits when the run completes or the user presses q.
type WatchModel struct {
	board    *JobBoard
	feed     <-chan events.Event
	finished bool
	detached bool
}

// NewWatchModel creates a model fed by the given channel. The model exits
// when the channel is closed.
func NewWatchModel(label string, devices []fleet.Device, feed <-chan events.Event) WatchModel {
	return WatchModel{
		board: NewJobBoard(label, devices),
		feed:  feed,
	}
}

// Detached reports whether the user left before the run completed
func (m WatchModel) Detached() bool {
	return m.detached
}

func waitForEvent(feed <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-feed
		if !ok {
			return runDoneMsg{}
		}
		return eventMsg(e)
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return waitForEvent(m.feed)
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.board.Apply(events.Event(msg))
		return m, waitForEvent(m.feed)

	case runDoneMsg:
		m.finished = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		width := msg.Width
		if width > MaxContentWidth {
			width = MaxContentWidth
		}
		m.board.SetWidth(width)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.detached = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model
func (m WatchModel) View() string {
	view := m.board.Render() + "\n"
	if !m.finished {
		view += "\n" + MutedStyle.Render("  press q to stop watching") + "\n"
	}
	return view
}

// Watch renders a live job board. It subscribes to stream, then calls run
// in the background; run must dispatch and block until the dispatch and
// all its trackers are complete. Watch returns once run returns or the
// user quits.
func Watch(out io.Writer, label string, devices []fleet.Device, stream *events.Stream, run func()) (detached bool, err error) {
	feed := make(chan events.Event, 64)
	quit := make(chan struct{})

	stream.OnEvent(func(e events.Event) {
		select {
		case feed <- e:
		case <-quit:
		}
	})

	// Every emit happens before run returns, so closing here is safe
	go func() {
		run()
		close(feed)
	}()

	model := NewWatchModel(label, devices, feed)
	final, err := tea.NewProgram(model, tea.WithOutput(out)).Run()
	close(quit)
	if err != nil {
		return false, err
	}
	return final.(WatchModel).Detached(), nil
}
