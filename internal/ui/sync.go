// Package ui implements the interactive terminal interface using
// bubbletea's Elm architecture.
//
// The sync view renders a progress bar and stage label while a library
// sync runs in a background goroutine. Progress updates flow through a
// buffered channel bridged from the engine's synchronous callback, so a
// full channel never blocks the sync itself.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/temeke/spotify-playlists/internal/tasks"
)

// keyMap defines the [key.Binding] mapping for the sync view.
type keyMap struct {
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.quit}}
}

type progressMsg tasks.ProgressUpdate

type syncDoneMsg struct {
	result *tasks.SyncResult
	err    error
}

// SyncModel renders one sync run.
type SyncModel struct {
	ctx    context.Context
	engine *tasks.SyncEngine

	bar     progress.Model
	spin    spinner.Model
	help    help.Model
	keys    keyMap
	width   int
	updates chan tasks.ProgressUpdate
	current tasks.ProgressUpdate
	result  *tasks.SyncResult
	err     error
	done    bool
}

// NewSyncModel creates the sync view for the given engine.
func NewSyncModel(ctx context.Context, engine *tasks.SyncEngine) *SyncModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.ok

	return &SyncModel{
		ctx:    ctx,
		engine: engine,
		bar:    progress.New(progress.WithDefaultGradient()),
		spin:   spin,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Result returns the sync outcome once the view has finished.
func (m *SyncModel) Result() (*tasks.SyncResult, error) {
	return m.result, m.err
}

// Init starts the sync in a background goroutine and begins listening
// for progress.
func (m *SyncModel) Init() tea.Cmd {
	m.updates = make(chan tasks.ProgressUpdate, 64)

	go func() {
		result, err := m.engine.Run(m.ctx, func(update tasks.ProgressUpdate) {
			select {
			case m.updates <- update:
			default:
			}
		})
		m.result = result
		m.err = err
		close(m.updates)
	}()

	return tea.Batch(m.spin.Tick, m.waitForProgress())
}

func (m *SyncModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return syncDoneMsg{result: m.result, err: m.err}
		}
		return progressMsg(update)
	}
}

// Update handles incoming messages and advances the view state.
func (m *SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		m.current = tasks.ProgressUpdate(msg)
		return m, tea.Batch(m.bar.SetPercent(m.current.Percent/100), m.waitForProgress())

	case syncDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress bar, stage label, and latest message.
func (m *SyncModel) View() string {
	if m.done {
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Sync failed: %v\n", m.err))
		}
		return styles.ok.Render("✓ Sync complete\n")
	}

	title := styles.title.Render("Syncing library")
	status := fmt.Sprintf("%s %s", m.spin.View(), m.current.Message)
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, m.bar.View(), status, helpView)
}
