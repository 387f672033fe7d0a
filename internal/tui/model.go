// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/umbra/internal/component"
	"github.com/jmylchreest/umbra/internal/root"
	"github.com/jmylchreest/umbra/internal/source"
)

// ThemeSetter writes a new value for the theme attribute. present false
// removes the attribute so the OS preference applies.
type ThemeSetter func(value string, present bool) error

// Options wires a Model to the application's shared pieces.
type Options struct {
	Hub      ThemeInfo
	Inputs   func() source.Inputs
	Injector *component.StyleInjector
	SetTheme ThemeSetter
	Logger   *slog.Logger
}

// Model is the main TUI model.
type Model struct {
	counter *Counter
	status  *StatusBar
	help    help.Model
	keys    KeyMap

	hub      ThemeInfo
	inputs   func() source.Inputs
	setTheme ThemeSetter
	logger   *slog.Logger

	width    int
	height   int
	ready    bool
	showHelp bool

	// Status message
	statusMsg string
	statusErr bool
}

// New creates a new TUI model. Components connect to the hub in Init.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		counter:  NewCounter(opts.Injector),
		status:   NewStatusBar(opts.Injector, opts.Hub, opts.Inputs),
		help:     help.New(),
		keys:     DefaultKeyMap(),
		hub:      opts.Hub,
		inputs:   opts.Inputs,
		setTheme: opts.SetTheme,
		logger:   logger,
	}
}

type tickMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type themeSetMsg struct {
	label string
	err   error
}

// Init connects the components and starts the clock that keeps the status
// bar's relative time current.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.counter.Init(m.hub),
		m.status.Init(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(component.ThemeMsg); ok {
		if cmd, handled := m.counter.Update(msg); handled {
			return m, cmd
		}
		if cmd, handled := m.status.Update(msg); handled {
			return m, cmd
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tick()

	case themeSetMsg:
		if msg.err != nil {
			m.logger.Warn("failed to set theme", "error", msg.err)
			return m, func() tea.Msg {
				return statusMsg{text: "Set theme failed: " + msg.err.Error(), isErr: true}
			}
		}
		return m, func() tea.Msg {
			return statusMsg{text: "Theme set to " + msg.label}
		}

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Increment):
		m.counter.Increment()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.counter.Reset()
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		return m, m.cycleTheme()
	}
	return m, nil
}

// cycleTheme moves the attribute through auto, dark and light. The write
// happens off the event loop; the hub delivers the result as a ThemeMsg.
func (m Model) cycleTheme() tea.Cmd {
	if m.setTheme == nil {
		return func() tea.Msg {
			return statusMsg{text: "Theme is read-only in this session", isErr: true}
		}
	}

	var current source.Inputs
	if m.inputs != nil {
		current = m.inputs()
	}
	value, present := NextTheme(current.Value, current.Present)
	setTheme := m.setTheme

	return func() tea.Msg {
		label := value
		if !present {
			label = root.ThemeAuto
		}
		return themeSetMsg{label: label, err: setTheme(value, present)}
	}
}

// NextTheme returns the attribute value after cur in the cycle
// auto -> dark -> light -> auto. Unrecognised values count as auto.
func NextTheme(cur string, present bool) (value string, set bool) {
	if !source.Explicit(cur, present) {
		return root.ThemeDark, true
	}
	if cur == root.ThemeDark {
		return root.ThemeLight, true
	}
	return "", false
}

// Close disconnects the model's components from the hub.
func (m Model) Close() {
	m.counter.Disconnect()
	m.status.Disconnect()
}

// Counter returns the model's counter component.
func (m Model) Counter() *Counter {
	return m.counter
}

// StatusBar returns the model's status bar component.
func (m Model) StatusBar() *StatusBar {
	return m.status
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	body := m.counter.View(m.width)

	var footer strings.Builder
	footer.WriteString(m.status.View())
	footer.WriteString("\n")
	switch {
	case m.statusMsg != "" && m.statusErr:
		footer.WriteString(m.counter.Render("error", m.statusMsg))
	case m.statusMsg != "":
		footer.WriteString(m.counter.Render("muted", m.statusMsg))
	default:
		footer.WriteString(m.help.View(m.keys))
	}

	footerHeight := lipgloss.Height(footer.String())
	bodyHeight := m.height - footerHeight
	if bodyHeight > 0 {
		body = lipgloss.PlaceVertical(bodyHeight, lipgloss.Center, body)
	}
	return body + "\n" + footer.String()
}

// RunOptions configures the TUI.
type RunOptions struct {
	Options
	AltScreen bool
}

// Run starts the TUI with the given options and blocks until it exits.
func Run(opts RunOptions) error {
	var programOpts []tea.ProgramOption
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	m := New(opts.Options)
	p := tea.NewProgram(m, programOpts...)

	_, err := p.Run()

	// Quit keys disconnect already; this covers signals and errors.
	m.Close()

	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
