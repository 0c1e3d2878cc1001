// Package tui provides a Bubble Tea terminal user interface for smanager.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jadujoel/smanager/internal/config"
	"github.com/jadujoel/smanager/internal/manager"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	packageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateFetchingAtlas
	StateLoading
	StateComplete
	StateError
)

// LogLevel indicates the severity of a log message.
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelError
	LevelSuccess
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   LogLevel
}

// logSink collects manager events from listener goroutines. The model polls
// it on each tick; it must be shared by pointer because Bubble Tea models
// are passed by value.
type logSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (s *logSink) add(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > 10 {
		s.entries = s.entries[len(s.entries)-10:]
	}
}

func (s *logSink) snapshot() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.entries...)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	packages  []string
	sources   int
	err       error

	// Load context
	ctx    context.Context
	cancel context.CancelFunc

	// Catalog manager reference
	manager *manager.Manager
	sink    *logSink

	// Load progress
	totalFiles  int
	loadedFiles int
	failedFiles int

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "https://cdn.example.com/sounds.atlas.json"
	if settings.AtlasURL != "" {
		ti.SetValue(settings.AtlasURL)
	}
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		sink:      &logSink{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// AtlasDoneMsg is sent when the atlas has been fetched and installed.
	AtlasDoneMsg struct {
		Packages []string
		Sources  int
		Manager  *manager.Manager
		Err      error
	}

	// LoadStartMsg triggers the prefetch after the atlas is installed.
	LoadStartMsg struct{}

	// LoadDoneMsg is sent when every pending load has settled.
	LoadDoneMsg struct {
		Loaded int
		Failed int
		Total  int
		Err    error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateLoading || m.state == StateFetchingAtlas {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				m.state = StateFetchingAtlas
				return m, tea.Batch(m.fetchAtlas(), m.spinner.Tick)
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new catalog
				if m.manager != nil {
					m.manager.Dispose(true)
				}
				m.state = StateInput
				m.logs = nil
				m.packages = nil
				m.sources = 0
				m.err = nil
				m.loadedFiles = 0
				m.failedFiles = 0
				m.totalFiles = 0
				m.manager = nil
				m.sink = &logSink{}
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case AtlasDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.packages = msg.Packages
			m.sources = msg.Sources
			m.manager = msg.Manager
			m.state = StateLoading
			cmds = append(cmds, m.startLoads(), m.tickProgress())
		}

	case LoadDoneMsg:
		m.loadedFiles = msg.Loaded
		m.failedFiles = msg.Failed
		m.totalFiles = msg.Total
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateLoading {
			stats := m.manager.Stats()
			m.loadedFiles = stats.Loaded
			m.failedFiles = stats.Rejected
			m.totalFiles = stats.Files
			m.logs = m.sink.snapshot()

			var percent float64
			if m.totalFiles > 0 {
				percent = float64(m.loadedFiles+m.failedFiles) / float64(m.totalFiles)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("smanager"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Prefetch a sound catalog"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateFetchingAtlas:
		b.WriteString(m.viewFetchingAtlas())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter atlas URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Source path: %s", m.settings.SourcePath)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Language: %s | Extension: %s", m.settings.DefaultLanguage, m.settings.FileExtension)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewFetchingAtlas() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Fetching atlas..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewLoading() string {
	var b strings.Builder

	if len(m.packages) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Found %d package(s), %d source(s):", len(m.packages), m.sources)))
		b.WriteString("\n")
		for _, pkg := range m.packages {
			b.WriteString(packageStyle.Render(fmt.Sprintf("  # %s", pkg)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var percent float64
	if m.totalFiles > 0 {
		percent = float64(m.loadedFiles+m.failedFiles) / float64(m.totalFiles)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Files: %d/%d | Failed: %d",
		m.loadedFiles,
		m.totalFiles,
		m.failedFiles,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"Prefetch complete\n\n"+
			"Packages: %d\n"+
			"Files loaded: %d/%d\n"+
			"Failed: %d",
		len(m.packages),
		m.loadedFiles,
		m.totalFiles,
		m.failedFiles,
	))
	b.WriteString(box)

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case LevelError:
			style = errorStyle
			prefix = "x"
		case LevelSuccess:
			style = successStyle
			prefix = "+"
		case LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • esc: quit"
	case StateFetchingAtlas, StateLoading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new catalog • q: quit"
	}
	return ""
}

// fetchAtlas installs the atlas and wires manager events into the log sink.
func (m *Model) fetchAtlas() tea.Cmd {
	url := m.textInput.Value()
	sink := m.sink
	ctx := m.ctx
	settings := m.settings

	return func() tea.Msg {
		mgr := manager.New(manager.Options{Settings: settings})
		mgr.Subscribe(manager.EventFileLoaded, func(ev manager.Event) {
			sink.add(LogEntry{Message: "loaded " + ev.Detail, Level: LevelSuccess})
		})
		mgr.Subscribe(manager.EventFileLoadError, func(ev manager.Event) {
			sink.add(LogEntry{Message: "failed " + ev.Detail, Level: LevelError})
		})

		if err := mgr.LoadAtlas(ctx, url); err != nil {
			return AtlasDoneMsg{Err: err}
		}

		return AtlasDoneMsg{
			Packages: mgr.ActivePackages(),
			Sources:  len(mgr.SourceNames()),
			Manager:  mgr,
		}
	}
}

// startLoads prefetches every file in the catalog in background.
func (m *Model) startLoads() tea.Cmd {
	mgr := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if mgr == nil {
			return LoadDoneMsg{Err: fmt.Errorf("no manager")}
		}

		err := mgr.LoadEverything(ctx)
		stats := mgr.Stats()

		return LoadDoneMsg{
			Loaded: stats.Loaded,
			Failed: stats.Rejected,
			Total:  stats.Files,
			Err:    err,
		}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
