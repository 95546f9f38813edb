package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/klondike/internal/game"
	"github.com/lox/klondike/internal/settings"
)

const (
	paneLog   = 0
	paneInput = 1
)

type keyMap struct {
	Undo       key.Binding
	Clear      key.Binding
	Quit       key.Binding
	Submit     key.Binding
	SwitchPane key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Undo:       key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo")),
		Clear:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run command")),
		SwitchPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "scroll log")),
	}
}

func (k keyMap) helpLine() string {
	bindings := []key.Binding{k.Submit, k.Undo, k.Clear, k.SwitchPane, k.Quit}
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		parts[i] = fmt.Sprintf("%s %s", h.Key, h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Options configures a Model
type Options struct {
	// Settings are the loaded preferences; nil uses the defaults
	Settings *settings.Settings
	// SettingsPath is where toggles are saved; empty disables saving
	SettingsPath string
	// TestMode captures log entries for assertions
	TestMode bool
}

// Model is the Bubble Tea model for a terminal game of Klondike
type Model struct {
	session      *game.Session
	settings     *settings.Settings
	settingsPath string
	logger       *log.Logger
	formatter    *game.EventFormatter
	board        boardRenderer
	keys         keyMap

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	// State
	gameLog     []string
	status      string
	statusErr   bool
	quitting    bool
	focusedPane int

	// Dimensions
	width       int
	height      int
	initialized bool

	// Test mode
	testMode    bool
	capturedLog []string
}

// NewModel creates a model that plays session. It subscribes to the
// session's event bus to fill the game log.
func NewModel(session *game.Session, logger *log.Logger, opts Options) *Model {
	cfg := opts.Settings
	if cfg == nil {
		cfg = settings.Default()
	}

	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Command (d, u, m t3:2 f0, t5, help)"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	m := &Model{
		session:      session,
		settings:     cfg,
		settingsPath: opts.SettingsPath,
		logger:       logger.WithPrefix("tui"),
		formatter:    game.NewEventFormatter(game.FormattingOptions{}),
		board:        boardRenderer{theme: NewTheme(cfg.ResolveTheme())},
		keys:         defaultKeyMap(),
		logViewport:  vp,
		input:        ti,
		gameLog:      []string{},
		focusedPane:  paneInput,
		testMode:     opts.TestMode,
		capturedLog:  []string{},
	}

	session.SetShowHints(cfg.HintsEnabled())
	session.EventBus().Subscribe(game.EventSubscriberFunc(m.onGameEvent))
	m.AddLogEntry(fmt.Sprintf("Game %s (seed %d)", session.ID(), session.Seed()))
	return m
}

func (m *Model) onGameEvent(event game.GameEvent) {
	m.AddLogEntry(m.formatter.Format(event))
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case key.Matches(msg, m.keys.Undo):
			m.undo()
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.session.ClearSelection()
			m.setStatus("Selection cleared", false)
			return m, nil
		case key.Matches(msg, m.keys.SwitchPane):
			if m.focusedPane == paneInput {
				m.focusedPane = paneLog
				m.input.Blur()
			} else {
				m.focusedPane = paneInput
				m.input.Focus()
			}
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			if m.focusedPane == paneInput {
				line := m.input.Value()
				m.input.SetValue("")
				if cmd := m.Execute(line); cmd != nil {
					return m, cmd
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == paneInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.logViewport, cmd = m.logViewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// Execute runs one line of player input against the session. It returns a
// command for the program when the input ends the game.
func (m *Model) Execute(line string) tea.Cmd {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return nil
	}
	if err != nil {
		m.setStatus(err.Error(), true)
		return nil
	}
	m.logger.Debug("Executing command", "kind", cmd.Kind, "input", line)

	switch cmd.Kind {
	case CmdDraw:
		if !m.session.Draw() {
			m.setStatus("Nothing left to draw", true)
			return nil
		}
		m.setStatus("", false)

	case CmdRedeal:
		if !m.session.Redeal() {
			m.setStatus("Redeal needs an empty stock and cards in the waste", true)
			return nil
		}
		m.setStatus("", false)

	case CmdUndo:
		m.undo()
		return nil

	case CmdNew:
		if cmd.Seed != nil {
			m.session.NewGameWithSeed(*cmd.Seed)
		} else {
			m.session.NewGame()
		}
		m.setStatus(fmt.Sprintf("Game %s", m.session.ID()), false)

	case CmdMove:
		sel := game.Selection{Source: cmd.Source, CardIndex: m.resolveIndex(cmd.Source, cmd.CardIndex)}
		if _, ok := m.session.MoveFrom(sel, cmd.Dest); !ok {
			m.setStatus(fmt.Sprintf("Illegal move: %s -> %s", cmd.Source, cmd.Dest), true)
			return nil
		}
		m.setStatus("", false)

	case CmdSelect:
		sel := game.Selection{Source: cmd.Source, CardIndex: m.resolveIndex(cmd.Source, cmd.CardIndex)}
		if !m.session.Select(sel) {
			m.setStatus(fmt.Sprintf("Nothing to select on %s", cmd.Source), true)
			return nil
		}
		m.setStatus(fmt.Sprintf("Selected %s", cmd.Source), false)

	case CmdClick:
		outcome := m.session.Click(cmd.Source, cmd.CardIndex)
		m.setStatus(fmt.Sprintf("%s: %s", cmd.Source, outcome), false)

	case CmdClear:
		m.session.ClearSelection()
		m.setStatus("Selection cleared", false)

	case CmdHints:
		show := !m.session.ShowHints()
		if cmd.Toggle != nil {
			show = *cmd.Toggle
		}
		m.session.SetShowHints(show)
		m.settings.SetHints(show)
		m.saveSettings()
		m.setStatus(fmt.Sprintf("Hints %s", onOff(show)), false)

	case CmdTheme:
		previous := m.settings.UI.Theme
		m.settings.UI.Theme = cmd.Theme
		if err := m.settings.Validate(); err != nil {
			m.settings.UI.Theme = previous
			m.setStatus(err.Error(), true)
			return nil
		}
		m.board.theme = NewTheme(m.settings.ResolveTheme())
		m.saveSettings()
		m.setStatus(fmt.Sprintf("Theme %s", m.board.theme.Name), false)

	case CmdHelp:
		for _, line := range strings.Split(HelpText, "\n") {
			m.AddLogEntry(line)
		}

	case CmdQuit:
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	}

	if m.session.Won() {
		m.setStatus("You won! Type new to deal again.", false)
	}
	return nil
}

// resolveIndex turns the "top card" marker into a concrete tableau index
func (m *Model) resolveIndex(ref game.PileRef, idx int) int {
	if idx >= 0 || ref.Kind != game.Tableau {
		return idx
	}
	return len(m.session.State().Tableau[ref.Index]) - 1
}

func (m *Model) undo() {
	if !m.session.Undo() {
		m.setStatus("Nothing to undo", true)
		return
	}
	m.setStatus("", false)
}

func (m *Model) saveSettings() {
	if m.settingsPath == "" {
		return
	}
	if err := settings.Save(m.settingsPath, m.settings); err != nil {
		m.logger.Warn("Failed to save settings", "path", m.settingsPath, "error", err)
		m.setStatus("Could not save settings", true)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// Status returns the last status line and whether it reports an error
func (m *Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Input pane (bottom, full width)
	inputContent := m.renderInputPane()
	inputHeight := lipgloss.Height(inputContent)
	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(paneInput)).
		Width(max(m.width-2, 1))
	inputPane := inputStyle.Render(inputContent)

	// Board pane (top left)
	boardContent := m.renderBoardPane()
	boardWidth := lipgloss.Width(boardContent)
	paneHeight := max(m.height-inputHeight-4, 1)

	boardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.board.theme.BorderDim).
		Width(boardWidth).
		Height(paneHeight)
	boardPane := boardStyle.Render(boardContent)

	// Log pane (top right, fills the rest of the row)
	logWidth := max(m.width-boardWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(m.renderLogPane())
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(paneLog)).
		Width(logWidth).
		Height(paneHeight)
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, boardPane, logPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, inputPane)
}

func (m *Model) borderFor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return m.board.theme.BorderLive
	}
	return m.board.theme.BorderDim
}

func (m *Model) renderBoardPane() string {
	var content strings.Builder

	header := fmt.Sprintf(" Klondike %s ", m.session.ID())
	content.WriteString(HeaderStyle.Render(header))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Moves: %d  Hints: %s", m.session.Moves(), onOff(m.session.ShowHints()))))
	content.WriteString("\n\n")
	content.WriteString(m.RenderBoard())
	return content.String()
}

// RenderBoard draws the current position with the selection and hints
func (m *Model) RenderBoard() string {
	return m.board.Render(m.session.State(), m.session.Selection(), m.session.Hints())
}

func (m *Model) renderLogPane() string {
	lines := make([]string, len(m.gameLog))
	for i, l := range m.gameLog {
		lines[i] = m.board.theme.LogText.Render(l)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderInputPane() string {
	var content strings.Builder

	switch {
	case m.session.Won():
		content.WriteString(SuccessStyle.Render(m.status))
	case m.statusErr:
		content.WriteString(ErrorStyle.Render(m.status))
	case m.status != "":
		content.WriteString(WarningStyle.Render(m.status))
	default:
		content.WriteString(InfoStyle.Render(m.selectionLine()))
	}
	content.WriteString("\n")
	content.WriteString(m.input.View())
	content.WriteString("\n")

	if m.focusedPane == paneLog {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn page, tab to input"))
	} else {
		content.WriteString(InfoStyle.Render(m.keys.helpLine()))
	}
	return content.String()
}

func (m *Model) selectionLine() string {
	sel := m.session.Selection()
	if sel == nil {
		return "Nothing selected"
	}
	if sel.Source.Kind == game.Tableau {
		return fmt.Sprintf("Selected %s:%d", sel.Source, sel.CardIndex)
	}
	return fmt.Sprintf("Selected %s", sel.Source)
}

// AddLogEntry adds an entry to the game log
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return
	}

	m.logViewport.SetContent(m.renderLogPane())
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *Model) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// IsTestMode returns whether the model is in test mode
func (m *Model) IsTestMode() bool {
	return m.testMode
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
