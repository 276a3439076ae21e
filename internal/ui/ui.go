package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/recommend"
	"github.com/desertthunder/moodify/internal/resolver"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DetectView ViewState = iota
	ResultView
	HistoryView
)

// HistoryStore lists past recommendations for the history view.
// Satisfied by repositories.RecommendationRepository; nil hides the view.
type HistoryStore interface {
	List(limit int) ([]*models.Recommendation, error)
}

// historyLimit caps how many past recommendations the history view loads.
const historyLimit = 50

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *recommend.Engine
	launcher     recommend.Launcher
	history      HistoryStore
	width        int
	height       int
	progressChan chan recommend.ProgressUpdate
	progress     recommend.ProgressUpdate
	result       *recommend.RunResult
	historyList  list.Model
	err          error
	help         help.Model
	keys         keyMap
}

// historyItem wraps [models.Recommendation] to implement list.Item.
type historyItem struct {
	rec *models.Recommendation
}

func (i historyItem) FilterValue() string { return i.rec.PlaylistName() }
func (i historyItem) Title() string       { return i.rec.PlaylistName() }
func (i historyItem) Description() string {
	return fmt.Sprintf("%s • felt %s • %s", i.rec.Mood(), i.rec.Emotion(), i.rec.CreatedAt().Format("Jan 2 15:04"))
}

type progressMsg recommend.ProgressUpdate

type detectCompleteMsg struct {
	result *recommend.RunResult
	err    error
}

type historyLoadedMsg struct {
	recs []*models.Recommendation
	err  error
}

type launchedMsg struct{ err error }

// NewModel creates a new TUI model with the provided dependencies.
//
// The engine should be configured in once mode with no launcher; the TUI
// opens the playlist only when the user asks for it.
func NewModel(ctx context.Context, engine *recommend.Engine, launcher recommend.Launcher, history HistoryStore) *Model {
	return &Model{
		ctx:      ctx,
		view:     DetectView,
		engine:   engine,
		launcher: launcher,
		history:  history,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the first detection session.
func (m *Model) Init() tea.Cmd {
	return m.startDetection()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.historyList.Width() == 0 {
			m.historyList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DetectView:
			return m.handleDetectKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}

	case progressMsg:
		m.progress = recommend.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case detectCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.recs))
		for i, rec := range msg.recs {
			items[i] = historyItem{rec: rec}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.historyList.Title = "Recommendation History"
		m.historyList.SetSize(m.width-4, m.height-8)
		m.view = HistoryView
		return m, nil

	case launchedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil
	}

	if m.view == HistoryView {
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DetectView:
		return m.renderDetect()
	case ResultView:
		return m.renderResult()
	case HistoryView:
		return m.renderHistory()
	default:
		return ""
	}
}

func (m *Model) handleDetectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "o", "enter":
		return m, m.openPlaylist()
	case "h":
		if m.history != nil {
			return m, m.loadHistory()
		}
	case "r":
		m.err = nil
		m.result = nil
		m.progress = recommend.ProgressUpdate{}
		m.view = DetectView
		return m, m.startDetection()
	}
	return m, nil
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultView
		return m, nil
	case "o", "enter":
		selected := m.historyList.SelectedItem()
		if item, ok := selected.(historyItem); ok && m.launcher != nil {
			url := item.rec.PlaylistURL()
			return m, func() tea.Msg { return launchedMsg{err: m.launcher.Open(url)} }
		}
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) startDetection() tea.Cmd {
	m.progressChan = make(chan recommend.ProgressUpdate, 50)

	ch := m.progressChan
	go func() {
		result, err := m.engine.Run(m.ctx, ch)
		m.result = result
		m.err = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return detectCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return detectCompleteMsg{result: m.result, err: m.err}
		}
		return progressMsg(update)
	}
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		recs, err := m.history.List(historyLimit)
		return historyLoadedMsg{recs: recs, err: err}
	}
}

func (m *Model) openPlaylist() tea.Cmd {
	playlist := m.lastPlaylist()
	if playlist == nil || m.launcher == nil {
		return nil
	}
	url := playlist.URL
	return func() tea.Msg { return launchedMsg{err: m.launcher.Open(url)} }
}

func (m *Model) lastPlaylist() *resolver.Playlist {
	if m.result == nil || len(m.result.Cycles) == 0 {
		return nil
	}
	return m.result.Cycles[len(m.result.Cycles)-1].Playlist
}

func (m *Model) renderDetect() string {
	title := styles.title.Render("Reading the room...")

	var body string
	switch m.progress.Phase {
	case recommend.PhaseSkipped:
		body = styles.warn.Render(m.progress.Message)
	case recommend.PhaseDecided, recommend.PhaseResolving:
		body = fmt.Sprintf("%s\n%s", m.windowBar(), styles.ok.Render(m.progress.Message))
	default:
		body = fmt.Sprintf("%s\n%s", m.windowBar(), m.progress.Message)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

// windowBar draws the stabilizer window fill as a fixed-width bar.
func (m *Model) windowBar() string {
	if m.progress.Size == 0 {
		return ""
	}
	filled := strings.Repeat("█", m.progress.Fill)
	empty := strings.Repeat("░", m.progress.Size-m.progress.Fill)
	return fmt.Sprintf("window [%s%s] %d/%d", filled, empty, m.progress.Fill, m.progress.Size)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Detection failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	playlist := m.lastPlaylist()
	if playlist == nil {
		return styles.warn.Render("No recommendation this session\n\nPress r to retry, q to quit")
	}

	cycle := m.result.Cycles[len(m.result.Cycles)-1]
	title := styles.ok.Render("✓ Mood detected: " + cycle.Decision.Mood.String())
	info := fmt.Sprintf(
		"\nPlaylist: %s\nCurator: %s\nTracks: %d\nMatched on: %q (score %.2f)\n%s",
		playlist.Name, playlist.Owner, playlist.TrackCount, playlist.Term, playlist.MatchScore, playlist.URL,
	)

	helpKeys := []key.Binding{m.keys.open, m.keys.restart}
	if m.history != nil {
		helpKeys = append(helpKeys, m.keys.history)
	}
	helpKeys = append(helpKeys, m.keys.quit)
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderHistory() string {
	helpKeys := []key.Binding{m.keys.open, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.historyList.View(), helpView)
}
