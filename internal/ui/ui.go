package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	GenreListView
	TrackListView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.GenreEngine
	limit        int
	width        int
	height       int
	genreList    list.Model
	trackList    list.Model
	run          *tasks.ShelfRunResult
	selected     *models.GenreBucket
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reshelve"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.restart, k.quit},
	}
}

// genreItem wraps [models.GenreBucket] to implement list.Item.
type genreItem struct {
	bucket models.GenreBucket
}

func (i genreItem) FilterValue() string { return i.bucket.Genre }
func (i genreItem) Title() string {
	if i.bucket.Genre == "" {
		return "(blank)"
	}
	return i.bucket.Genre
}
func (i genreItem) Description() string {
	return fmt.Sprintf("%d tracks", len(i.bucket.Tracks))
}

// trackItem wraps [models.Track] to implement list.Item.
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	names := make([]string, len(i.track.Artists))
	for j, artist := range i.track.Artists {
		names[j] = artist.Name
	}
	desc := strings.Join(names, ", ")
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

type progressUpdateMsg tasks.ProgressUpdate

type shelfCompleteMsg struct {
	run *tasks.ShelfRunResult
	err error
}

// NewModel creates a new TUI model with the provided dependencies.
// limit bounds the saved-track fetch that seeds the shelf.
func NewModel(ctx context.Context, engine *tasks.GenreEngine, limit int) *Model {
	return &Model{
		ctx:    ctx,
		view:   LoadingView,
		engine: engine,
		limit:  limit,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init kicks off the shelving run.
func (m *Model) Init() tea.Cmd {
	return m.startShelving()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.genreList.Width() == 0 {
			m.genreList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "r":
				if m.err != nil {
					m.err = nil
					m.run = nil
					return m, m.startShelving()
				}
			}
			return m, nil
		case GenreListView:
			return m.handleGenreListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case shelfCompleteMsg:
		m.run = msg.run
		m.err = msg.err
		if m.progressChan != nil {
			m.progressChan = nil
		}
		if msg.err != nil {
			return m, nil
		}

		items := make([]list.Item, len(msg.run.Result.Buckets))
		for i, bucket := range msg.run.Result.Buckets {
			items[i] = genreItem{bucket: bucket}
		}
		m.genreList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.genreList.Title = fmt.Sprintf("Genre Shelf (%d tracks)", msg.run.TrackCount)
		m.genreList.SetSize(m.width-4, m.height-8)
		m.view = GenreListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case GenreListView:
		return m.renderGenreList()
	case TrackListView:
		return m.renderTrackList()
	default:
		return ""
	}
}

func (m *Model) handleGenreListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = LoadingView
		m.run = nil
		m.err = nil
		return m, m.startShelving()
	case "enter":
		selected := m.genreList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(genreItem); ok {
				m.openBucket(item.bucket)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.genreList, cmd = m.genreList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = GenreListView
		m.selected = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case GenreListView:
		m.genreList, cmd = m.genreList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openBucket(bucket models.GenreBucket) {
	m.selected = &bucket

	items := make([]list.Item, len(bucket.Tracks))
	for i, track := range bucket.Tracks {
		items[i] = trackItem{track: track}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)

	label := bucket.Genre
	if label == "" {
		label = "(blank)"
	}
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", label)
	m.trackList.SetSize(m.width-4, m.height-8)
	m.view = TrackListView
}

func (m *Model) startShelving() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progress := m.progressChan

	go func() {
		run, err := m.engine.Run(m.ctx, progress, m.limit, 0, 0)
		m.run = run
		m.err = err
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return shelfCompleteMsg{run: m.run, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return shelfCompleteMsg{run: m.run, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Shelving your library")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchTracks:
		phase = "Fetching saved tracks..."
	case tasks.ResolveArtists:
		phase = "Resolving artist genres..."
	case tasks.Enrich:
		phase = "Tagging tracks..."
	case tasks.Shelving:
		phase = "Sorting into shelves..."
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderGenreList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.genreList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}
