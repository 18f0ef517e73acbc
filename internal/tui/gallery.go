package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/gallery/internal/gallery"
	"github.com/muurk/gallery/internal/gateway"
)

// Gallery screen strings
const (
	loadingImagesText = "Loading images..."
	loadMoreText      = "Press m to load more"
	loadingMoreText   = "Loading more images..."
	noMoreImagesText  = "No more images"
	emptyGalleryText  = "No images yet. Press r to refresh."
)

// galleryLoadedMsg reports the end of a LoadInitial or LoadMore command
type galleryLoadedMsg struct {
	seq    int
	status gallery.LoadStatus
	err    error
}

// openDetailMsg asks the app to open the form for an image
type openDetailMsg struct {
	image gateway.ImageItem
}

// galleryKeyMap defines key bindings for the gallery screen
type galleryKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	LoadMore key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k galleryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.LoadMore, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k galleryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.LoadMore, k.Refresh, k.Quit},
	}
}

func newGalleryKeyMap() galleryKeyMap {
	return galleryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "load more"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// GalleryModel is the paginated image list screen. It owns one
// gallery.Controller for its lifetime.
type GalleryModel struct {
	seq        int
	controller *gallery.Controller
	notices    *noticeBox

	state  gallery.State
	cursor int
	notice Notice

	Spinner spinner.Model
	Help    help.Model
	Keys    galleryKeyMap

	Width  int
	Height int
}

// NewGalleryModel creates the gallery screen with a fresh controller
func NewGalleryModel(seq int, fetcher gallery.ImageFetcher) GalleryModel {
	box := &noticeBox{}
	ctrl := gallery.NewController(fetcher, box.galleryNotifier())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return GalleryModel{
		seq:        seq,
		controller: ctrl,
		notices:    box,
		state:      gallery.State{HasMore: true, IsLoadingInitial: true},
		Spinner:    s,
		Help:       help.New(),
		Keys:       newGalleryKeyMap(),
	}
}

// Init starts the first page load
func (m GalleryModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.load(m.controller.LoadInitial))
}

// load runs fn as a command and tags the result with this screen's sequence number
func (m GalleryModel) load(fn func(context.Context) (gallery.LoadStatus, error)) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		status, err := fn(context.Background())
		return galleryLoadedMsg{seq: seq, status: status, err: err}
	}
}

// Update handles gallery screen messages
func (m GalleryModel) Update(msg tea.Msg) (GalleryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case galleryLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.state = m.controller.Snapshot()
		if n, ok := m.notices.drain(); ok {
			m.notice = n
		} else if msg.status == gallery.StatusLoaded {
			m.notice = Notice{}
		}
		if m.cursor >= len(m.state.Images) {
			m.cursor = max(len(m.state.Images)-1, 0)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.Keys.Down):
			if m.cursor < len(m.state.Images)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.Keys.Open):
			if item, ok := m.Selected(); ok {
				return m, func() tea.Msg { return openDetailMsg{image: item} }
			}
		case key.Matches(msg, m.Keys.LoadMore):
			return m.startLoad(true)
		case key.Matches(msg, m.Keys.Refresh):
			return m.startLoad(false)
		}
	}

	return m, nil
}

// startLoad marks the screen busy and dispatches a load. The controller
// still drops the call itself when a load is already in flight.
func (m GalleryModel) startLoad(more bool) (GalleryModel, tea.Cmd) {
	if m.state.IsLoading() {
		return m, nil
	}
	if more {
		if !m.state.HasMore {
			return m, nil
		}
		m.state.IsLoadingMore = true
		return m, tea.Batch(m.load(m.controller.LoadMore), m.Spinner.Tick)
	}
	m.state.IsLoadingInitial = true
	return m, tea.Batch(m.load(m.controller.LoadInitial), m.Spinner.Tick)
}

// Selected returns the image under the cursor
func (m GalleryModel) Selected() (gateway.ImageItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Images) {
		return gateway.ImageItem{}, false
	}
	return m.state.Images[m.cursor], true
}

// State returns the last controller snapshot rendered by the screen
func (m GalleryModel) State() gallery.State {
	return m.state
}

// SetNotice shows n until the next load completes
func (m *GalleryModel) SetNotice(n Notice) {
	m.notice = n
}

// View renders the gallery content (without the container)
func (m GalleryModel) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Machine Test"))
	b.WriteString("\n")

	if n := RenderNotice(m.notice); n != "" {
		b.WriteString(n)
		b.WriteString("\n")
	}

	images := m.state.Images
	if m.state.IsLoadingInitial && len(images) == 0 {
		b.WriteString(m.Spinner.View() + " " + loadingImagesText)
		return b.String()
	}
	if len(images) == 0 {
		b.WriteString(RenderSubtitle(emptyGalleryText))
		return b.String()
	}

	rows := visibleRows(m.Height, 4)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(images))

	for i := start; i < end; i++ {
		b.WriteString(renderImageRow(i, images[i], i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.state.IsLoadingMore:
		b.WriteString(m.Spinner.View() + " " + loadingMoreText)
	case m.state.IsLoadingInitial:
		b.WriteString(m.Spinner.View() + " " + loadingImagesText)
	case m.state.HasMore:
		b.WriteString(RenderSubtitle(loadMoreText))
	default:
		b.WriteString(RenderSubtitle(noMoreImagesText))
	}
	b.WriteString(RenderSubtitle(fmt.Sprintf("  (%d loaded)", len(images))))

	return b.String()
}

func renderImageRow(index int, item gateway.ImageItem, selected bool) string {
	line := fmt.Sprintf("%3d. #%-6s %4dx%-4d %s", index+1, item.ID, item.Width, item.Height, item.ImageURL)
	if selected {
		return SelectedListItemStyle.Render("→ " + line)
	}
	return ListItemStyle.Render(line)
}
