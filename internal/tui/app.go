package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/gallery/internal/gallery"
	"github.com/muurk/gallery/internal/gateway"
	"github.com/muurk/gallery/internal/submission"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenGallery Screen = "gallery"
	ScreenForm    Screen = "form"
)

// Backend is the remote endpoint the screens talk to
type Backend interface {
	gallery.ImageFetcher
	submission.Submitter
}

// Options configures the application model
type Options struct {
	// Endpoint is shown in the header
	Endpoint string

	// Attachment pre-fills the image path on every form screen
	Attachment gateway.ImageRef
}

// AppModel is the top-level coordinator model that manages screen transitions.
// The gallery screen lives for the whole session; each visit to the form
// screen gets a fresh model and controller tagged with a new sequence number,
// so results for a closed form are ignored.
type AppModel struct {
	CurrentScreen Screen

	Gallery GalleryModel
	Form    FormModel

	backend Backend
	options Options
	nextSeq int

	Width  int
	Height int
}

// NewAppModel creates the application model starting at the gallery screen
func NewAppModel(backend Backend, options Options) AppModel {
	m := AppModel{
		CurrentScreen: ScreenGallery,
		backend:       backend,
		options:       options,
	}
	m.Gallery = NewGalleryModel(m.newSeq(), backend)
	return m
}

func (m *AppModel) newSeq() int {
	m.nextSeq++
	return m.nextSeq
}

// Init starts the gallery's first load
func (m AppModel) Init() tea.Cmd {
	return m.Gallery.Init()
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Gallery.Width, m.Gallery.Height = msg.Width, msg.Height
		m.Form.Width, m.Form.Height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	// Results are routed by type so a load finishing while the form is
	// open still lands in the gallery.
	case galleryLoadedMsg:
		m.Gallery, cmd = m.Gallery.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.Form, cmd = m.Form.Update(msg)
		return m, cmd

	// Each screen has its own spinner; a tick goes to its owner even
	// when that screen is not shown
	case spinner.TickMsg:
		switch msg.ID {
		case m.Gallery.Spinner.ID():
			m.Gallery, cmd = m.Gallery.Update(msg)
		case m.Form.Spinner.ID():
			m.Form, cmd = m.Form.Update(msg)
		}
		return m, cmd

	case openDetailMsg:
		return m.openForm(msg.image)

	case submittedMsg:
		m.Gallery.SetNotice(msg.notice)
		return m.closeForm()
	}

	switch m.CurrentScreen {
	case ScreenGallery:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.Gallery.Keys.Quit) {
			return m, tea.Quit
		}
		m.Gallery, cmd = m.Gallery.Update(msg)

	case ScreenForm:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.Form.Keys.Back) {
			return m.closeForm()
		}
		m.Form, cmd = m.Form.Update(msg)
	}

	return m, cmd
}

// openForm transitions to a new form screen for image
func (m AppModel) openForm(image gateway.ImageItem) (tea.Model, tea.Cmd) {
	m.Form = NewFormModel(m.newSeq(), image, m.backend, m.options.Attachment)
	m.Form.Width, m.Form.Height = m.Width, m.Height
	m.CurrentScreen = ScreenForm
	return m, m.Form.Init()
}

// closeForm returns to the gallery. An in-flight submission keeps running
// but its result no longer matches any screen.
func (m AppModel) closeForm() (tea.Model, tea.Cmd) {
	m.CurrentScreen = ScreenGallery
	m.Form.seq = 0
	return m, nil
}

// View renders the current screen inside the application container
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenForm:
		return RenderApplicationContainer(m.Form.View(), m.Form.Help.View(m.Form.Keys), m.options.Endpoint, m.Width, m.Height)
	default:
		return RenderApplicationContainer(m.Gallery.View(), m.Gallery.Help.View(m.Gallery.Keys), m.options.Endpoint, m.Width, m.Height)
	}
}

// Run starts the interactive program on the alternate screen
func Run(backend Backend, options Options) error {
	p := tea.NewProgram(NewAppModel(backend, options), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
