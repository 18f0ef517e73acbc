package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/gallery/internal/gateway"
	"github.com/muurk/gallery/internal/submission"
	"github.com/muurk/gallery/internal/validation"
)

const savingDataText = "Saving your data..."

// imageInput is the index of the image path input, after the four form fields
var imageInput = len(validation.Fields)

// submitDoneMsg reports the end of a Submit command
type submitDoneMsg struct {
	seq     int
	outcome submission.Outcome
	err     error
}

// submittedMsg tells the app the form was accepted and the screen can close
type submittedMsg struct {
	notice Notice
}

// formKeyMap defines key bindings for the form screen
type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Submit, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Submit, k.Back},
	}
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// FormModel is the image detail screen with the contact form. It owns one
// submission.Controller for its lifetime.
type FormModel struct {
	seq        int
	image      gateway.ImageItem
	controller *submission.Controller
	notices    *noticeBox

	inputs  []textinput.Model
	touched []bool
	focus   int

	state  submission.State
	notice Notice

	Spinner spinner.Model
	Help    help.Model
	Keys    formKeyMap

	Width  int
	Height int
}

// NewFormModel creates the form screen for image with a fresh controller.
// attachment pre-fills the image path and may be empty.
func NewFormModel(seq int, image gateway.ImageItem, submitter submission.Submitter, attachment gateway.ImageRef) FormModel {
	box := &noticeBox{}
	ctrl := submission.NewController(submitter, attachment, box.submissionNotifier())

	placeholders := map[validation.Field]string{
		validation.FieldFirstName: "Enter first name",
		validation.FieldLastName:  "Enter last name",
		validation.FieldEmail:     "Enter email address",
		validation.FieldPhone:     "Enter phone number",
	}

	inputs := make([]textinput.Model, len(validation.Fields)+1)
	for i, f := range validation.Fields {
		ti := textinput.New()
		ti.Placeholder = placeholders[f]
		ti.CharLimit = 64
		ti.Width = 40
		inputs[i] = ti
	}
	img := textinput.New()
	img.Placeholder = "Path or URL of the image to upload"
	img.CharLimit = 1024
	img.Width = 40
	img.SetValue(string(ctrl.Image()))
	inputs[imageInput] = img

	inputs[0].Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return FormModel{
		seq:        seq,
		image:      image,
		controller: ctrl,
		notices:    box,
		inputs:     inputs,
		touched:    make([]bool, len(inputs)),
		state:      ctrl.Snapshot(),
		Spinner:    s,
		Help:       help.New(),
		Keys:       newFormKeyMap(),
	}
}

// Init starts the cursor blink
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles form screen messages
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case submitDoneMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.finishSubmit(msg)

	case spinner.TickMsg:
		if !m.state.IsSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.state.IsSubmitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.Keys.Submit):
			return m.startSubmit()
		case key.Matches(msg, m.Keys.Next):
			return m.setFocus(m.focus + 1)
		case key.Matches(msg, m.Keys.Prev):
			return m.setFocus(m.focus - 1)
		case msg.String() == "enter":
			if m.focus == len(m.inputs)-1 {
				return m.startSubmit()
			}
			return m.setFocus(m.focus + 1)
		}
	}

	var cmd tea.Cmd
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		m.touched[m.focus] = true
		m.apply(m.focus, after)
	}
	return m, cmd
}

// apply pushes an edited input into the controller
func (m *FormModel) apply(index int, value string) {
	if index == imageInput {
		m.controller.SetImage(gateway.ImageRef(value))
	} else {
		m.controller.UpdateField(validation.Fields[index], value)
	}
	m.state = m.controller.Snapshot()
}

func (m FormModel) setFocus(index int) (FormModel, tea.Cmd) {
	n := len(m.inputs)
	index = ((index % n) + n) % n
	m.inputs[m.focus].Blur()
	m.focus = index
	return m, m.inputs[m.focus].Focus()
}

func (m FormModel) startSubmit() (FormModel, tea.Cmd) {
	m.state.IsSubmitting = true
	m.notice = Notice{}

	ctrl, seq := m.controller, m.seq
	submit := func() tea.Msg {
		outcome, err := ctrl.Submit(context.Background())
		return submitDoneMsg{seq: seq, outcome: outcome, err: err}
	}
	return m, tea.Batch(submit, m.Spinner.Tick)
}

func (m FormModel) finishSubmit(msg submitDoneMsg) (FormModel, tea.Cmd) {
	m.state = m.controller.Snapshot()
	if n, ok := m.notices.drain(); ok {
		m.notice = n
	}

	switch msg.outcome {
	case submission.OutcomeSubmitted:
		for i := range m.inputs {
			m.inputs[i].SetValue("")
			m.touched[i] = false
		}
		notice := m.notice
		return m, func() tea.Msg { return submittedMsg{notice: notice} }

	case submission.OutcomeInvalid:
		// Jump to the first invalid field
		for i, f := range validation.Fields {
			if m.state.Errors.Has(f) {
				return m.setFocus(i)
			}
		}

	case submission.OutcomeMissingImage:
		return m.setFocus(imageInput)
	}

	return m, nil
}

// State returns the last controller snapshot rendered by the screen
func (m FormModel) State() submission.State {
	return m.state
}

// Notice returns the notification currently shown
func (m FormModel) Notice() Notice {
	return m.notice
}

// Focus returns the index of the focused input
func (m FormModel) Focus() int {
	return m.focus
}

// fieldMessage returns the error to render under input i. Errors stored by
// the last submit win; otherwise touched fields get a live hint.
func (m FormModel) fieldMessage(i int) (string, bool) {
	if i == imageInput {
		return "", false
	}
	f := validation.Fields[i]
	if msg, ok := m.state.Errors[f]; ok {
		return msg, true
	}
	if m.touched[i] {
		if hint := validation.ValidateField(f, m.inputs[i].Value()); hint != "" {
			return hint, false
		}
	}
	return "", false
}

// View renders the form content (without the container)
func (m FormModel) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Image Details"))
	b.WriteString("\n")

	info := fmt.Sprintf("Image #%s  %dx%d\n%s", m.image.ID, m.image.Width, m.image.Height, m.image.ImageURL)
	b.WriteString(InfoBoxStyle.Render(info))
	b.WriteString("\n\n")

	b.WriteString(RenderSubtitle("Enter Your Details"))
	b.WriteString("\n\n")

	for i, input := range m.inputs {
		label := "Image"
		if i < imageInput {
			label = validation.Fields[i].Label()
		}
		if i == m.focus {
			b.WriteString(FocusedLabelStyle.Render(label))
		} else {
			b.WriteString(LabelStyle.Render(label))
		}
		b.WriteString("  ")
		b.WriteString(input.View())
		b.WriteString("\n")

		if msg, isError := m.fieldMessage(i); msg != "" {
			if isError {
				b.WriteString(FieldErrorStyle.Render("* " + msg))
			} else {
				b.WriteString(FieldHintStyle.Render(msg))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.state.IsSubmitting {
		b.WriteString(DisabledButtonStyle.Render("Submit"))
		b.WriteString("  " + m.Spinner.View() + " " + savingDataText)
	} else {
		b.WriteString(ButtonStyle.Render("Submit"))
	}
	b.WriteString("\n")

	if n := RenderNotice(m.notice); n != "" {
		b.WriteString("\n")
		b.WriteString(n)
	}

	return b.String()
}
