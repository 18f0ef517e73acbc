package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/gallery/internal/gallery"
	"github.com/muurk/gallery/internal/gateway"
	"github.com/muurk/gallery/internal/submission"
	"github.com/muurk/gallery/internal/validation"
)

// fakeBackend serves canned pages keyed by offset and records submissions
type fakeBackend struct {
	mu        sync.Mutex
	pages     map[int][]gateway.ImageItem
	fetchErr  error
	submitErr error
	message   string
	offsets   []int
	submitted []*gateway.SubmissionPayload
}

func (f *fakeBackend) FetchImages(ctx context.Context, offset int) (*gateway.ImageListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, offset)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	images := f.pages[offset]
	if images == nil {
		images = []gateway.ImageItem{}
	}
	return &gateway.ImageListPage{Images: images, Total: len(images)}, nil
}

func (f *fakeBackend) SubmitUserData(ctx context.Context, payload *gateway.SubmissionPayload) (*gateway.SubmissionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, payload)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &gateway.SubmissionResult{Success: true, Message: f.message}, nil
}

func (f *fakeBackend) submissions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func img(id string) gateway.ImageItem {
	return gateway.ImageItem{ID: id, ImageURL: "https://img.test/" + id + ".jpg", Width: 300, Height: 400}
}

// awaitMsg runs cmd (flattening batches) and returns the first message that
// drives screen state, ignoring spinner ticks and cursor blinks.
func awaitMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}

	out := make(chan tea.Msg, 32)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, bc := range batch {
					run(bc)
				}
				return
			}
			out <- msg
		}()
	}
	run(cmd)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-out:
			switch msg.(type) {
			case galleryLoadedMsg, submitDoneMsg, openDetailMsg, submittedMsg:
				return msg
			}
		case <-deadline:
			t.Fatal("timed out waiting for a screen message")
			return nil
		}
	}
}

// step feeds msg to the app and returns the updated model and command
func step(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	app, ok := updated.(AppModel)
	if !ok {
		t.Fatalf("Update returned %T, want AppModel", updated)
	}
	return app, cmd
}

// settle feeds msg and keeps resolving screen messages until none are produced
func settle(t *testing.T, m AppModel, msg tea.Msg) AppModel {
	t.Helper()
	m, cmd := step(t, m, msg)
	for cmd != nil {
		next, ok := tryAwait(cmd)
		if !ok {
			break
		}
		m, cmd = step(t, m, next)
	}
	return m
}

// tryAwait is awaitMsg without failing when only ticks are produced
func tryAwait(cmd tea.Cmd) (tea.Msg, bool) {
	out := make(chan tea.Msg, 32)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, bc := range batch {
					run(bc)
				}
				return
			}
			out <- msg
		}()
	}
	run(cmd)

	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case msg := <-out:
			switch msg.(type) {
			case galleryLoadedMsg, submitDoneMsg, openDetailMsg, submittedMsg:
				return msg, true
			}
		case <-deadline:
			return nil, false
		}
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// startedApp returns an app whose first page has been loaded
func startedApp(t *testing.T, backend *fakeBackend, opts Options) AppModel {
	t.Helper()
	m := NewAppModel(backend, opts)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = step(t, m, awaitMsg(t, m.Init()))
	return m
}

func TestApp_InitialLoad(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1"), img("2")}}}
	m := startedApp(t, backend, Options{Endpoint: "http://localhost:3001/api"})

	state := m.Gallery.State()
	if len(state.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(state.Images))
	}
	if state.IsLoading() {
		t.Error("should not be loading after the first page arrived")
	}
	if m.CurrentScreen != ScreenGallery {
		t.Errorf("screen = %s, want gallery", m.CurrentScreen)
	}

	view := m.View()
	for _, want := range []string{"https://img.test/1.jpg", "Press m to load more", "http://localhost:3001/api"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp_QuitFromGallery(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}}}
	m := startedApp(t, backend, Options{})

	_, cmd := step(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit from the gallery")
	}
}

func TestGallery_LoadMoreUntilExhausted(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{
		0: {img("1"), img("2")},
		2: {img("3")},
	}}
	m := startedApp(t, backend, Options{})

	m = settle(t, m, keyRunes("m"))
	if got := len(m.Gallery.State().Images); got != 3 {
		t.Fatalf("images after first load more = %d, want 3", got)
	}

	m = settle(t, m, keyRunes("m"))
	state := m.Gallery.State()
	if state.HasMore {
		t.Error("an empty page should end pagination")
	}
	if !strings.Contains(m.View(), noMoreImagesText) {
		t.Errorf("view should say %q", noMoreImagesText)
	}

	// No further fetches once exhausted
	_, cmd := step(t, m, keyRunes("m"))
	if cmd != nil {
		t.Error("load more after exhaustion should not dispatch a command")
	}

	want := []int{0, 2, 3}
	if len(backend.offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", backend.offsets, want)
	}
	for i := range want {
		if backend.offsets[i] != want[i] {
			t.Errorf("offsets = %v, want %v", backend.offsets, want)
			break
		}
	}
}

func TestGallery_LoadMoreWhileLoadingIsDropped(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}, 1: {img("2")}}}
	m := startedApp(t, backend, Options{})

	m, first := step(t, m, keyRunes("m"))
	if first == nil {
		t.Fatal("first load more should dispatch")
	}
	if !m.Gallery.State().IsLoadingMore {
		t.Error("screen should show loading more")
	}
	if !strings.Contains(m.View(), loadingMoreText) {
		t.Errorf("view should say %q", loadingMoreText)
	}

	m, second := step(t, m, keyRunes("m"))
	if second != nil {
		t.Error("second load more while loading should be dropped")
	}

	m, _ = step(t, m, awaitMsg(t, first))
	if got := len(m.Gallery.State().Images); got != 2 {
		t.Errorf("images = %d, want 2", got)
	}
}

func TestGallery_FailureShowsNotice(t *testing.T) {
	backend := &fakeBackend{fetchErr: errors.New("boom")}
	m := startedApp(t, backend, Options{})

	if !strings.Contains(m.View(), gallery.LoadFailedMessage) {
		t.Errorf("view should show %q", gallery.LoadFailedMessage)
	}
	if !strings.Contains(m.View(), emptyGalleryText) {
		t.Errorf("view should show the empty state")
	}

	// Retry succeeds and clears the notice
	backend.mu.Lock()
	backend.fetchErr = nil
	backend.pages = map[int][]gateway.ImageItem{0: {img("9")}}
	backend.mu.Unlock()

	m = settle(t, m, keyRunes("r"))
	if strings.Contains(m.View(), gallery.LoadFailedMessage) {
		t.Error("notice should clear after a successful retry")
	}
	if got := len(m.Gallery.State().Images); got != 1 {
		t.Errorf("images = %d, want 1", got)
	}
}

func TestGallery_StaleLoadIgnored(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}}}
	m := startedApp(t, backend, Options{})

	before := m.Gallery.State()
	m, cmd := step(t, m, galleryLoadedMsg{seq: 999, status: gallery.StatusLoaded})
	if cmd != nil {
		t.Error("stale message should not produce a command")
	}
	if len(m.Gallery.State().Images) != len(before.Images) {
		t.Error("stale message should not change the gallery")
	}
}

// openForm selects the first image and opens the form screen
func openForm(t *testing.T, m AppModel) AppModel {
	t.Helper()
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = step(t, m, awaitMsg(t, cmd))
	if m.CurrentScreen != ScreenForm {
		t.Fatalf("screen = %s, want form", m.CurrentScreen)
	}
	return m
}

// fillForm types valid values into the four fields, leaving focus on the image input
func fillForm(t *testing.T, m AppModel) AppModel {
	t.Helper()
	for _, v := range []string{"Ada", "Lovelace", "ada@example.com", "0123456789"} {
		m, _ = step(t, m, keyRunes(v))
		m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	return m
}

func TestApp_OpenFormAndBack(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("7")}}}
	m := startedApp(t, backend, Options{})

	m = openForm(t, m)
	if !strings.Contains(m.View(), "Image #7") {
		t.Error("form should describe the selected image")
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.CurrentScreen != ScreenGallery {
		t.Errorf("esc should return to the gallery, got %s", m.CurrentScreen)
	}
}

func TestForm_InvalidSubmitShowsErrors(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}}}
	m := startedApp(t, backend, Options{})
	m = openForm(t, m)

	m = settle(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	state := m.Form.State()
	if len(state.Errors) != 4 {
		t.Errorf("errors = %v, want all four fields", state.Errors)
	}
	if backend.submissions() != 0 {
		t.Error("invalid form should not reach the backend")
	}
	if !strings.Contains(m.View(), validation.MsgFirstNameTooShort) {
		t.Errorf("view should show %q", validation.MsgFirstNameTooShort)
	}

	// Typing into a field clears only that field's error
	m, _ = step(t, m, keyRunes("Ada"))
	state = m.Form.State()
	if state.Errors.Has(validation.FieldFirstName) {
		t.Error("editing first name should clear its error")
	}
	if !state.Errors.Has(validation.FieldEmail) {
		t.Error("other errors should remain")
	}
}

func TestForm_LiveHint(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}}}
	m := startedApp(t, backend, Options{})
	m = openForm(t, m)

	m, _ = step(t, m, keyRunes("A"))
	if msg, isError := m.Form.fieldMessage(0); msg != validation.MsgFirstNameTooShort || isError {
		t.Errorf("fieldMessage = %q (error %v), want hint %q", msg, isError, validation.MsgFirstNameTooShort)
	}

	m, _ = step(t, m, keyRunes("d"))
	if msg, _ := m.Form.fieldMessage(0); msg != "" {
		t.Errorf("fieldMessage = %q, want none for a valid name", msg)
	}
}

func TestForm_MissingImage(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}}}
	m := startedApp(t, backend, Options{})
	m = openForm(t, m)
	m = fillForm(t, m)

	// The image input is empty; enter on the last input submits
	m = settle(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if backend.submissions() != 0 {
		t.Error("missing image should not reach the backend")
	}
	if m.Form.Focus() != imageInput {
		t.Errorf("focus = %d, want image input", m.Form.Focus())
	}
	n := m.Form.Notice()
	if !n.IsError || n.Text != "Please select an image to upload." {
		t.Errorf("notice = %+v", n)
	}
}

func TestForm_SuccessReturnsToGallery(t *testing.T) {
	backend := &fakeBackend{
		pages:   map[int][]gateway.ImageItem{0: {img("1")}},
		message: "Saved!",
	}
	m := startedApp(t, backend, Options{Attachment: "https://img.test/upload.jpg"})
	m = openForm(t, m)
	m = fillForm(t, m)

	m = settle(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if backend.submissions() != 1 {
		t.Fatalf("submissions = %d, want 1", backend.submissions())
	}
	payload := backend.submitted[0]
	if payload.Form.FirstName != "Ada" || payload.Form.Phone != "0123456789" {
		t.Errorf("payload form = %+v", payload.Form)
	}
	if payload.Image != "https://img.test/upload.jpg" {
		t.Errorf("payload image = %q", payload.Image)
	}

	if m.CurrentScreen != ScreenGallery {
		t.Errorf("screen = %s, want gallery after success", m.CurrentScreen)
	}
	if !strings.Contains(m.View(), "Saved!") {
		t.Error("gallery should show the success message")
	}
}

func TestForm_FailureKeepsInput(t *testing.T) {
	backend := &fakeBackend{
		pages:     map[int][]gateway.ImageItem{0: {img("1")}},
		submitErr: gateway.NewStatusError(500, "savedata.php", nil),
	}
	m := startedApp(t, backend, Options{Attachment: "https://img.test/upload.jpg"})
	m = openForm(t, m)
	m = fillForm(t, m)

	m = settle(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if m.CurrentScreen != ScreenForm {
		t.Errorf("screen = %s, want form after failure", m.CurrentScreen)
	}
	state := m.Form.State()
	if state.Form.FirstName != "Ada" {
		t.Errorf("form should keep input, got %+v", state.Form)
	}
	if state.IsSubmitting {
		t.Error("IsSubmitting should be cleared")
	}
	if n := m.Form.Notice(); !n.IsError || n.Text == "" {
		t.Errorf("notice = %+v, want an error", n)
	}
}

func TestApp_LateSubmitResultIgnored(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}}}
	m := startedApp(t, backend, Options{})
	m = openForm(t, m)
	oldSeq := m.Form.seq

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, cmd := step(t, m, submitDoneMsg{seq: oldSeq, outcome: submission.OutcomeSubmitted})
	if cmd != nil {
		t.Error("late result should not produce a command")
	}
	if m.CurrentScreen != ScreenGallery {
		t.Errorf("screen = %s, want gallery", m.CurrentScreen)
	}

	// A new visit gets a new sequence number
	m = openForm(t, m)
	if m.Form.seq == oldSeq {
		t.Error("each form visit should get a fresh sequence number")
	}
}

func TestApp_GallerySpinnerKeepsTickingBehindForm(t *testing.T) {
	backend := &fakeBackend{pages: map[int][]gateway.ImageItem{0: {img("1")}}}
	m := startedApp(t, backend, Options{})

	m = openForm(t, m)

	before := m.Gallery.Spinner.View()
	m, cmd := step(t, m, m.Gallery.Spinner.Tick())
	if cmd == nil {
		t.Fatal("gallery tick was dropped while the form was open")
	}
	if m.Gallery.Spinner.View() == before {
		t.Error("gallery spinner did not advance")
	}

	// The idle form stops its own tick chain
	if _, cmd := step(t, m, m.Form.Spinner.Tick()); cmd != nil {
		t.Error("idle form spinner should not keep ticking")
	}
}
