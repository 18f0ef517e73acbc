package tui

import (
	"sync"

	"github.com/muurk/gallery/internal/submission"
)

// Notice is a user-facing notification raised by a controller
type Notice struct {
	Text    string
	IsError bool
}

// noticeBox collects notifications raised while a command runs. Controllers
// call their notifier from the command goroutine, so the box is drained when
// the command's result message reaches Update.
type noticeBox struct {
	mu      sync.Mutex
	pending []Notice
}

func (b *noticeBox) galleryNotifier() func(string) {
	return func(message string) {
		b.push(Notice{Text: message, IsError: true})
	}
}

func (b *noticeBox) submissionNotifier() func(submission.NoticeKind, string) {
	return func(kind submission.NoticeKind, message string) {
		b.push(Notice{Text: message, IsError: kind == submission.NoticeError})
	}
}

func (b *noticeBox) push(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, n)
}

// drain returns the most recent pending notice and clears the box
func (b *noticeBox) drain() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return Notice{}, false
	}
	last := b.pending[len(b.pending)-1]
	b.pending = nil
	return last, true
}
