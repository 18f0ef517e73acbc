package gallery

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/gallery/internal/gateway"
	"github.com/muurk/gallery/internal/logging"
)

// LoadFailedMessage is shown to the user when a page fetch fails
const LoadFailedMessage = "Failed to load images. Please try again."

// ImageFetcher is the gateway operation the controller depends on
type ImageFetcher interface {
	FetchImages(ctx context.Context, offset int) (*gateway.ImageListPage, error)
}

// Notifier receives user-facing failure messages
type Notifier func(message string)

// LoadStatus reports what a LoadInitial or LoadMore call did
type LoadStatus int

const (
	// StatusSkipped means the call was dropped by a guard (already loading or exhausted)
	StatusSkipped LoadStatus = iota
	// StatusLoaded means a page was fetched and applied
	StatusLoaded
	// StatusFailed means the fetch failed and state was left untouched
	StatusFailed
)

// String returns a human-readable name for the status
func (s LoadStatus) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a point-in-time copy of the controller's state
type State struct {
	Images           []gateway.ImageItem
	Offset           int
	HasMore          bool
	IsLoadingInitial bool
	IsLoadingMore    bool
}

// IsLoading reports whether any fetch is in flight
func (s State) IsLoading() bool {
	return s.IsLoadingInitial || s.IsLoadingMore
}

// Controller owns the image sequence for one gallery screen.
// The mutex guards state transitions only and is never held across a fetch.
type Controller struct {
	fetcher ImageFetcher
	notify  Notifier

	mu    sync.Mutex
	state State
	seen  map[string]struct{}
}

// NewController creates a controller. notify may be nil.
func NewController(fetcher ImageFetcher, notify Notifier) *Controller {
	return &Controller{
		fetcher: fetcher,
		notify:  notify,
		state: State{
			Images:  []gateway.ImageItem{},
			HasMore: true,
		},
		seen: make(map[string]struct{}),
	}
}

// LoadInitial fetches the first page and replaces the image list.
// It is a no-op while any load is in flight.
func (c *Controller) LoadInitial(ctx context.Context) (LoadStatus, error) {
	c.mu.Lock()
	if c.state.IsLoading() {
		c.mu.Unlock()
		return StatusSkipped, nil
	}
	c.state.IsLoadingInitial = true
	c.mu.Unlock()

	page, err := c.fetcher.FetchImages(ctx, 0)
	if err != nil {
		c.mu.Lock()
		c.state.IsLoadingInitial = false
		c.mu.Unlock()
		c.fail(0, err)
		return StatusFailed, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoadingInitial = false

	c.seen = make(map[string]struct{}, len(page.Images))
	c.state.Images = c.dedupe(make([]gateway.ImageItem, 0, len(page.Images)), page.Images)
	c.state.Offset = len(page.Images)
	c.state.HasMore = len(page.Images) > 0

	logging.Debug("Loaded initial page",
		zap.Int("received", len(page.Images)),
		zap.Int("offset", c.state.Offset),
	)
	return StatusLoaded, nil
}

// LoadMore fetches the next page and appends it. It is a no-op when the
// sequence is exhausted or a load is already in flight.
func (c *Controller) LoadMore(ctx context.Context) (LoadStatus, error) {
	c.mu.Lock()
	if !c.state.HasMore || c.state.IsLoading() {
		c.mu.Unlock()
		return StatusSkipped, nil
	}
	c.state.IsLoadingMore = true
	offset := c.state.Offset
	c.mu.Unlock()

	page, err := c.fetcher.FetchImages(ctx, offset)
	if err != nil {
		c.mu.Lock()
		c.state.IsLoadingMore = false
		c.mu.Unlock()
		c.fail(offset, err)
		return StatusFailed, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoadingMore = false

	before := len(c.state.Images)
	c.state.Images = c.dedupe(c.state.Images, page.Images)
	c.state.Offset += len(page.Images)
	c.state.HasMore = len(page.Images) > 0

	if dropped := len(page.Images) - (len(c.state.Images) - before); dropped > 0 {
		logging.Warn("Dropped duplicate images from page",
			zap.Int("offset", offset),
			zap.Int("dropped", dropped),
		)
	}
	logging.Debug("Loaded next page",
		zap.Int("received", len(page.Images)),
		zap.Int("offset", c.state.Offset),
		zap.Bool("has_more", c.state.HasMore),
	)
	return StatusLoaded, nil
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Images = append([]gateway.ImageItem(nil), c.state.Images...)
	return s
}

// dedupe appends items whose ID has not been seen. Caller holds mu.
func (c *Controller) dedupe(dst, items []gateway.ImageItem) []gateway.ImageItem {
	for _, item := range items {
		if _, ok := c.seen[item.ID]; ok {
			continue
		}
		c.seen[item.ID] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}

// fail logs and notifies. Called without mu held.
func (c *Controller) fail(offset int, err error) {
	logging.Warn("Failed to load images",
		zap.Int("offset", offset),
		zap.String("error_type", gateway.TypeOf(err).String()),
		zap.Error(err),
	)
	if c.notify != nil {
		c.notify(LoadFailedMessage)
	}
}
