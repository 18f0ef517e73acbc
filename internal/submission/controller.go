package submission

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/gallery/internal/gateway"
	"github.com/muurk/gallery/internal/logging"
	"github.com/muurk/gallery/internal/validation"
)

// Submitter is the gateway operation the controller depends on
type Submitter interface {
	SubmitUserData(ctx context.Context, payload *gateway.SubmissionPayload) (*gateway.SubmissionResult, error)
}

// NoticeKind distinguishes success notices from failures
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// String returns "success" or "error"
func (k NoticeKind) String() string {
	if k == NoticeSuccess {
		return "success"
	}
	return "error"
}

// Notifier receives user-facing notices
type Notifier func(kind NoticeKind, message string)

// Outcome reports how a Submit call ended
type Outcome int

const (
	// OutcomeInvalid means local validation failed; nothing was sent
	OutcomeInvalid Outcome = iota
	// OutcomeMissingImage means no image was selected; nothing was sent
	OutcomeMissingImage
	// OutcomeSubmitted means the endpoint accepted the submission
	OutcomeSubmitted
	// OutcomeFailed means the gateway returned an error
	OutcomeFailed
	// OutcomeBusy means another submission was already in flight
	OutcomeBusy
)

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeMissingImage:
		return "missing image"
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeFailed:
		return "failed"
	case OutcomeBusy:
		return "busy"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// State is a point-in-time copy of the form
type State struct {
	Form         validation.FormData
	Errors       validation.Errors
	Image        gateway.ImageRef
	IsSubmitting bool
}

// Controller owns the contact form for one screen visit
type Controller struct {
	submitter Submitter
	notify    Notifier

	mu           sync.Mutex
	form         validation.FormData
	errors       validation.Errors
	image        gateway.ImageRef
	isSubmitting bool
}

// NewController creates an empty form. image may be empty; notify may be nil.
func NewController(submitter Submitter, image gateway.ImageRef, notify Notifier) *Controller {
	return &Controller{
		submitter: submitter,
		notify:    notify,
		errors:    validation.Errors{},
		image:     image,
	}
}

// UpdateField overwrites one field and clears only that field's error
func (c *Controller) UpdateField(field validation.Field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.Set(field, value)
	delete(c.errors, field)
}

// SetImage selects the image that will be attached on submit
func (c *Controller) SetImage(ref gateway.ImageRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = gateway.ImageRef(strings.TrimSpace(string(ref)))
}

// Image returns the selected image reference
func (c *Controller) Image() gateway.ImageRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Form:         c.form,
		Errors:       c.errors.Clone(),
		Image:        c.image,
		IsSubmitting: c.isSubmitting,
	}
}

// Submit validates the form and, if it is valid and an image is selected,
// sends it through the gateway. A call made while a submission is in flight
// returns OutcomeBusy without doing anything.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.isSubmitting {
		c.mu.Unlock()
		return OutcomeBusy, nil
	}

	result := validation.ValidateForm(c.form)
	if !result.IsValid {
		c.errors = result.Errors
		c.mu.Unlock()
		logging.Debug("Form failed validation", zap.Int("invalid_fields", len(result.Errors)))
		return OutcomeInvalid, gateway.NewValidationError(summarize(result.Errors))
	}

	if c.image.IsZero() {
		c.mu.Unlock()
		err := gateway.NewMissingImageError()
		c.emit(NoticeError, gateway.UserMessage(err))
		return OutcomeMissingImage, err
	}

	c.isSubmitting = true
	payload := &gateway.SubmissionPayload{Form: c.form, Image: c.image}
	c.mu.Unlock()

	res, err := c.submitter.SubmitUserData(ctx, payload)

	c.mu.Lock()
	c.isSubmitting = false
	if err == nil {
		c.form = validation.FormData{}
		c.errors = validation.Errors{}
		c.image = ""
	}
	c.mu.Unlock()

	if err != nil {
		logging.Warn("Submission failed",
			zap.String("error_type", gateway.TypeOf(err).String()),
			zap.Error(err),
		)
		c.emit(NoticeError, gateway.UserMessage(err))
		return OutcomeFailed, fmt.Errorf("submission failed: %w", err)
	}

	message := gateway.DefaultSuccessMessage
	if res != nil && res.Message != "" {
		message = res.Message
	}
	logging.Info("Submission accepted", zap.String("image", string(payload.Image)))
	c.emit(NoticeSuccess, message)
	return OutcomeSubmitted, nil
}

func (c *Controller) emit(kind NoticeKind, message string) {
	if c.notify != nil {
		c.notify(kind, message)
	}
}

// summarize joins field errors in display order
func summarize(errs validation.Errors) string {
	parts := make([]string, 0, len(errs))
	for _, f := range validation.Fields {
		if msg, ok := errs[f]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}
