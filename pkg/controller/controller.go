// Package controller implements the book form controller: it owns the form
// fields, submits them to the generation endpoint, hands the returned
// document to a download collaborator, and tracks the outcome of the latest
// attempt.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/client"
	"github.com/goliatone/go-bookform/pkg/download"
	"github.com/goliatone/go-bookform/pkg/model"
	"github.com/goliatone/go-bookform/pkg/render"
)

var (
	// ErrTextRequired rejects a submit with an empty text field.
	ErrTextRequired = errors.New("controller: text is required")
	// ErrPending rejects a submit while another one is in flight.
	ErrPending = errors.New("controller: submission already in progress")
)

// Generator sends form state to the endpoint and returns the document bytes.
// Implementations report failures as errors; client.PayloadOf extracts any
// server-provided payload from them.
type Generator interface {
	Generate(ctx context.Context, state model.FormState) ([]byte, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, state model.FormState) ([]byte, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, state model.FormState) ([]byte, error) {
	return f(ctx, state)
}

// Validator checks form state before it is sent.
type Validator interface {
	Validate(state model.FormState) error
}

// Controller holds one form's state. Only one submission runs at a time;
// a second Submit while pending is rejected rather than queued.
type Controller struct {
	mu       sync.Mutex
	state    model.FormState
	outcome  model.Outcome
	inFlight bool

	generator Generator
	saver     download.Saver
	validator Validator
	messages  render.Messages
	filename  string
	logger    *zap.Logger
	now       func() time.Time
}

// New constructs a controller. Without options it posts to
// client.DefaultEndpoint, saves into the working directory and uses English
// messages.
func New(options ...Option) *Controller {
	c := &Controller{
		outcome:  model.Idle(),
		filename: download.DefaultFilename,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.generator == nil {
		c.generator = client.New(client.WithLogger(c.logger))
	}
	if c.saver == nil {
		c.saver = download.NewFileSaver(".", download.WithFileLogger(c.logger))
	}
	if c.messages.IsZero() {
		c.messages = render.DefaultMessages()
	}
	return c
}

// UpdateField overwrites the named field. No validation happens here.
func (c *Controller) UpdateField(name model.FieldName, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Set(name, value)
}

// Load replaces all fields at once.
func (c *Controller) Load(state model.FormState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// State returns a snapshot of the form fields.
func (c *Controller) State() model.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the status of the most recent submission.
func (c *Controller) Outcome() model.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Pending reports whether a submission is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Messages returns the localization the controller was built with.
func (c *Controller) Messages() render.Messages {
	return c.messages
}

// Filename reports the name downloads are saved under.
func (c *Controller) Filename() string {
	return c.filename
}

// Submit sends the current fields and saves the returned document.
//
// A non-nil error means the submit was rejected before any request was made
// (empty text, schema violation, or another submit pending) and the outcome
// is unchanged. Request and save failures are never returned: they land in
// the Failure outcome instead.
func (c *Controller) Submit(ctx context.Context) (model.Outcome, error) {
	if ctx == nil {
		return model.Outcome{}, errors.New("controller: context is required")
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return model.Outcome{}, ErrPending
	}
	snapshot := c.state
	if snapshot.Text == "" {
		c.mu.Unlock()
		return model.Outcome{}, ErrTextRequired
	}
	if c.validator != nil {
		if err := c.validator.Validate(snapshot); err != nil {
			c.mu.Unlock()
			return model.Outcome{}, err
		}
	}
	c.inFlight = true
	c.outcome = model.Pending()
	c.mu.Unlock()

	started := c.now()
	err := c.run(ctx, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		payload := client.PayloadOf(err)
		if payload.IsEmpty() {
			payload = model.TextPayload(c.messages.T(render.KeyFailure))
		}
		c.outcome = model.Failure(payload)
		c.logger.Warn("book submission failed",
			zap.Error(err),
			zap.Stringer("payload", payload.Kind),
			zap.Duration("elapsed", c.now().Sub(started)),
		)
		return c.outcome, nil
	}

	c.state = model.FormState{}
	c.outcome = model.Success(c.messages.T(render.KeySuccess))
	c.logger.Info("book submitted",
		zap.String("filename", c.filename),
		zap.Duration("elapsed", c.now().Sub(started)),
	)
	return c.outcome, nil
}

func (c *Controller) run(ctx context.Context, state model.FormState) error {
	data, err := c.generator.Generate(ctx, state)
	if err != nil {
		return err
	}
	if err := c.saver.SaveBlobAs(ctx, data, c.filename); err != nil {
		return fmt.Errorf("controller: save %s: %w", c.filename, err)
	}
	return nil
}
