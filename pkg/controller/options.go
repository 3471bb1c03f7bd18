package controller

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/download"
	"github.com/goliatone/go-bookform/pkg/render"
)

// Option configures a Controller.
type Option func(*Controller)

// WithGenerator sets the endpoint collaborator.
func WithGenerator(g Generator) Option {
	return func(c *Controller) {
		if g != nil {
			c.generator = g
		}
	}
}

// WithSaver sets the download collaborator.
func WithSaver(s download.Saver) Option {
	return func(c *Controller) {
		if s != nil {
			c.saver = s
		}
	}
}

// WithValidator checks state before each submit, typically an
// *openapi.FormSchema.
func WithValidator(v Validator) Option {
	return func(c *Controller) {
		c.validator = v
	}
}

// WithMessages selects the display strings.
func WithMessages(m render.Messages) Option {
	return func(c *Controller) {
		c.messages = m
	}
}

// WithFilename overrides download.DefaultFilename.
func WithFilename(name string) Option {
	return func(c *Controller) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			c.filename = trimmed
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}
