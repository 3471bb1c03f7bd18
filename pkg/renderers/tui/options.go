package tui

import (
	"io"

	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/openapi"
)

// Theme captures optional formatting hints the driver can apply when printing
// messages. Keep minimal to avoid coupling session logic to ANSI specifics.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the TUI session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutput redirects the default driver's informational output.
func WithOutput(out io.Writer) Option {
	return func(s *Session) {
		s.out = out
	}
}

// WithSchema attaches field descriptions used as prompt help.
func WithSchema(schema *openapi.FormSchema) Option {
	return func(s *Session) {
		s.schema = schema
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithSinglePass stops after the first completed submission instead of
// offering to generate another book.
func WithSinglePass() Option {
	return func(s *Session) {
		s.singlePass = true
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
