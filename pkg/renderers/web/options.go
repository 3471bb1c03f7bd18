package web

import (
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/controller"
	"github.com/goliatone/go-bookform/pkg/openapi"
	"github.com/goliatone/go-bookform/pkg/render"
)

// Option configures the Handler.
type Option func(*Handler)

// WithGenerator sets the endpoint collaborator shared by every request.
func WithGenerator(g controller.Generator) Option {
	return func(h *Handler) {
		if g != nil {
			h.generator = g
		}
	}
}

// WithSchema enables schema validation and field hints on the page.
func WithSchema(schema *openapi.FormSchema) Option {
	return func(h *Handler) {
		h.schema = schema
	}
}

// WithCatalog sets the locale catalog requests pick their messages from.
func WithCatalog(catalog *render.Catalog) Option {
	return func(h *Handler) {
		if catalog != nil {
			h.catalog = catalog
		}
	}
}

// WithLocale sets the locale used when a request does not ask for one.
func WithLocale(locale string) Option {
	return func(h *Handler) {
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			h.locale = trimmed
		}
	}
}

// WithThemeSelector resolves the page theme through selector.
func WithThemeSelector(selector ThemeSelector, name, variant string) Option {
	return func(h *Handler) {
		if selector != nil {
			h.selector = selector
		}
		h.themeName = strings.TrimSpace(name)
		h.themeVariant = strings.TrimSpace(variant)
	}
}

// WithFilename overrides the attachment name.
func WithFilename(name string) Option {
	return func(h *Handler) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			h.filename = trimmed
		}
	}
}

// WithTemplates replaces the embedded page templates. The set must provide
// form.html.
func WithTemplates(files fs.FS) Option {
	return func(h *Handler) {
		h.templates = files
	}
}

// WithAction overrides the form action URL.
func WithAction(action string) Option {
	return func(h *Handler) {
		if trimmed := strings.TrimSpace(action); trimmed != "" {
			h.action = trimmed
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}
