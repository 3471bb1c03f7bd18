// Package bookform assembles the book form controller from a handful of
// options: where to send the form, where to save the generated book, and
// which language to report in.
package bookform

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/client"
	"github.com/goliatone/go-bookform/pkg/controller"
	"github.com/goliatone/go-bookform/pkg/download"
	"github.com/goliatone/go-bookform/pkg/model"
	"github.com/goliatone/go-bookform/pkg/openapi"
	"github.com/goliatone/go-bookform/pkg/render"
)

// FormState aliases model.FormState for callers of the top-level package.
type FormState = model.FormState

// Outcome aliases model.Outcome.
type Outcome = model.Outcome

// ErrorPayload aliases model.ErrorPayload.
type ErrorPayload = model.ErrorPayload

// Settings collects what New needs to wire a controller.
type Settings struct {
	Endpoint   string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Locale     string
	Catalog    *render.Catalog
	OutputDir  string
	Filename   string
	S3         download.S3Config
	VerifyPDF  bool
	Validate   bool
	Logger     *zap.Logger
}

// Option adjusts Settings.
type Option func(*Settings)

// WithEndpoint overrides client.DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *Settings) { s.Endpoint = strings.TrimSpace(endpoint) }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Settings) { s.Timeout = d }
}

// WithUserAgent overrides the client User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Settings) { s.UserAgent = strings.TrimSpace(ua) }
}

// WithHTTPClient sets the transport used by the book client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Settings) { s.HTTPClient = c }
}

// WithLocale selects the display language.
func WithLocale(locale string) Option {
	return func(s *Settings) { s.Locale = strings.TrimSpace(locale) }
}

// WithCatalog replaces the embedded translations.
func WithCatalog(catalog *render.Catalog) Option {
	return func(s *Settings) { s.Catalog = catalog }
}

// WithOutputDir saves books into dir.
func WithOutputDir(dir string) Option {
	return func(s *Settings) { s.OutputDir = dir }
}

// WithFilename overrides download.DefaultFilename.
func WithFilename(name string) Option {
	return func(s *Settings) { s.Filename = strings.TrimSpace(name) }
}

// WithS3 uploads books to a bucket instead of a directory.
func WithS3(cfg download.S3Config) Option {
	return func(s *Settings) { s.S3 = cfg }
}

// WithVerifyPDF rejects responses that are not valid PDF documents.
func WithVerifyPDF(enabled bool) Option {
	return func(s *Settings) { s.VerifyPDF = enabled }
}

// WithSchemaValidation checks fields against the endpoint schema before
// sending.
func WithSchemaValidation(enabled bool) Option {
	return func(s *Settings) { s.Validate = enabled }
}

// WithLogger attaches a logger to every component.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Settings) { s.Logger = logger }
}

// Components is what New wires together. Front-ends that build their own
// controllers per request reuse Generator, Schema and Messages.
type Components struct {
	Controller *controller.Controller
	Generator  *client.Client
	Saver      download.Saver
	Schema     *openapi.FormSchema
	Catalog    *render.Catalog
	Messages   render.Messages
}

// New builds a controller and its collaborators.
func New(ctx context.Context, options ...Option) (*Components, error) {
	s := Settings{
		Endpoint:  client.DefaultEndpoint,
		Locale:    render.DefaultLocale,
		OutputDir: ".",
		Filename:  download.DefaultFilename,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&s)
		}
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	catalog := s.Catalog
	if catalog == nil {
		var err error
		catalog, err = render.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("bookform: %w", err)
		}
	}
	messages := render.NewMessages(catalog, s.Locale)

	clientOpts := []client.Option{
		client.WithEndpoint(s.Endpoint),
		client.WithTimeout(s.Timeout),
		client.WithLogger(s.Logger),
	}
	if s.HTTPClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(s.HTTPClient))
	}
	if s.UserAgent != "" {
		clientOpts = append(clientOpts, client.WithUserAgent(s.UserAgent))
	}
	gen := client.New(clientOpts...)

	saver, err := NewSaver(ctx, s)
	if err != nil {
		return nil, err
	}

	ctrlOpts := []controller.Option{
		controller.WithGenerator(gen),
		controller.WithSaver(saver),
		controller.WithMessages(messages),
		controller.WithFilename(s.Filename),
		controller.WithLogger(s.Logger),
	}

	var schema *openapi.FormSchema
	if s.Validate {
		schema, err = openapi.LoadBooksSchema(ctx)
		if err != nil {
			return nil, fmt.Errorf("bookform: %w", err)
		}
		ctrlOpts = append(ctrlOpts, controller.WithValidator(schema))
	}

	return &Components{
		Controller: controller.New(ctrlOpts...),
		Generator:  gen,
		Saver:      saver,
		Schema:     schema,
		Catalog:    catalog,
		Messages:   messages,
	}, nil
}

// NewSaver picks the download collaborator described by s: an S3 bucket when
// one is configured, the output directory otherwise, wrapped in PDF
// verification when requested.
func NewSaver(ctx context.Context, s Settings) (download.Saver, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var saver download.Saver
	if s.S3.Enabled() {
		s3Client, err := download.NewS3Client(ctx, s.S3)
		if err != nil {
			return nil, fmt.Errorf("bookform: %w", err)
		}
		s3Saver, err := download.NewS3Saver(s3Client, s.S3.Bucket, s.S3.Prefix, logger)
		if err != nil {
			return nil, fmt.Errorf("bookform: %w", err)
		}
		saver = s3Saver
	} else {
		dir := s.OutputDir
		if strings.TrimSpace(dir) == "" {
			dir = "."
		}
		saver = download.NewFileSaver(dir, download.WithFileLogger(logger))
	}

	if s.VerifyPDF {
		saver = download.NewVerifyingSaver(saver, logger)
	}
	return saver, nil
}

// Submit is the one-shot path: fill a controller with state and submit it.
func Submit(ctx context.Context, state FormState, options ...Option) (Outcome, error) {
	components, err := New(ctx, options...)
	if err != nil {
		return Outcome{}, err
	}
	components.Controller.Load(state)
	return components.Controller.Submit(ctx)
}
