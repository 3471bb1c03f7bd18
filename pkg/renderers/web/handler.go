// Package web serves the book form as an HTML page. Each POST builds its own
// controller; a generated book is streamed back as an attachment, a failure
// re-renders the form with the error block and the entered values.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/client"
	"github.com/goliatone/go-bookform/pkg/controller"
	"github.com/goliatone/go-bookform/pkg/download"
	"github.com/goliatone/go-bookform/pkg/model"
	"github.com/goliatone/go-bookform/pkg/openapi"
	"github.com/goliatone/go-bookform/pkg/render"
)

// Handler serves GET and POST on the form route.
type Handler struct {
	generator    controller.Generator
	schema       *openapi.FormSchema
	catalog      *render.Catalog
	locale       string
	selector     ThemeSelector
	themeName    string
	themeVariant string
	filename     string
	action       string
	templates    fs.FS
	pages        *pageEngine
	logger       *zap.Logger
}

type bookForm struct {
	Title  string `form:"title"`
	Author string `form:"author"`
	Text   string `form:"text"`
	Lang   string `form:"lang"`
}

func (f bookForm) state() model.FormState {
	return model.FormState{Title: f.Title, Author: f.Author, Text: f.Text}
}

// submitResponse is the JSON body of a successful script-driven submit.
// Document is base64 encoded by encoding/json.
type submitResponse struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Filename string          `json:"filename"`
	State    model.FormState `json:"state"`
	Document []byte          `json:"document"`
}

type pageView struct {
	messages    render.Messages
	state       model.FormState
	fieldErrors map[model.FieldName][]string
	formErrors  []string
	failed      bool
	errorBody   string
}

// New constructs a Handler. Without options it posts to
// client.DefaultEndpoint with the embedded catalog and default theme.
func New(options ...Option) (*Handler, error) {
	h := &Handler{
		locale:   render.DefaultLocale,
		filename: download.DefaultFilename,
		action:   "/",
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	if h.generator == nil {
		h.generator = client.New(client.WithLogger(h.logger))
	}
	if h.catalog == nil {
		catalog, err := render.DefaultCatalog()
		if err != nil {
			return nil, err
		}
		h.catalog = catalog
	}
	if h.selector == nil {
		h.selector = staticSelector{manifest: DefaultTheme()}
	}
	pages, err := newPageEngine(h.templates, render.TemplateI18nFuncs(h.catalog))
	if err != nil {
		return nil, err
	}
	h.pages = pages
	return h, nil
}

// RegisterRoutes mounts the form on r.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.index)
	r.POST("/", h.submit)
}

// NewRouter returns a gin engine with recovery, request logging and the form
// routes.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	h.RegisterRoutes(router)
	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func (h *Handler) index(c *gin.Context) {
	h.renderPage(c, http.StatusOK, pageView{messages: h.messagesFor(c.Query("lang"))})
}

func (h *Handler) submit(c *gin.Context) {
	var form bookForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderPage(c, http.StatusBadRequest, pageView{
			messages:   h.messagesFor(c.Query("lang")),
			formErrors: []string{err.Error()},
		})
		return
	}
	msgs := h.messagesFor(form.Lang)

	var document []byte
	capture := download.SaverFunc(func(_ context.Context, data []byte, _ string) error {
		document = data
		return nil
	})

	opts := []controller.Option{
		controller.WithGenerator(h.generator),
		controller.WithSaver(capture),
		controller.WithMessages(msgs),
		controller.WithFilename(h.filename),
		controller.WithLogger(h.logger),
	}
	if h.schema != nil {
		opts = append(opts, controller.WithValidator(h.schema))
	}
	ctrl := controller.New(opts...)
	ctrl.Load(form.state())

	outcome, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		h.renderRejection(c, msgs, form.state(), err)
		return
	}

	if !outcome.Succeeded() {
		mapping := render.MapErrorPayload(outcome.Payload)
		h.renderPage(c, http.StatusBadGateway, pageView{
			messages:    msgs,
			state:       ctrl.State(),
			fieldErrors: mapping.Fields,
			failed:      true,
			errorBody:   sanitizeErrorBody(render.FormatPayload(outcome.Payload)),
		})
		return
	}

	h.logger.Info("book generated", zap.String("filename", ctrl.Filename()), zap.Int("bytes", len(document)))

	// Script-driven submits get the outcome with the document inline and
	// trigger the download themselves; plain form posts get the attachment.
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, submitResponse{
			Status:   outcome.Status.String(),
			Message:  outcome.Message,
			Filename: ctrl.Filename(),
			State:    ctrl.State(),
			Document: document,
		})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ctrl.Filename()))
	c.Data(http.StatusOK, "application/pdf", document)
}

func (h *Handler) renderRejection(c *gin.Context, msgs render.Messages, state model.FormState, err error) {
	view := pageView{messages: msgs, state: state}

	var verr *openapi.ValidationError
	switch {
	case errors.Is(err, controller.ErrTextRequired):
		view.fieldErrors = map[model.FieldName][]string{
			model.FieldText: {msgs.T(render.KeyTextRequired)},
		}
	case errors.As(err, &verr):
		view.fieldErrors = verr.Fields
		view.formErrors = render.MergeFormErrors(nil, verr.Form...)
	default:
		h.logger.Error("submit rejected", zap.Error(err))
		view.formErrors = []string{msgs.T(render.KeyFailure)}
		h.renderPage(c, http.StatusInternalServerError, view)
		return
	}
	h.renderPage(c, http.StatusUnprocessableEntity, view)
}

func (h *Handler) messagesFor(lang string) render.Messages {
	locale := h.locale
	if lang != "" && h.catalog.Has(lang) {
		locale = lang
	}
	return render.NewMessages(h.catalog, locale)
}

func (h *Handler) renderPage(c *gin.Context, status int, view pageView) {
	msgs := view.messages

	selection, err := h.selector.Select(h.themeName, h.themeVariant)
	if err != nil {
		h.logger.Warn("theme selection failed", zap.Error(err))
	}
	resolved := resolveTheme(selection)

	fields := make([]map[string]any, 0, len(model.Fields()))
	for _, name := range model.Fields() {
		value, _ := view.state.Get(name)
		spec, _ := h.schema.Field(name)
		fields = append(fields, map[string]any{
			"name":        string(name),
			"value":       value,
			"placeholder": placeholderKey(name),
			"description": spec.Description,
			"maxlength":   spec.MaxLength,
			"required":    name == model.FieldText || spec.Required,
			"multiline":   name == model.FieldText,
			"errors":      view.fieldErrors[name],
		})
	}

	data := pongo2.Context{
		"locale":        msgs.Locale(),
		"action":        h.action,
		"theme_style":   resolved.cssVars(),
		"theme_name":    resolved.Name,
		"theme_variant": resolved.Variant,
		"fields":        fields,
		"form_errors":   view.formErrors,
		"failed":        view.failed,
		"error_body":    view.errorBody,
	}

	body, err := h.pages.render(formTemplate, data)
	if err != nil {
		h.logger.Error("render page", zap.Error(err))
		c.String(http.StatusInternalServerError, msgs.T(render.KeyFailure))
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}

func placeholderKey(name model.FieldName) string {
	switch name {
	case model.FieldTitle:
		return render.KeyTitlePlaceholder
	case model.FieldAuthor:
		return render.KeyAuthorPlaceholder
	default:
		return render.KeyTextPlaceholder
	}
}
