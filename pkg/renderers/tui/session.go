// Package tui drives a book form controller from the terminal: it prompts
// for each field, submits, and prints the outcome.
package tui

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-bookform/pkg/controller"
	"github.com/goliatone/go-bookform/pkg/model"
	"github.com/goliatone/go-bookform/pkg/openapi"
	"github.com/goliatone/go-bookform/pkg/render"
)

// Session is one interactive terminal run over a controller.
type Session struct {
	ctrl       *controller.Controller
	driver     PromptDriver
	out        io.Writer
	schema     *openapi.FormSchema
	theme      Theme
	singlePass bool
	logger     *zap.Logger
}

// New constructs a session with the survey driver unless one is supplied.
func New(ctrl *controller.Controller, options ...Option) (*Session, error) {
	if ctrl == nil {
		return nil, ErrNoController
	}
	s := &Session{
		ctrl:   ctrl,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = newSurveyDriver(s.out)
	}
	return s, nil
}

// Run loops collect → submit → report until the user declines another round.
func (s *Session) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	msgs := s.ctrl.Messages()
	if err := s.driver.Info(ctx, msgs.T(render.KeyHeading)); err != nil {
		return err
	}

	for {
		outcome, err := s.Once(ctx)
		if err != nil {
			return err
		}
		if err := s.Report(ctx, outcome); err != nil {
			return err
		}
		if s.singlePass {
			return nil
		}
		again, err := s.driver.Confirm(ctx, ConfirmConfig{Message: msgs.T(render.KeyAgain)})
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

// Once prompts until the controller accepts a submission and returns its
// outcome. Rejections (empty text, schema violations) are shown and the
// fields prompted again with the entered values as defaults.
func (s *Session) Once(ctx context.Context) (model.Outcome, error) {
	msgs := s.ctrl.Messages()
	for {
		if err := s.Collect(ctx); err != nil {
			return model.Outcome{}, err
		}
		if err := s.driver.Info(ctx, s.theme.InfoPrefix+msgs.T(render.KeyPending)); err != nil {
			return model.Outcome{}, err
		}

		outcome, err := s.ctrl.Submit(ctx)
		if err == nil {
			return outcome, nil
		}

		var verr *openapi.ValidationError
		switch {
		case errors.Is(err, controller.ErrTextRequired):
			if ierr := s.driver.Info(ctx, s.theme.ErrorPrefix+msgs.T(render.KeyTextRequired)); ierr != nil {
				return model.Outcome{}, ierr
			}
		case errors.As(err, &verr):
			for _, name := range model.Fields() {
				for _, msg := range verr.Fields[name] {
					if ierr := s.driver.Info(ctx, s.theme.ErrorPrefix+msgs.T(render.KeyInvalidField, name, msg)); ierr != nil {
						return model.Outcome{}, ierr
					}
				}
			}
		default:
			return model.Outcome{}, err
		}
		s.logger.Debug("submission rejected", zap.Error(err))
	}
}

// Collect prompts for every field, prefilled with the current values.
func (s *Session) Collect(ctx context.Context) error {
	msgs := s.ctrl.Messages()
	current := s.ctrl.State()

	for _, name := range model.Fields() {
		value, _ := current.Get(name)
		label := msgs.T(placeholderKey(name))
		help := s.help(name)

		var (
			answer string
			err    error
		)
		if name == model.FieldText {
			required := msgs.T(render.KeyTextRequired)
			answer, err = s.driver.TextArea(ctx, TextAreaConfig{
				Message: label,
				Default: value,
				Help:    help,
				Validator: func(v string) error {
					if v == "" {
						return errors.New(required)
					}
					return nil
				},
			})
		} else {
			answer, err = s.driver.Input(ctx, InputConfig{
				Message: label,
				Default: value,
				Help:    help,
			})
		}
		if err != nil {
			return err
		}
		if err := s.ctrl.UpdateField(name, answer); err != nil {
			return err
		}
	}
	return nil
}

// Report prints the success message, or the error heading followed by the
// formatted payload.
func (s *Session) Report(ctx context.Context, outcome model.Outcome) error {
	msgs := s.ctrl.Messages()
	switch outcome.Status {
	case model.StatusSuccess:
		return s.driver.Info(ctx, s.theme.InfoPrefix+outcome.Message)
	case model.StatusFailure:
		if err := s.driver.Info(ctx, s.theme.ErrorPrefix+msgs.T(render.KeyErrorHeading)); err != nil {
			return err
		}
		body := render.FormatPayload(outcome.Payload)
		if strings.TrimSpace(body) == "" {
			return nil
		}
		return s.driver.Info(ctx, body)
	default:
		return nil
	}
}

func (s *Session) help(name model.FieldName) string {
	field, ok := s.schema.Field(name)
	if !ok {
		return ""
	}
	return field.Description
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
