package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-bookform/pkg/client"
	"github.com/goliatone/go-bookform/pkg/controller"
	"github.com/goliatone/go-bookform/pkg/download"
	"github.com/goliatone/go-bookform/pkg/model"
	"github.com/goliatone/go-bookform/pkg/openapi"
	"github.com/goliatone/go-bookform/pkg/render"
)

type stubDriver struct {
	inputs    []string
	textAreas []string
	confirms  []bool
	infos     []string
	defaults  []string
	err       error
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.defaults = append(s.defaults, cfg.Default)
	if len(s.inputs) == 0 {
		return cfg.Default, nil
	}
	v := s.inputs[0]
	s.inputs = s.inputs[1:]
	return v, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.defaults = append(s.defaults, cfg.Default)
	if len(s.textAreas) == 0 {
		return cfg.Default, nil
	}
	v := s.textAreas[0]
	s.textAreas = s.textAreas[1:]
	return v, nil
}

func (s *stubDriver) Confirm(context.Context, ConfirmConfig) (bool, error) {
	if len(s.confirms) == 0 {
		return false, nil
	}
	v := s.confirms[0]
	s.confirms = s.confirms[1:]
	return v, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

type blobs struct {
	names []string
}

func (b *blobs) SaveBlobAs(_ context.Context, _ []byte, filename string) error {
	b.names = append(b.names, filename)
	return nil
}

func TestSessionRun_SuccessSinglePass(t *testing.T) {
	var sent []model.FormState
	gen := controller.GeneratorFunc(func(_ context.Context, st model.FormState) ([]byte, error) {
		sent = append(sent, st)
		return []byte("%PDF-1.4"), nil
	})
	saved := &blobs{}
	ctrl := controller.New(controller.WithGenerator(gen), controller.WithSaver(saved))

	driver := &stubDriver{inputs: []string{"Foo", "Bar"}, textAreas: []string{"Once upon a time"}}
	session, err := New(ctrl, WithPromptDriver(driver), WithSinglePass(), WithTheme(Theme{InfoPrefix: "> ", ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	wantSent := []model.FormState{{Title: "Foo", Author: "Bar", Text: "Once upon a time"}}
	if diff := cmp.Diff(wantSent, sent); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{download.DefaultFilename}, saved.names); diff != "" {
		t.Fatalf("saved mismatch (-want +got):\n%s", diff)
	}
	msgs := render.DefaultMessages()
	wantInfos := []string{
		msgs.T(render.KeyHeading),
		"> " + msgs.T(render.KeyPending),
		"> " + msgs.T(render.KeySuccess),
	}
	if diff := cmp.Diff(wantInfos, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionRun_FailureShowsPayloadAndKeepsValues(t *testing.T) {
	calls := 0
	gen := controller.GeneratorFunc(func(context.Context, model.FormState) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, &client.RequestError{
				StatusCode: 400,
				Payload:    model.StructuredPayload(map[string]any{"detail": "bad request"}),
			}
		}
		return []byte("%PDF-1.4"), nil
	})
	ctrl := controller.New(controller.WithGenerator(gen), controller.WithSaver(&blobs{}))

	driver := &stubDriver{
		inputs:    []string{"Foo", "Bar"},
		textAreas: []string{"Once"},
		confirms:  []bool{true, false},
	}
	session, err := New(ctrl, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
	// Second round is prefilled with the values kept after the failure.
	wantDefaults := []string{"", "", "", "Foo", "Bar", "Once"}
	if diff := cmp.Diff(wantDefaults, driver.defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	msgs := render.DefaultMessages()
	wantPayload := "{\n  \"detail\": \"bad request\"\n}"
	if !contains(driver.infos, msgs.T(render.KeyErrorHeading)) || !contains(driver.infos, wantPayload) {
		t.Fatalf("expected error heading and payload in %q", driver.infos)
	}
}

func TestSessionOnce_RepromptsOnEmptyText(t *testing.T) {
	calls := 0
	gen := controller.GeneratorFunc(func(context.Context, model.FormState) ([]byte, error) {
		calls++
		return []byte("%PDF-1.4"), nil
	})
	ctrl := controller.New(controller.WithGenerator(gen), controller.WithSaver(&blobs{}))
	driver := &stubDriver{
		inputs:    []string{"T", "A", "T", "A"},
		textAreas: []string{"", "body"},
	}
	session, _ := New(ctrl, WithPromptDriver(driver))

	outcome, err := session.Once(context.Background())
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	if !outcome.Succeeded() {
		t.Fatalf("expected success, got %s", outcome.Status)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
	if !contains(driver.infos, render.DefaultMessages().T(render.KeyTextRequired)) {
		t.Fatalf("expected required message in %q", driver.infos)
	}
}

func TestSessionOnce_ReportsSchemaViolations(t *testing.T) {
	schema, err := openapi.LoadBooksSchema(context.Background())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	calls := 0
	gen := controller.GeneratorFunc(func(context.Context, model.FormState) ([]byte, error) {
		calls++
		return []byte("%PDF-1.4"), nil
	})
	ctrl := controller.New(controller.WithGenerator(gen), controller.WithSaver(&blobs{}), controller.WithValidator(schema))
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	driver := &stubDriver{
		inputs:    []string{string(long), "A", "short", "A"},
		textAreas: []string{"body", "body"},
	}
	session, _ := New(ctrl, WithPromptDriver(driver), WithSchema(schema))

	if _, err := session.Once(context.Background()); err != nil {
		t.Fatalf("once: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one request after correction, got %d", calls)
	}
	found := false
	for _, msg := range driver.infos {
		if len(msg) > len("Invalid title") && msg[:len("Invalid title")] == "Invalid title" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected title violation in %q", driver.infos)
	}
}

func TestSessionRun_PropagatesAbort(t *testing.T) {
	ctrl := controller.New(controller.WithGenerator(controller.GeneratorFunc(func(context.Context, model.FormState) ([]byte, error) {
		t.Fatal("no request expected")
		return nil, nil
	})), controller.WithSaver(&blobs{}))
	session, _ := New(ctrl, WithPromptDriver(&stubDriver{err: ErrAborted}))

	if err := session.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestNew_RequiresController(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoController) {
		t.Fatalf("expected ErrNoController, got %v", err)
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

func TestSessionOnce_LocalizesSchemaViolations(t *testing.T) {
	schema, err := openapi.LoadBooksSchema(context.Background())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	catalog, err := render.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	gen := controller.GeneratorFunc(func(context.Context, model.FormState) ([]byte, error) {
		return []byte("%PDF-1.4"), nil
	})
	ctrl := controller.New(
		controller.WithGenerator(gen),
		controller.WithSaver(&blobs{}),
		controller.WithValidator(schema),
		controller.WithMessages(render.NewMessages(catalog, "ru")),
	)
	driver := &stubDriver{
		inputs:    []string{strings.Repeat("x", 300), "A", "short", "A"},
		textAreas: []string{"body", "body"},
	}
	session, _ := New(ctrl, WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))

	if _, err := session.Once(context.Background()); err != nil {
		t.Fatalf("once: %v", err)
	}
	prefix := "! Недопустимое значение поля title: "
	found := false
	for _, msg := range driver.infos {
		if strings.HasPrefix(msg, prefix) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected localized violation with prefix %q in %q", prefix, driver.infos)
	}
}
