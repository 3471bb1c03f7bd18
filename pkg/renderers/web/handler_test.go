package web

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-bookform/pkg/client"
	"github.com/goliatone/go-bookform/pkg/controller"
	"github.com/goliatone/go-bookform/pkg/model"
	"github.com/goliatone/go-bookform/pkg/openapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingGenerator struct {
	calls []model.FormState
	data  []byte
	err   error
}

func (g *recordingGenerator) Generate(_ context.Context, state model.FormState) ([]byte, error) {
	g.calls = append(g.calls, state)
	return g.data, g.err
}

func newTestRouter(t *testing.T, options ...Option) *gin.Engine {
	t.Helper()
	h, err := New(options...)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return NewRouter(h, nil)
}

func postForm(router http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIndex_RendersLocalizedForm(t *testing.T) {
	router := newTestRouter(t, WithGenerator(&recordingGenerator{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`name="title"`,
		`name="author"`,
		`<textarea name="text"`,
		" required",
		"--bookform-brand: #2f5d9e;",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/?lang=ru", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "Сгенерировать") {
		t.Fatalf("expected russian submit label:\n%s", rec.Body.String())
	}
}

func TestSubmit_StreamsAttachment(t *testing.T) {
	gen := &recordingGenerator{data: []byte("%PDF-1.4 fake")}
	router := newTestRouter(t, WithGenerator(gen))

	rec := postForm(router, url.Values{
		"title":  {"Foo"},
		"author": {"Bar"},
		"text":   {"Once upon a time"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="generated_book.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "%PDF-1.4 fake" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	want := []model.FormState{{Title: "Foo", Author: "Bar", Text: "Once upon a time"}}
	if diff := cmp.Diff(want, gen.calls); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_EmptyTextRerendersWithoutRequest(t *testing.T) {
	gen := &recordingGenerator{data: []byte("%PDF")}
	router := newTestRouter(t, WithGenerator(gen))

	rec := postForm(router, url.Values{"title": {"Foo"}, "author": {"Bar"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("expected no request, got %d", len(gen.calls))
	}
	body := rec.Body.String()
	if !strings.Contains(body, `value="Foo"`) {
		t.Fatalf("expected title to be kept:\n%s", body)
	}
}

func TestSubmit_FailureShowsSanitizedPayload(t *testing.T) {
	gen := &recordingGenerator{err: &client.RequestError{
		StatusCode: http.StatusBadRequest,
		Payload: model.StructuredPayload(map[string]any{
			"detail": "<script>alert(1)</script>bad request",
		}),
	}}
	router := newTestRouter(t, WithGenerator(gen))

	rec := postForm(router, url.Values{"title": {"Foo"}, "text": {"Once"}})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert") {
		t.Fatalf("payload markup leaked into page:\n%s", body)
	}
	if !strings.Contains(body, "bad request") {
		t.Fatalf("expected payload text in page:\n%s", body)
	}
	if !strings.Contains(body, "role=\"alert\"") {
		t.Fatalf("expected error block:\n%s", body)
	}
	if !strings.Contains(body, `value="Foo"`) || !strings.Contains(body, ">Once</textarea>") {
		t.Fatalf("expected entered values to be kept:\n%s", body)
	}
}

func TestSubmit_SchemaViolation(t *testing.T) {
	schema, err := openapi.LoadBooksSchema(context.Background())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	gen := &recordingGenerator{data: []byte("%PDF")}
	router := newTestRouter(t, WithGenerator(gen), WithSchema(schema))

	rec := postForm(router, url.Values{"title": {strings.Repeat("x", 300)}, "text": {"Once"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("expected no request, got %d", len(gen.calls))
	}
	if !strings.Contains(rec.Body.String(), `maxlength="255"`) {
		t.Fatalf("expected maxlength hint from schema:\n%s", rec.Body.String())
	}
}

func TestSubmit_UsesRequestedLocaleForFallback(t *testing.T) {
	gen := &recordingGenerator{err: &client.RequestError{Payload: model.NoPayload()}}
	router := newTestRouter(t, WithGenerator(controller.GeneratorFunc(gen.Generate)))

	rec := postForm(router, url.Values{"text": {"Once"}, "lang": {"ru"}})

	if !strings.Contains(rec.Body.String(), "Произошла ошибка при отправке данных") {
		t.Fatalf("expected russian fallback:\n%s", rec.Body.String())
	}
}

type stubSelector struct {
	calls [][2]string
}

func (s *stubSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, [2]string{name, variant})
	manifest := DefaultTheme()
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

func TestThemeSelector_VariantTokensOverrideBase(t *testing.T) {
	selector := &stubSelector{}
	router := newTestRouter(t, WithGenerator(&recordingGenerator{}), WithThemeSelector(selector, "bookform", "dark"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if diff := cmp.Diff([][2]string{{"bookform", "dark"}}, selector.calls); diff != "" {
		t.Fatalf("selector calls mismatch (-want +got):\n%s", diff)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "--bookform-background: #16161a;") {
		t.Fatalf("expected dark background token:\n%s", body)
	}
	if !strings.Contains(body, `data-variant="dark"`) {
		t.Fatalf("expected variant marker:\n%s", body)
	}
}

func TestStaticSelector_RejectsUnknownVariant(t *testing.T) {
	sel := staticSelector{manifest: DefaultTheme()}
	if _, err := sel.Select("bookform", "sepia"); err == nil {
		t.Fatal("expected unknown variant error")
	}
	got, err := sel.Select("", "")
	if err != nil {
		t.Fatalf("select default: %v", err)
	}
	if got.Theme != "bookform" {
		t.Fatalf("unexpected theme %q", got.Theme)
	}
}

func TestSanitizeErrorBody(t *testing.T) {
	if got := sanitizeErrorBody("  "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	for _, raw := range []string{"<b>oops</b>", "a<b and c>d", `{"error": "<Response [429]>"}`} {
		got := sanitizeErrorBody(raw)
		if strings.ContainsAny(got, "<>") {
			t.Fatalf("markup survived in %q", got)
		}
		if back := html.UnescapeString(got); back != raw {
			t.Fatalf("text not preserved: want %q, got %q", raw, back)
		}
	}
}

func preBlock(t *testing.T, page string) string {
	t.Helper()
	start := strings.Index(page, "<pre>")
	end := strings.Index(page, "</pre>")
	if start < 0 || end < start {
		t.Fatalf("no error block in page:\n%s", page)
	}
	return page[start+len("<pre>") : end]
}

func TestSubmit_FailureShowsPayloadVerbatim(t *testing.T) {
	tests := []struct {
		name    string
		payload model.ErrorPayload
		want    string
	}{
		{
			name:    "plain text",
			payload: model.TextPayload("expected <title> element; got a<b and c>d"),
			want:    "expected <title> element; got a<b and c>d",
		},
		{
			name:    "structured",
			payload: model.StructuredPayload(map[string]any{"error": "<Response [429]>"}),
			want:    "{\n  \"error\": \"<Response [429]>\"\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &recordingGenerator{err: &client.RequestError{StatusCode: http.StatusTooManyRequests, Payload: tt.payload}}
			router := newTestRouter(t, WithGenerator(gen))

			rec := postForm(router, url.Values{"text": {"Once"}})

			if rec.Code != http.StatusBadGateway {
				t.Fatalf("expected 502, got %d", rec.Code)
			}
			block := preBlock(t, rec.Body.String())
			if strings.ContainsAny(block, "<>") {
				t.Fatalf("payload emitted as markup: %q", block)
			}
			if got := html.UnescapeString(block); got != tt.want {
				t.Fatalf("payload mismatch:\nwant %q\ngot  %q", tt.want, got)
			}
		})
	}
}

func TestSubmit_ScriptedSuccessReportsOutcomeAndResetsState(t *testing.T) {
	gen := &recordingGenerator{data: []byte("%PDF-1.4 fake")}
	router := newTestRouter(t, WithGenerator(gen))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(url.Values{
		"title":  {"Foo"},
		"author": {"Bar"},
		"text":   {"Once upon a time"},
		"lang":   {"ru"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := submitResponse{
		Status:   "success",
		Message:  "Книга успешно сгенерирована и загружается.",
		Filename: "generated_book.pdf",
		State:    model.FormState{},
		Document: []byte("%PDF-1.4 fake"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestIndex_ScriptKeepsSubmitInertUntilSettled(t *testing.T) {
	router := newTestRouter(t, WithGenerator(&recordingGenerator{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body := rec.Body.String()

	for _, want := range []string{
		`<p class="outcome-success" role="status" hidden>The book has been successfully generated and is being downloaded.</p>`,
		`headers: { "Accept": "application/json" }`,
		"if (pending) {",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
	if n := strings.Count(body, "setTimeout("); n != 1 {
		t.Fatalf("expected only the object URL cleanup timer, found %d:\n%s", n, body)
	}
}

func TestWithTemplatesAndAction(t *testing.T) {
	files := fstest.MapFS{
		"form.html": {Data: []byte(`<p>{{ translate(locale, "action.submit") }}|{{ action }}</p>`)},
	}
	router := newTestRouter(t,
		WithGenerator(&recordingGenerator{}),
		WithTemplates(files),
		WithAction("/books/"),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Body.String(); got != "<p>Generate|/books/</p>" {
		t.Fatalf("unexpected page %q", got)
	}
}
