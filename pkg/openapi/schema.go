package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-bookform/pkg/model"
)

// Defaults for the embedded document.
const (
	DefaultPath   = "/api/books/"
	DefaultMethod = "POST"
)

//go:embed books.openapi.json
var booksDocument []byte

// BooksDocument returns a copy of the embedded OpenAPI document.
func BooksDocument() []byte {
	return append([]byte(nil), booksDocument...)
}

// FieldSpec describes one request body property.
type FieldSpec struct {
	Name        model.FieldName
	Required    bool
	MinLength   uint64
	MaxLength   uint64
	Description string
}

// FormSchema is the request body schema of the book creation operation.
type FormSchema struct {
	OperationID string
	Path        string
	Method      string
	Fields      []FieldSpec
	schema      *openapi3.Schema
}

// ValidationError lists schema violations per field. Violations that cannot
// be attributed to a field are kept under Form.
type ValidationError struct {
	Fields map[model.FieldName][]string
	Form   []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string
	for _, name := range model.Fields() {
		for _, msg := range e.Fields[name] {
			parts = append(parts, string(name)+": "+msg)
		}
	}
	parts = append(parts, e.Form...)
	return "openapi: invalid form: " + strings.Join(parts, "; ")
}

// LoadBooksSchema parses the embedded document.
func LoadBooksSchema(ctx context.Context) (*FormSchema, error) {
	return LoadSchema(ctx, booksDocument, DefaultPath, DefaultMethod)
}

// LoadSchema parses raw and extracts the JSON request body schema of the
// operation at path/method.
func LoadSchema(ctx context.Context, raw []byte, path, method string) (*FormSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}

	item, ok := spec.Paths.Map()[path]
	if !ok || item == nil {
		return nil, fmt.Errorf("openapi: path %q not found", path)
	}
	op := item.GetOperation(strings.ToUpper(method))
	if op == nil {
		return nil, fmt.Errorf("openapi: no %s operation on %q", method, path)
	}

	schema, err := requestSchema(op.RequestBody)
	if err != nil {
		return nil, fmt.Errorf("openapi: %s %s: %w", method, path, err)
	}

	form := &FormSchema{
		OperationID: op.OperationID,
		Path:        path,
		Method:      strings.ToUpper(method),
		schema:      schema,
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for _, name := range model.Fields() {
		ref, ok := schema.Properties[string(name)]
		if !ok || ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("openapi: request body lacks property %q", name)
		}
		field := FieldSpec{
			Name:        name,
			Required:    required[string(name)],
			MinLength:   ref.Value.MinLength,
			Description: ref.Value.Description,
		}
		if ref.Value.MaxLength != nil {
			field.MaxLength = *ref.Value.MaxLength
		}
		form.Fields = append(form.Fields, field)
	}
	return form, nil
}

func requestSchema(body *openapi3.RequestBodyRef) (*openapi3.Schema, error) {
	if body == nil || body.Value == nil {
		return nil, errors.New("missing request body")
	}
	mt, ok := body.Value.Content["application/json"]
	if !ok || mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
		return nil, errors.New("missing application/json schema")
	}
	return mt.Schema.Value, nil
}

// Field returns the descriptor for name.
func (s *FormSchema) Field(name model.FieldName) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks state against the request body schema and returns a
// *ValidationError listing every violation.
func (s *FormSchema) Validate(state model.FormState) error {
	if s == nil || s.schema == nil {
		return nil
	}
	err := s.schema.VisitJSON(state.Values(), openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	out := &ValidationError{}
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, item := range multi {
			out.add(item)
		}
	} else {
		out.add(err)
	}
	for name := range out.Fields {
		sort.Strings(out.Fields[name])
	}
	return out
}

func (e *ValidationError) add(err error) {
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		e.Form = append(e.Form, err.Error())
		return
	}

	reason := schemaErr.Reason
	if reason == "" {
		reason = schemaErr.Error()
	}
	pointer := schemaErr.JSONPointer()
	if len(pointer) == 0 {
		e.Form = append(e.Form, reason)
		return
	}
	name, perr := model.ParseFieldName(pointer[0])
	if perr != nil {
		e.Form = append(e.Form, reason)
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[model.FieldName][]string)
	}
	e.Fields[name] = append(e.Fields[name], reason)
}
