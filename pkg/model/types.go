package model

import (
	"errors"
	"fmt"
	"strings"
)

// FieldName identifies one of the user-editable form fields.
type FieldName string

const (
	FieldTitle  FieldName = "title"
	FieldAuthor FieldName = "author"
	FieldText   FieldName = "text"
)

// ErrUnknownField is returned when a field name is not part of the form.
var ErrUnknownField = errors.New("model: unknown field")

// Fields lists the form fields in display order.
func Fields() []FieldName {
	return []FieldName{FieldTitle, FieldAuthor, FieldText}
}

// ParseFieldName resolves a raw (case-insensitive) name into a FieldName.
func ParseFieldName(raw string) (FieldName, error) {
	name := FieldName(strings.ToLower(strings.TrimSpace(raw)))
	switch name {
	case FieldTitle, FieldAuthor, FieldText:
		return name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, raw)
	}
}

// FormState is the in-memory record of the fields a user typed. The JSON
// tags match the body expected by the books endpoint.
type FormState struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Get returns the value stored under name.
func (s FormState) Get(name FieldName) (string, error) {
	switch name {
	case FieldTitle:
		return s.Title, nil
	case FieldAuthor:
		return s.Author, nil
	case FieldText:
		return s.Text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// Set overwrites the named field and leaves the others untouched.
func (s *FormState) Set(name FieldName, value string) error {
	if s == nil {
		return errors.New("model: form state is nil")
	}
	switch name {
	case FieldTitle:
		s.Title = value
	case FieldAuthor:
		s.Author = value
	case FieldText:
		s.Text = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// IsZero reports whether every field is empty.
func (s FormState) IsZero() bool {
	return s == FormState{}
}

// Values exposes the state as a map keyed by field name, the shape schema
// validators and templates consume.
func (s FormState) Values() map[string]any {
	return map[string]any{
		string(FieldTitle):  s.Title,
		string(FieldAuthor): s.Author,
		string(FieldText):   s.Text,
	}
}
