package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PayloadKind tags the variant held by an ErrorPayload.
type PayloadKind int

const (
	// PayloadNone means the failure carried no body at all.
	PayloadNone PayloadKind = iota
	// PayloadStructured holds a decoded JSON object.
	PayloadStructured
	// PayloadText holds an unstructured message.
	PayloadText
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadStructured:
		return "structured"
	case PayloadText:
		return "text"
	default:
		return "none"
	}
}

// ErrorPayload is the error body attached to a failed submission. Exactly one
// of Structured or Text is meaningful, selected by Kind.
type ErrorPayload struct {
	Kind       PayloadKind
	Structured map[string]any
	Text       string
}

// NoPayload returns the empty variant.
func NoPayload() ErrorPayload {
	return ErrorPayload{Kind: PayloadNone}
}

// StructuredPayload wraps a decoded JSON object.
func StructuredPayload(data map[string]any) ErrorPayload {
	if data == nil {
		return NoPayload()
	}
	return ErrorPayload{Kind: PayloadStructured, Structured: data}
}

// TextPayload wraps a plain message. Empty text collapses to NoPayload.
func TextPayload(text string) ErrorPayload {
	if text == "" {
		return NoPayload()
	}
	return ErrorPayload{Kind: PayloadText, Text: text}
}

// IsEmpty reports whether the payload carries nothing to show.
func (p ErrorPayload) IsEmpty() bool {
	return p.Kind == PayloadNone
}

// DecodePayload classifies a raw response body: JSON objects become
// structured payloads, JSON strings are unquoted, anything else is kept as
// text. Blank bodies yield NoPayload.
func DecodePayload(body []byte) ErrorPayload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return NoPayload()
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			return StructuredPayload(obj)
		}
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return TextPayload(strings.TrimSpace(text))
		}
	}
	return TextPayload(string(trimmed))
}
