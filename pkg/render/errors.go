package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-bookform/pkg/model"
)

// FormatPayload renders an error payload for display. Structured payloads are
// pretty-printed JSON with two-space indentation, text is shown verbatim and
// an empty payload renders as "".
func FormatPayload(p model.ErrorPayload) string {
	switch p.Kind {
	case model.PayloadStructured:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p.Structured); err != nil {
			return fmt.Sprint(p.Structured)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	case model.PayloadText:
		return p.Text
	default:
		return ""
	}
}

// ErrorMapping splits a structured payload into field-level and form-level
// messages.
type ErrorMapping struct {
	Fields map[model.FieldName][]string
	Form   []string
}

// MapErrorPayload normalises server error payloads into messages keyed by
// form field. Django REST style bodies ({"text": ["..."]}) map onto fields;
// "error", "detail", "non_field_errors" and unknown keys become form-level
// messages so nothing is lost. Text payloads are a single form message.
func MapErrorPayload(p model.ErrorPayload) ErrorMapping {
	mapping := ErrorMapping{}

	switch p.Kind {
	case model.PayloadText:
		mapping.Form = normalizeMessages([]string{p.Text})
		return mapping
	case model.PayloadStructured:
	default:
		return mapping
	}

	keys := make([]string, 0, len(p.Structured))
	for key := range p.Structured {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := normalizeMessages(flattenMessages(p.Structured[key]))
		if len(messages) == 0 {
			continue
		}
		if isFormLevelKey(key) {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		name, err := model.ParseFieldName(key)
		if err != nil {
			for _, msg := range messages {
				mapping.Form = append(mapping.Form, key+": "+msg)
			}
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[model.FieldName][]string)
		}
		mapping.Fields[name] = append(mapping.Fields[name], messages...)
	}

	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func flattenMessages(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return []string{typed}
	case []any:
		var out []string
		for _, item := range typed {
			out = append(out, flattenMessages(item)...)
		}
		return out
	case []string:
		return typed
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var out []string
		for _, key := range keys {
			for _, msg := range flattenMessages(typed[key]) {
				out = append(out, key+": "+msg)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(typed)}
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", "error", "errors", "detail", "message", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
