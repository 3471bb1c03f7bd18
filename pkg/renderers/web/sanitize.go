package web

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	errorPolicyOnce sync.Once
	errorPolicy     *bluemonday.Policy
)

// sanitizeErrorBody turns a server-provided error payload into HTML that
// displays the payload text verbatim. Markup in the payload is shown as text,
// never interpreted.
func sanitizeErrorBody(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	errorPolicyOnce.Do(func() {
		errorPolicy = bluemonday.StrictPolicy()
	})
	return errorPolicy.Sanitize(html.EscapeString(trimmed))
}
