package bookform

import (
	"io/fs"

	"github.com/goliatone/go-bookform/pkg/renderers/web"
)

// EmbeddedTemplates exposes the built-in page templates so callers can copy
// or extend them and pass the result back through web.WithTemplates.
func EmbeddedTemplates() fs.FS {
	return web.TemplatesFS()
}
