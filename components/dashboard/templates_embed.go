package dashboard

import (
	"embed"
	"io/fs"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html templates/**/*.html
var embeddedTemplates embed.FS

// DefaultTemplate is the page template rendered by the controller.
const DefaultTemplate = "dashboard"

// NewTemplateRenderer creates a go-template renderer over the embedded
// dashboard templates, or over override when one is given (for example
// os.DirFS of a checkout while editing templates).
func NewTemplateRenderer(override ...fs.FS) (Renderer, error) {
	var source fs.FS = embeddedTemplates
	if len(override) > 0 && override[0] != nil {
		source = override[0]
	}
	return template.NewRenderer(
		template.WithFS(source),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}
