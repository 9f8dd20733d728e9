package dashboard

import "io"

// Renderer describes the template renderer contract needed by the controller.
// The rendered page is returned and also written to out when given.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}
