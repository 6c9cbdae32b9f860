package http

import (
	"embed"
	"io/fs"
	nethttp "net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewFS embed.FS

// NewViewEngine loads the page templates compiled into the binary.
func NewViewEngine() (*html.Engine, error) {
	root, err := fs.Sub(viewFS, "views")
	if err != nil {
		return nil, err
	}
	return html.NewFileSystem(nethttp.FS(root), ".html"), nil
}
