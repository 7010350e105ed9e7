// Package web holds the server-rendered pages of the shop.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

// Layout is the layout every page is rendered into.
const Layout = "layouts/base"

// NewEngine returns a template engine serving the embedded views.
func NewEngine() *html.Engine {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(views), ".html")
	engine.AddFunc("title", func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	})
	return engine
}
