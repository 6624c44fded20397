// Package web embeds the browser client: a list of users and a form that
// creates or edits one, re-fetching the list after every change.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// Handler serves the embedded client files.
func Handler() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// static is compiled in; a failure here is a build defect.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
