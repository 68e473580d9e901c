// Package resources embeds the site's static assets.
package resources

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed assets/css/*.css
var embedded embed.FS

// Assets is the embedded tree rooted at assets/, e.g. "css/site.css".
func Assets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic("resources: " + err.Error())
	}
	return sub
}

// AssetsHandler serves Assets under prefix with an hour of public caching.
// Directory paths are not listed.
func AssetsHandler(prefix string) http.Handler {
	files := http.FileServer(http.FS(Assets()))
	serve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
	return http.StripPrefix(strings.TrimSuffix(prefix, "/"), serve)
}
