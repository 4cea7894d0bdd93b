package handler

import (
	"io"
	"net/http"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/go-faster/errors"
)

// Docs renders the API reference page from the OpenAPI document api.yaml in
// specDir. The page is rendered once; a missing or invalid document is an
// error here rather than on every request.
func Docs(specDir, title string) (http.HandlerFunc, error) {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir(specDir),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle(title),
		),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "render api reference from %s", specDir)
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, html)
	}, nil
}
