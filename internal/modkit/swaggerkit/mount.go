// Package swaggerkit serves the embedded OpenAPI document and the Swagger UI
// under /api/docs
package swaggerkit

import (
	"net/http"

	phttp "likert/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DocPath is where the JSON document is served
const DocPath = "/api/docs/doc.json"

// Options controls Mount
type Options struct {
	Enabled bool
	// Mutators run in order on every served copy of the document
	Mutators []SpecMutator
}

// Mount serves the document and UI when o.Enabled
func Mount(r phttp.Router, o Options) {
	if !o.Enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get(DocPath, serveDocJSON(o.Mutators))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("likert"),
		httpSwagger.URL(DocPath),
		httpSwagger.DocExpansion("list"),
	))
}
