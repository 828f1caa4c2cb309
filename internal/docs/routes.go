package docs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /docs/ (Swagger UI) y /docs/openapi.yaml.
// Se registran como rutas planas: un Route("/docs") montaría también /docs
// y taparía el redirect.
func RegisterRoutes(router chi.Router) {
	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	router.Get("/docs/", SwaggerUIHandler())
	router.Get("/docs/openapi.yaml", OpenAPIHandler())
}
