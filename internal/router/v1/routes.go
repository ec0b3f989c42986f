package v1

import (
	"github.com/evyataryagoni/addresslookup/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes builds the router mounted at /v1
func SetupRoutes(h *handler.AddressHandler) chi.Router {
	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes attaches the search endpoints to r
//
//	POST /search        fuzzy match, up to 50 results
//	POST /search/exact  exact match, up to 10 results
func RegisterRoutes(r chi.Router, h *handler.AddressHandler) {
	r.Post("/search", h.Search)
	r.Post("/search/exact", h.SearchExact)
}
