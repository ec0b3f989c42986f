package handler

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/evyataryagoni/addresslookup/internal/logger"
	"github.com/evyataryagoni/addresslookup/internal/models"
	"github.com/evyataryagoni/addresslookup/internal/service"
)

// maxBodyBytes caps the size of a search request body
const maxBodyBytes = 1 << 20

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// indexData feeds the search page template
type indexData struct {
	SearchPath      string
	ExactSearchPath string
}

// AddressHandler handles HTTP requests for address lookups
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Decode JSON request bodies
//   - Call service methods
//   - Map service errors to status codes
//   - NO matching logic (that's in the service layer)
type AddressHandler struct {
	service *service.AddressService
	logger  *logger.Logger
}

// NewAddressHandler creates a new address handler with the given service
func NewAddressHandler(svc *service.AddressService, log *logger.Logger) *AddressHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AddressHandler{
		service: svc,
		logger:  log.WithComponent("AddressHandler"),
	}
}

// Index handles GET /
// Serves the static search page
func (h *AddressHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{
		SearchPath:      "/search",
		ExactSearchPath: "/search/exact",
	}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render index page")
	}
}

// Search handles POST /search
// @Summary      Fuzzy address search
// @Description  Case-insensitive substring search. Exact matches rank first, then prefix matches, then other matches; at most 50 results
// @Tags         Address Lookup
// @Accept       json
// @Produce      json
// @Param        request  body      models.SearchRequest   true  "Address query"
// @Success      200      {object}  models.SearchResponse
// @Failure      400      {object}  models.ErrorResponse  "Empty query or invalid body"
// @Failure      429      {object}  models.ErrorResponse  "Rate limit exceeded"
// @Failure      500      {object}  models.ErrorResponse  "Search failed"
// @Router       /search [post]
func (h *AddressHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, models.ModeFuzzy)
}

// SearchExact handles POST /search/exact
// @Summary      Exact address search
// @Description  Case-insensitive full-string equality; at most 10 results
// @Tags         Address Lookup
// @Accept       json
// @Produce      json
// @Param        request  body      models.SearchRequest   true  "Address query"
// @Success      200      {object}  models.SearchResponse
// @Failure      400      {object}  models.ErrorResponse  "Empty query or invalid body"
// @Failure      429      {object}  models.ErrorResponse  "Rate limit exceeded"
// @Failure      500      {object}  models.ErrorResponse  "Search failed"
// @Router       /search/exact [post]
func (h *AddressHandler) SearchExact(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, models.ModeExact)
}

func (h *AddressHandler) search(w http.ResponseWriter, r *http.Request, mode models.MatchMode) {
	// Step 1: Decode the body
	var req models.SearchRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Step 2: Call service layer
	results, err := h.service.Search(r.Context(), mode, req.Query)
	if err != nil {
		var storageErr *service.StorageError
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			h.respondError(w, http.StatusBadRequest, "Please enter an address to search")
		case errors.As(err, &storageErr):
			h.respondError(w, http.StatusInternalServerError, "Search failed: "+storageErr.Err.Error())
		default:
			h.respondError(w, http.StatusInternalServerError, "Search failed: "+err.Error())
		}
		return
	}

	// Step 3: Return success response
	h.respondJSON(w, http.StatusOK, models.SearchResponse{
		Success: true,
		Count:   results.Count(),
		Results: results.Records,
	})
}

// Health handles GET /health
// @Summary      Health check
// @Description  Round-trips the address database
// @Tags         Health
// @Produce      json
// @Success      200  {object}  models.HealthResponse
// @Failure      500  {object}  models.HealthResponse
// @Router       /health [get]
func (h *AddressHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.service.HealthCheck(r.Context())
	if !status.Healthy {
		h.respondJSON(w, http.StatusInternalServerError, models.HealthResponse{
			Status: "unhealthy",
			Error:  status.Reason,
		})
		return
	}

	h.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}

// respondJSON writes a JSON response with the given status code
func (h *AddressHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing left but to log
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes an error response with consistent formatting
func (h *AddressHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
