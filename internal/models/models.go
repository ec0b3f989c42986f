package models

// MatchMode selects which retrieval algorithm runs for a query
type MatchMode string

const (
	// ModeFuzzy is substring containment with tiered ranking
	ModeFuzzy MatchMode = "fuzzy"
	// ModeExact is case-insensitive full-string equality
	ModeExact MatchMode = "exact"
)

// AddressRecord is one row of the address table
// Records are read-only snapshots; nothing in this service mutates them
type AddressRecord struct {
	FullAddress string `json:"fullAddress"` // Canonical display string
	City        string `json:"city"`        // Mailing city
	ZipCode     string `json:"zipCode"`     // ZIP code
}

// ResultSet is the ordered outcome of a single search
type ResultSet struct {
	Mode    MatchMode
	Records []AddressRecord
}

// Count returns the number of records in the result set
func (rs *ResultSet) Count() int {
	return len(rs.Records)
}

// SearchRequest is the JSON body accepted by the search endpoints
type SearchRequest struct {
	Query string `json:"query" example:"123 Main St"`
}

// SearchResponse is returned by the search endpoints on success
type SearchResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Results []AddressRecord `json:"results"`
}

// HealthStatus is the outcome of a backing-store health check
type HealthStatus struct {
	Healthy bool
	Reason  string // Captured error text when unhealthy
}

// HealthResponse is the JSON body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"` // Error message
}
