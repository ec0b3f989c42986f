package matcher

import (
	"sort"
	"strings"

	"github.com/evyataryagoni/addresslookup/internal/models"
)

// Fuzzy rank tiers, lower sorts first
const (
	RankExact    = 0
	RankPrefix   = 1
	RankContains = 2
)

// Rank classifies a full address against a trimmed query, ignoring case
func Rank(fullAddress, query string) int {
	addr := strings.ToLower(fullAddress)
	q := strings.ToLower(query)
	switch {
	case addr == q:
		return RankExact
	case strings.HasPrefix(addr, q):
		return RankPrefix
	default:
		return RankContains
	}
}

// Contains reports whether the full address contains the query, ignoring case
func Contains(fullAddress, query string) bool {
	return strings.Contains(strings.ToLower(fullAddress), strings.ToLower(query))
}

// SortByRank orders records by rank, then by raw full address.
// The sort is stable so records with identical addresses keep store order.
func SortByRank(records []models.AddressRecord, query string) {
	ranks := make(map[string]int, len(records))
	for _, r := range records {
		if _, ok := ranks[r.FullAddress]; !ok {
			ranks[r.FullAddress] = Rank(r.FullAddress, query)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := ranks[records[i].FullAddress], ranks[records[j].FullAddress]
		if ri != rj {
			return ri < rj
		}
		return records[i].FullAddress < records[j].FullAddress
	})
}

// Truncate caps records at limit
func Truncate(records []models.AddressRecord, limit int) []models.AddressRecord {
	if limit >= 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
