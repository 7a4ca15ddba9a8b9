package search

import (
	"sort"
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
)

// MetricSetQuery narrows and orders the metric set list
type MetricSetQuery struct {
	Domain        string                 `query:"domain"`
	Query         string                 `query:"q"`
	TagIDs        []string               `query:"tag"`
	SortField     catalog.TimestampField `query:"sort"`
	SortDirection SortDirection          `query:"direction"`
}

// Validate rejects unknown sort options
func (q *MetricSetQuery) Validate() error {
	switch q.SortField {
	case "", catalog.TimestampCreated, catalog.TimestampUpdated:
	default:
		return catalog.NewFieldValidationError(catalog.ReasonInvalidValue, "sort")
	}

	return validateDirection(q.SortDirection)
}

// FilterMetricSets matches sets by domain, name keyword and tags, newest
// update first unless asked otherwise
func FilterMetricSets(sets []catalog.MetricSet, q MetricSetQuery) []catalog.MetricSet {
	if q.SortField == "" {
		q.SortField = catalog.TimestampUpdated
	}

	if q.SortDirection == "" {
		q.SortDirection = SortDesc
	}

	keyword := strings.ToLower(strings.TrimSpace(q.Query))
	result := make([]catalog.MetricSet, 0, len(sets))

	for i := range sets {
		s := &sets[i]

		if active(q.Domain) && s.Domain != q.Domain {
			continue
		}

		if keyword != "" && !strings.Contains(strings.ToLower(s.Name), keyword) {
			continue
		}

		if len(q.TagIDs) > 0 && !hasAnyTag(s.Tags, q.TagIDs) {
			continue
		}

		result = append(result, *s)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a := catalog.MetricSetTimestamp(&result[i], q.SortField)
		b := catalog.MetricSetTimestamp(&result[j], q.SortField)

		if q.SortDirection == SortAsc {
			return a < b
		}

		return b < a
	})

	return result
}

// DimensionsForDomain keeps dimensions owned by or scoped to the domain. An
// empty domain keeps everything.
func DimensionsForDomain(dimensions []catalog.Dimension, domain string) []catalog.Dimension {
	if !active(domain) {
		return dimensions
	}

	out := make([]catalog.Dimension, 0, len(dimensions))

	for i := range dimensions {
		if dimensions[i].AppliesTo(domain) {
			out = append(out, dimensions[i])
		}
	}

	return out
}

// DimensionSlugs returns the slugs of the dimensions as a set
func DimensionSlugs(dimensions []catalog.Dimension) map[string]struct{} {
	out := make(map[string]struct{}, len(dimensions))
	for i := range dimensions {
		out[dimensions[i].Slug] = struct{}{}
	}

	return out
}

// UniqueDomains drops repeated domain ids, keeping the first occurrence
func UniqueDomains(domains []catalog.Domain) []catalog.Domain {
	seen := make(map[string]struct{}, len(domains))
	out := make([]catalog.Domain, 0, len(domains))

	for i := range domains {
		if _, ok := seen[domains[i].ID]; ok {
			continue
		}

		seen[domains[i].ID] = struct{}{}
		out = append(out, domains[i])
	}

	return out
}

// PermittedDomains keeps the unique domains the user may browse
func PermittedDomains(domains []catalog.Domain) []catalog.Domain {
	unique := UniqueDomains(domains)
	out := make([]catalog.Domain, 0, len(unique))

	for i := range unique {
		if unique[i].IsPermitted() {
			out = append(out, unique[i])
		}
	}

	return out
}

// DefaultDomain picks the first permitted domain, then the first domain at all
func DefaultDomain(domains []catalog.Domain) string {
	if permitted := PermittedDomains(domains); len(permitted) > 0 {
		return permitted[0].ID
	}

	if unique := UniqueDomains(domains); len(unique) > 0 {
		return unique[0].ID
	}

	return ""
}

// Stats are the headline counts of the catalog
type Stats struct {
	Metrics       int `json:"metrics"`
	ActiveMetrics int `json:"activeMetrics"`
	DraftMetrics  int `json:"draftMetrics"`
	Dimensions    int `json:"dimensions"`
	MetricSets    int `json:"metricSets"`
	Domains       int `json:"domains"`
}

// HomeStats counts the catalog's entities
func HomeStats(state *catalog.DataState) Stats {
	stats := Stats{
		Metrics:    len(state.Metrics),
		Dimensions: len(state.Dimensions),
		MetricSets: len(state.MetricSets),
		Domains:    len(UniqueDomains(state.Domains)),
	}

	for i := range state.Metrics {
		switch state.Metrics[i].Status {
		case catalog.StatusActive:
			stats.ActiveMetrics++
		case catalog.StatusDraft:
			stats.DraftMetrics++
		}
	}

	return stats
}
