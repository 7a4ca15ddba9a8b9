// Package search filters, sorts and summarizes catalog entities for browsing
package search

import (
	"sort"
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
)

// All is the wildcard accepted by every single-value filter
const All = "all"

// HasQueryFilter restricts metrics by whether they carry a query definition
type HasQueryFilter string

// HasQuery filter values
const (
	HasQueryAll HasQueryFilter = "all"
	HasQueryYes HasQueryFilter = "yes"
	HasQueryNo  HasQueryFilter = "no"
)

// SortField selects the metric sort key
type SortField string

// Metric sort keys
const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortHeat      SortField = "heat"
	SortName      SortField = "name"
)

// SortDirection orders results
type SortDirection string

// Sort directions
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// MetricQuery narrows and orders the metric list. Zero values and "all"
// disable the corresponding filter.
type MetricQuery struct {
	Domain        string         `query:"domain"`
	Query         string         `query:"q"`
	Category      string         `query:"category"`
	BusinessOwner string         `query:"businessOwner"`
	TechOwner     string         `query:"techOwner"`
	HasQuery      HasQueryFilter `query:"hasQuery"`
	Status        catalog.Status `query:"status"`
	MetricSetID   string         `query:"metricSetId"`
	TagIDs        []string       `query:"tag"`
	SortField     SortField      `query:"sort"`
	SortDirection SortDirection  `query:"direction"`
}

// SetDefaults fills in sort order and the hasQuery wildcard
func (q *MetricQuery) SetDefaults() {
	if q.HasQuery == "" {
		q.HasQuery = HasQueryAll
	}

	if q.SortField == "" {
		q.SortField = SortUpdatedAt
	}

	if q.SortDirection == "" {
		q.SortDirection = SortDesc
	}
}

// Validate rejects unknown enum values
func (q *MetricQuery) Validate() error {
	switch q.HasQuery {
	case "", HasQueryAll, HasQueryYes, HasQueryNo:
	default:
		return catalog.NewFieldValidationError(catalog.ReasonInvalidValue, "hasQuery")
	}

	switch q.SortField {
	case "", SortCreatedAt, SortUpdatedAt, SortHeat, SortName:
	default:
		return catalog.NewFieldValidationError(catalog.ReasonInvalidValue, "sort")
	}

	return validateDirection(q.SortDirection)
}

func validateDirection(d SortDirection) error {
	switch d {
	case "", SortAsc, SortDesc:
		return nil
	default:
		return catalog.NewFieldValidationError(catalog.ReasonInvalidValue, "direction")
	}
}

func active(filter string) bool {
	return filter != "" && filter != All
}

// MatchesKeyword reports whether the lowercase keyword occurs in the metric's
// name, slug or business definition
func MatchesKeyword(m *catalog.Metric, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}

	return strings.Contains(strings.ToLower(m.BusinessName), keyword) ||
		strings.Contains(strings.ToLower(m.Slug), keyword) ||
		strings.Contains(strings.ToLower(m.BusinessDefinition), keyword)
}

// TaggedMetricSlugs returns the slugs of every metric contained in a set of
// the domain that carries one of the tags. It returns nil when no tags are
// given.
func TaggedMetricSlugs(sets []catalog.MetricSet, domain string, tagIDs []string) map[string]struct{} {
	if len(tagIDs) == 0 {
		return nil
	}

	slugs := make(map[string]struct{})

	for i := range sets {
		if active(domain) && sets[i].Domain != domain {
			continue
		}

		if !hasAnyTag(sets[i].Tags, tagIDs) {
			continue
		}

		for _, slug := range sets[i].MetricSlugs {
			slugs[slug] = struct{}{}
		}
	}

	return slugs
}

func hasAnyTag(tags, wanted []string) bool {
	for _, t := range tags {
		if catalog.ContainsString(wanted, t) {
			return true
		}
	}

	return false
}

// FilterMetrics applies q to metrics and returns the matching metrics in a
// new slice. The input is not modified.
func FilterMetrics(metrics []catalog.Metric, sets []catalog.MetricSet, q MetricQuery) []catalog.Metric {
	q.SetDefaults()

	var setSlugs []string

	if q.MetricSetID != "" {
		for i := range sets {
			if sets[i].ID == q.MetricSetID {
				setSlugs = sets[i].MetricSlugs
				break
			}
		}

		if setSlugs == nil {
			return []catalog.Metric{}
		}
	}

	tagged := TaggedMetricSlugs(sets, q.Domain, q.TagIDs)
	result := make([]catalog.Metric, 0, len(metrics))

	for i := range metrics {
		m := &metrics[i]

		if active(q.Domain) && m.Domain != q.Domain {
			continue
		}

		if q.MetricSetID != "" && !catalog.ContainsString(setSlugs, m.Slug) {
			continue
		}

		if tagged != nil {
			if _, ok := tagged[m.Slug]; !ok {
				continue
			}
		}

		if !MatchesKeyword(m, q.Query) {
			continue
		}

		if active(q.Category) && m.CategoryLabel() != q.Category {
			continue
		}

		if active(q.BusinessOwner) && m.Owners.BusinessOwner != q.BusinessOwner {
			continue
		}

		if active(q.TechOwner) && m.Owners.TechOwner != q.TechOwner {
			continue
		}

		if active(string(q.Status)) && m.Status != q.Status {
			continue
		}

		hasQuery := len(m.QueryDefinitions) > 0
		if (q.HasQuery == HasQueryYes && !hasQuery) || (q.HasQuery == HasQueryNo && hasQuery) {
			continue
		}

		result = append(result, *m)
	}

	SortMetrics(result, q.SortField, q.SortDirection)

	return result
}

// SortMetrics orders metrics in place. Missing or unparseable timestamps
// sort as zero; ties keep their input order.
func SortMetrics(metrics []catalog.Metric, field SortField, direction SortDirection) {
	less := func(a, b *catalog.Metric) bool {
		switch field {
		case SortHeat:
			return a.Heat < b.Heat
		case SortName:
			return strings.ToLower(a.BusinessName) < strings.ToLower(b.BusinessName)
		case SortCreatedAt:
			return catalog.MetricTimestamp(a, catalog.TimestampCreated) < catalog.MetricTimestamp(b, catalog.TimestampCreated)
		default:
			return catalog.MetricTimestamp(a, catalog.TimestampUpdated) < catalog.MetricTimestamp(b, catalog.TimestampUpdated)
		}
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		if direction == SortAsc {
			return less(&metrics[i], &metrics[j])
		}

		return less(&metrics[j], &metrics[i])
	})
}

// Facets lists the distinct values the metric filters can take
type Facets struct {
	Categories     []string `json:"categories"`
	BusinessOwners []string `json:"businessOwners"`
	TechOwners     []string `json:"techOwners"`
}

// FacetOptions collects sorted distinct category labels and owners
func FacetOptions(metrics []catalog.Metric) Facets {
	categories := make(map[string]struct{})
	business := make(map[string]struct{})
	tech := make(map[string]struct{})

	for i := range metrics {
		if label := metrics[i].CategoryLabel(); label != "" {
			categories[label] = struct{}{}
		}

		if owner := metrics[i].Owners.BusinessOwner; owner != "" {
			business[owner] = struct{}{}
		}

		if owner := metrics[i].Owners.TechOwner; owner != "" {
			tech[owner] = struct{}{}
		}
	}

	return Facets{
		Categories:     sortedKeys(categories),
		BusinessOwners: sortedKeys(business),
		TechOwners:     sortedKeys(tech),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// OtherMetricCandidates lists the metrics an arithmetic derivation of base
// may combine with: same domain, base excluded
func OtherMetricCandidates(metrics []catalog.Metric, base *catalog.Metric) []catalog.Metric {
	out := make([]catalog.Metric, 0)

	for i := range metrics {
		if metrics[i].Domain == base.Domain && metrics[i].Slug != base.Slug {
			out = append(out, metrics[i])
		}
	}

	return out
}
