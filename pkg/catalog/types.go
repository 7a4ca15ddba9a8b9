// Package catalog holds the metric catalog data model shared by every other package
package catalog

import (
	"time"
)

// Status is the lifecycle state of a metric
type Status string

const (
	// StatusDraft marks a metric that has not been reviewed yet
	StatusDraft Status = "Draft"
	// StatusActive marks a published metric
	StatusActive Status = "Active"
)

// Visibility controls who can see a metric set
type Visibility string

const (
	// VisibilityTeam shares a metric set with the whole team
	VisibilityTeam Visibility = "team"
	// VisibilityPrivate keeps a metric set to its author
	VisibilityPrivate Visibility = "private"
)

// QueryDefinition is one way of computing a metric's value
type QueryDefinition struct {
	ID                 string   `json:"id" yaml:"id"`
	Type               string   `json:"type" yaml:"type"`
	Source             string   `json:"source" yaml:"source"`
	OriginField        string   `json:"originField" yaml:"originField"`
	Aggregate          string   `json:"aggregate" yaml:"aggregate"`
	BusinessDate       string   `json:"businessDate" yaml:"businessDate"`
	Filters            []string `json:"filters" yaml:"filters"`
	AnalysisDimensions []string `json:"analysisDimensions" yaml:"analysisDimensions"`
	Link               string   `json:"link,omitempty" yaml:"link,omitempty"`
}

// TrendPoint is a single sample of a metric's display series
type TrendPoint struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
}

// TopDimensionPoint is a display-only breakdown entry
type TopDimensionPoint struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Owners names the people responsible for a metric
type Owners struct {
	BusinessOwner string `json:"businessOwner" yaml:"businessOwner"`
	TechOwner     string `json:"techOwner" yaml:"techOwner"`
}

// Metric is a named, sourced, query-backed business measurement
type Metric struct {
	ID                  string              `json:"id" yaml:"id"`
	BusinessName        string              `json:"businessName" yaml:"businessName"`
	Slug                string              `json:"slug" yaml:"slug"`
	CategoryPath        []string            `json:"categoryPath" yaml:"categoryPath"`
	BusinessDefinition  string              `json:"businessDefinition" yaml:"businessDefinition"`
	TechnicalDefinition string              `json:"technicalDefinition" yaml:"technicalDefinition"`
	Status              Status              `json:"status" yaml:"status"`
	Domain              string              `json:"domain" yaml:"domain"`
	Owners              Owners              `json:"owners" yaml:"owners"`
	QueryDefinitions    []QueryDefinition   `json:"queryDefinitions" yaml:"queryDefinitions"`
	Trend30d            []TrendPoint        `json:"trend30d" yaml:"trend30d"`
	TopDimensions       []TopDimensionPoint `json:"topDimensions" yaml:"topDimensions"`
	BoundDimensionSlugs []string            `json:"boundDimensionSlugs" yaml:"boundDimensionSlugs"`
	CreatedAt           string              `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt           string              `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Heat                int                 `json:"heat" yaml:"heat"`
	LarkSheetLink       string              `json:"larkSheetLink,omitempty" yaml:"larkSheetLink,omitempty"`
}

// PrimaryQuery returns the first query definition, if any
func (m *Metric) PrimaryQuery() (QueryDefinition, bool) {
	if len(m.QueryDefinitions) == 0 {
		return QueryDefinition{}, false
	}

	return m.QueryDefinitions[0], true
}

// CategoryLabel joins the category path the way it is displayed and filtered on
func (m *Metric) CategoryLabel() string {
	return JoinCategoryPath(m.CategoryPath)
}

// DimensionValue is one entry of a dimension's value dictionary
type DimensionValue struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Dimension is a reusable analysis axis
type Dimension struct {
	ID               string           `json:"id" yaml:"id"`
	Name             string           `json:"name" yaml:"name"`
	Slug             string           `json:"slug" yaml:"slug"`
	Aliases          []string         `json:"aliases" yaml:"aliases"`
	Description      string           `json:"description" yaml:"description"`
	Domain           string           `json:"domain" yaml:"domain"`
	Version          string           `json:"version" yaml:"version"`
	Scope            []string         `json:"scope" yaml:"scope"`
	Type             string           `json:"type" yaml:"type"`
	Values           []DimensionValue `json:"values" yaml:"values"`
	BoundMetricSlugs []string         `json:"boundMetricSlugs" yaml:"boundMetricSlugs"`
	Category         string           `json:"category,omitempty" yaml:"category,omitempty"`
	SourceLink       string           `json:"sourceLink,omitempty" yaml:"sourceLink,omitempty"`
	CreatedAt        string           `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt        string           `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// AppliesTo reports whether the dimension is valid for the given domain
func (d *Dimension) AppliesTo(domain string) bool {
	if d.Domain == domain {
		return true
	}

	for _, s := range d.Scope {
		if s == domain {
			return true
		}
	}

	return false
}

// Tag labels metric sets
type Tag struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// MetricSet is an arbitrary named grouping of metric slugs
type MetricSet struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scope       string     `json:"scope" yaml:"scope"`
	Visibility  Visibility `json:"visibility" yaml:"visibility"`
	Domain      string     `json:"domain" yaml:"domain"`
	MetricSlugs []string   `json:"metricSlugs" yaml:"metricSlugs"`
	Tags        []string   `json:"tags" yaml:"tags"`
	CreatedAt   string     `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// CategoryNode is a node of the metric category tree
type CategoryNode struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Children    []CategoryNode `json:"children,omitempty" yaml:"children,omitempty"`
	MetricSlugs []string       `json:"metricSlugs,omitempty" yaml:"metricSlugs,omitempty"`
}

// Domain is a top-level business area partitioning the catalog
type Domain struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Permitted is tri-state: nil means permitted
	Permitted  *bool  `json:"permitted,omitempty" yaml:"permitted,omitempty"`
	SourceType string `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`
	SourceLink string `json:"sourceLink,omitempty" yaml:"sourceLink,omitempty"`
}

// IsPermitted reports whether the current user may browse the domain
func (d *Domain) IsPermitted() bool {
	return d.Permitted == nil || *d.Permitted
}

// DimensionTreeNode groups dimensions for browsing
type DimensionTreeNode struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	Count          int                 `json:"count" yaml:"count"`
	Children       []DimensionTreeNode `json:"children,omitempty" yaml:"children,omitempty"`
	DimensionSlugs []string            `json:"dimensionSlugs,omitempty" yaml:"dimensionSlugs,omitempty"`
}

// DataState is the complete catalog
type DataState struct {
	Metrics       []Metric            `json:"metrics"`
	Dimensions    []Dimension         `json:"dimensions"`
	MetricSets    []MetricSet         `json:"metricSets"`
	Categories    []CategoryNode      `json:"categories"`
	Domains       []Domain            `json:"domains"`
	DimensionTree []DimensionTreeNode `json:"dimensionTree"`
}

// FindMetric returns the metric with the given slug
func (s *DataState) FindMetric(slug string) (Metric, bool) {
	for i := range s.Metrics {
		if s.Metrics[i].Slug == slug {
			return s.Metrics[i], true
		}
	}

	return Metric{}, false
}

// HasMetricSlug reports whether any metric uses the slug
func (s *DataState) HasMetricSlug(slug string) bool {
	_, ok := s.FindMetric(slug)
	return ok
}

// FormatTimestamp renders t the way catalog timestamps are stored
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// TimestampField selects one of the catalog timestamps
type TimestampField string

const (
	// TimestampCreated selects createdAt
	TimestampCreated TimestampField = "createdAt"
	// TimestampUpdated selects updatedAt
	TimestampUpdated TimestampField = "updatedAt"
)

// ParseTimestamp returns the unix milliseconds of an ISO-8601 value, or 0
// when the value is empty or unparseable.
func ParseTimestamp(value string) int64 {
	if value == "" {
		return 0
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixMilli()
		}
	}

	return 0
}

// MetricTimestamp returns the selected timestamp of a metric in unix milliseconds
func MetricTimestamp(m *Metric, field TimestampField) int64 {
	if field == TimestampCreated {
		return ParseTimestamp(m.CreatedAt)
	}

	return ParseTimestamp(m.UpdatedAt)
}

// MetricSetTimestamp returns the selected timestamp of a metric set in unix milliseconds
func MetricSetTimestamp(s *MetricSet, field TimestampField) int64 {
	if field == TimestampCreated {
		return ParseTimestamp(s.CreatedAt)
	}

	return ParseTimestamp(s.UpdatedAt)
}
