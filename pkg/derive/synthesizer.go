package derive

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/google/uuid"
)

const (
	computedQueryType   = "Computed expression"
	derivedOriginField  = "derived_expression"
	filterAggregate     = "SUM"
	arithmeticAggregate = "NONE"
	baseMissingReason   = "base metric missing"
)

// Snapshot is the registry view a derivation is validated against
type Snapshot struct {
	Metrics []catalog.Metric
}

func (s Snapshot) find(slug string) (catalog.Metric, bool) {
	for i := range s.Metrics {
		if s.Metrics[i].Slug == slug {
			return s.Metrics[i], true
		}
	}

	return catalog.Metric{}, false
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// WithIDGenerator overrides the generator used for metric and query ids
func WithIDGenerator(gen func() string) Option {
	return func(s *Synthesizer) {
		s.newID = gen
	}
}

// Synthesizer builds new metrics from a base metric and a Spec. It holds no
// mutable state and is safe for concurrent use.
type Synthesizer struct {
	now   func() time.Time
	newID func() string
}

// NewSynthesizer creates a synthesizer with the given options
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Synthesize validates spec against the snapshot and returns the derived
// metric. It never mutates base or snapshot; inserting the result is the
// caller's job.
func (s *Synthesizer) Synthesize(base catalog.Metric, snapshot Snapshot, spec Spec) (catalog.Metric, error) {
	if spec == nil {
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonUnknownMode, "mode")
	}

	header := spec.header()
	name := strings.TrimSpace(header.BusinessName)
	slug := strings.TrimSpace(header.Slug)

	if name == "" {
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "businessName")
	}

	if slug == "" {
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "slug")
	}

	if _, exists := snapshot.find(slug); exists {
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonSlugCollision, "slug")
	}

	if _, exists := snapshot.find(base.Slug); !exists {
		return catalog.Metric{}, &catalog.NotFoundError{Entity: "metric", Key: base.Slug, Reason: baseMissingReason}
	}

	header.BusinessName = name
	header.Slug = slug
	header.Description = strings.TrimSpace(header.Description)

	switch sp := spec.(type) {
	case FilterSpec:
		return s.synthesizeFilter(base, header, sp.DimensionFilters)
	case ArithmeticSpec:
		return s.synthesizeArithmetic(base, snapshot, header, sp)
	default:
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonUnknownMode, "mode")
	}
}

type filterRow struct {
	dimensionSlug string
	tokens        []string
}

func (s *Synthesizer) synthesizeFilter(base catalog.Metric, header Header, filters []DimensionFilter) (catalog.Metric, error) {
	rows := make([]filterRow, 0, len(filters))

	for _, f := range filters {
		dim := strings.TrimSpace(f.DimensionSlug)
		tokens := catalog.NormalizeFilters(f.Values)

		if dim == "" || len(tokens) == 0 {
			continue
		}

		rows = append(rows, filterRow{dimensionSlug: dim, tokens: tokens})
	}

	if len(rows) == 0 {
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonNoDimensionFilters, "dimensionFilters")
	}

	clauses := make([]string, 0, len(rows))
	rowSlugs := make([]string, 0, len(rows))

	for _, r := range rows {
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", r.dimensionSlug, strings.Join(r.tokens, ", ")))
		rowSlugs = append(rowSlugs, r.dimensionSlug)
	}

	baseQuery, hasQuery := base.PrimaryQuery()

	mergedFilters := make([]string, 0, len(baseQuery.Filters)+len(clauses))
	mergedFilters = append(mergedFilters, baseQuery.Filters...)
	mergedFilters = append(mergedFilters, clauses...)

	technical := base.TechnicalDefinition

	var query catalog.QueryDefinition

	if hasQuery {
		prefix := "WHERE"
		if strings.Contains(strings.ToLower(base.TechnicalDefinition), "where") {
			prefix = "AND"
		}

		technical = fmt.Sprintf("%s\n%s %s", base.TechnicalDefinition, prefix, strings.Join(clauses, " AND "))

		query = baseQuery.Clone()
		query.Filters = mergedFilters

		if query.AnalysisDimensions == nil {
			query.AnalysisDimensions = []string{}
		}
	} else {
		query = catalog.QueryDefinition{
			Type:               computedQueryType,
			Source:             base.Slug,
			Aggregate:          filterAggregate,
			Filters:            mergedFilters,
			AnalysisDimensions: []string{},
		}
	}

	query.ID = "q-" + s.newID()

	businessDefinition := header.Description
	if businessDefinition == "" {
		businessDefinition = fmt.Sprintf("%s (derived with filters on %s)", base.BusinessDefinition, strings.Join(rowSlugs, ", "))
	}

	metric := s.newMetric(base, header, query)
	metric.TechnicalDefinition = technical
	metric.BusinessDefinition = businessDefinition
	metric.BoundDimensionSlugs = catalog.UnionStrings(base.BoundDimensionSlugs, rowSlugs)

	return metric, nil
}

func (s *Synthesizer) synthesizeArithmetic(base catalog.Metric, snapshot Snapshot, header Header, spec ArithmeticSpec) (catalog.Metric, error) {
	other, ok := snapshot.find(strings.TrimSpace(spec.OtherMetricSlug))
	if !ok || other.Domain != base.Domain {
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonOtherNotInDomain, "otherMetricSlug")
	}

	symbol, ok := spec.Operator.Symbol()
	if !ok {
		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonUnknownOperator, "operator")
	}

	rhs := other.Slug
	if c := spec.EffectiveCoefficient(); c != 1 {
		rhs = fmt.Sprintf("%s * %s", other.Slug, catalog.FormatNumber(c))
	}

	expression := fmt.Sprintf("%s %s %s", base.Slug, symbol, rhs)

	technical := strings.Join([]string{
		"-- Derived arithmetic metric",
		"-- Base: " + base.Slug,
		"-- Other: " + other.Slug,
		"SELECT",
		fmt.Sprintf("  %s AS %s;", expression, header.Slug),
	}, "\n")

	baseQuery, _ := base.PrimaryQuery()

	query := catalog.QueryDefinition{
		ID:                 "q-" + s.newID(),
		Type:               computedQueryType,
		Source:             base.Slug + "," + other.Slug,
		OriginField:        derivedOriginField,
		Aggregate:          arithmeticAggregate,
		BusinessDate:       baseQuery.BusinessDate,
		Filters:            []string{},
		AnalysisDimensions: []string{},
	}

	businessDefinition := header.Description
	if businessDefinition == "" {
		businessDefinition = fmt.Sprintf("Derived metric: %s %s %s", base.BusinessName, symbol, other.BusinessName)
	}

	metric := s.newMetric(base, header, query)
	metric.TechnicalDefinition = technical
	metric.BusinessDefinition = businessDefinition
	metric.BoundDimensionSlugs = catalog.UnionStrings(base.BoundDimensionSlugs, other.BoundDimensionSlugs)

	return metric, nil
}

// newMetric fills the fields shared by both modes
func (s *Synthesizer) newMetric(base catalog.Metric, header Header, query catalog.QueryDefinition) catalog.Metric {
	now := catalog.FormatTimestamp(s.now())

	categoryPath := make([]string, len(base.CategoryPath))
	copy(categoryPath, base.CategoryPath)

	topDimensions := make([]catalog.TopDimensionPoint, len(base.TopDimensions))
	copy(topDimensions, base.TopDimensions)

	return catalog.Metric{
		ID:               "m-" + s.newID(),
		BusinessName:     header.BusinessName,
		Slug:             header.Slug,
		CategoryPath:     categoryPath,
		Status:           catalog.StatusDraft,
		Domain:           base.Domain,
		Owners:           base.Owners,
		QueryDefinitions: []catalog.QueryDefinition{query},
		Trend30d:         catalog.FlatTrend(),
		TopDimensions:    topDimensions,
		CreatedAt:        now,
		UpdatedAt:        now,
		Heat:             0,
	}
}
