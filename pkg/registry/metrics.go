package registry

import (
	"errors"
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/derive"
	"github.com/ethpandaops/datasage/pkg/observability"
	"github.com/sirupsen/logrus"
)

const (
	defaultCategory = "Monetization"
	unassignedOwner = "TBD"
)

// QueryPayload is the query definition part of a metric registration
type QueryPayload struct {
	Type               string   `json:"type"`
	Source             string   `json:"source"`
	OriginField        string   `json:"originField"`
	Aggregate          string   `json:"aggregate"`
	BusinessDate       string   `json:"businessDate"`
	Filters            []string `json:"filters"`
	AnalysisDimensions []string `json:"analysisDimensions"`
	Link               string   `json:"link,omitempty"`
}

// NewMetricPayload registers or edits a metric
type NewMetricPayload struct {
	BusinessName        string       `json:"businessName"`
	BusinessDefinition  string       `json:"businessDefinition"`
	Slug                string       `json:"slug"`
	TechnicalDefinition string       `json:"technicalDefinition"`
	CategoryPath        []string     `json:"categoryPath"`
	LarkSheetLink       string       `json:"larkSheetLink,omitempty"`
	Query               QueryPayload `json:"query"`
}

func (p *NewMetricPayload) validate() (name, slug string, err error) {
	name = strings.TrimSpace(p.BusinessName)
	slug = strings.TrimSpace(p.Slug)

	if name == "" {
		return "", "", catalog.NewFieldValidationError(catalog.ReasonMissingField, "businessName")
	}

	if slug == "" {
		return "", "", catalog.NewFieldValidationError(catalog.ReasonMissingField, "slug")
	}

	return name, slug, nil
}

func (p *NewMetricPayload) categoryPath() []string {
	if len(p.CategoryPath) == 0 {
		return []string{defaultCategory}
	}

	out := make([]string, len(p.CategoryPath))
	copy(out, p.CategoryPath)

	return out
}

func (p *NewMetricPayload) query(id string) catalog.QueryDefinition {
	filters := make([]string, len(p.Query.Filters))
	copy(filters, p.Query.Filters)

	dims := make([]string, len(p.Query.AnalysisDimensions))
	copy(dims, p.Query.AnalysisDimensions)

	return catalog.QueryDefinition{
		ID:                 id,
		Type:               p.Query.Type,
		Source:             p.Query.Source,
		OriginField:        p.Query.OriginField,
		Aggregate:          p.Query.Aggregate,
		BusinessDate:       p.Query.BusinessDate,
		Filters:            filters,
		AnalysisDimensions: dims,
		Link:               p.Query.Link,
	}
}

func (r *Registry) findMetric(slug string) int {
	for i := range r.state.Metrics {
		if r.state.Metrics[i].Slug == slug {
			return i
		}
	}

	return -1
}

// Metric returns a copy of the metric with the given slug
func (r *Registry) Metric(slug string) (catalog.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.findMetric(slug)
	if idx < 0 {
		return catalog.Metric{}, catalog.NewNotFoundError(EntityMetric, slug)
	}

	return r.state.Metrics[idx].Clone(), nil
}

// Metrics returns copies of every metric in registry order
func (r *Registry) Metrics() []catalog.Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.metricsLocked()
}

// RegisterMetric appends a new draft metric built from the payload
func (r *Registry) RegisterMetric(payload NewMetricPayload) (catalog.Metric, error) {
	name, slug, err := payload.validate()
	if err != nil {
		return catalog.Metric{}, err
	}

	r.mu.Lock()

	if r.findMetric(slug) >= 0 {
		r.mu.Unlock()

		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonSlugCollision, "slug")
	}

	now := r.timestamp()
	query := payload.query("q-" + r.newID())
	categoryPath := payload.categoryPath()

	domain := defaultCategory
	if len(payload.CategoryPath) > 0 {
		domain = payload.CategoryPath[0]
	}

	bound := make([]string, len(query.AnalysisDimensions))
	copy(bound, query.AnalysisDimensions)

	metric := catalog.Metric{
		ID:                  "m-" + r.newID(),
		BusinessName:        name,
		Slug:                slug,
		CategoryPath:        categoryPath,
		BusinessDefinition:  payload.BusinessDefinition,
		TechnicalDefinition: payload.TechnicalDefinition,
		Status:              catalog.StatusDraft,
		Domain:              domain,
		Owners:              catalog.Owners{BusinessOwner: unassignedOwner, TechOwner: unassignedOwner},
		LarkSheetLink:       strings.TrimSpace(payload.LarkSheetLink),
		QueryDefinitions:    []catalog.QueryDefinition{query},
		Trend30d:            catalog.FlatTrend(),
		TopDimensions:       []catalog.TopDimensionPoint{},
		BoundDimensionSlugs: bound,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	r.state.Metrics = append(r.state.Metrics, metric)
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"slug": slug, "domain": domain}).Info("Registered metric")
	r.notify(ChangeCreated, EntityMetric, slug)

	return metric.Clone(), nil
}

// UpdateMetric edits a metric in place. The id, the query id and createdAt
// are kept; the slug may change as long as it stays unique.
func (r *Registry) UpdateMetric(slug string, payload NewMetricPayload) (catalog.Metric, error) {
	name, newSlug, err := payload.validate()
	if err != nil {
		return catalog.Metric{}, err
	}

	r.mu.Lock()

	idx := r.findMetric(slug)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.Metric{}, catalog.NewNotFoundError(EntityMetric, slug)
	}

	if newSlug != slug && r.findMetric(newSlug) >= 0 {
		r.mu.Unlock()

		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonSlugCollision, "slug")
	}

	m := &r.state.Metrics[idx]

	queryID := "q-" + r.newID()
	if existing, ok := m.PrimaryQuery(); ok {
		queryID = existing.ID
	}

	if len(payload.CategoryPath) > 0 {
		m.Domain = payload.CategoryPath[0]
	}

	m.BusinessName = name
	m.Slug = newSlug
	m.CategoryPath = payload.categoryPath()
	m.BusinessDefinition = payload.BusinessDefinition
	m.TechnicalDefinition = payload.TechnicalDefinition
	m.LarkSheetLink = strings.TrimSpace(payload.LarkSheetLink)
	m.QueryDefinitions = []catalog.QueryDefinition{payload.query(queryID)}
	m.BoundDimensionSlugs = append([]string{}, m.QueryDefinitions[0].AnalysisDimensions...)
	m.UpdatedAt = r.timestamp()

	updated := m.Clone()
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"slug": slug, "new_slug": newSlug}).Info("Updated metric")
	r.emit(ChangeEvent{Kind: ChangeUpdated, Entity: EntityMetric, Key: newSlug, PreviousKey: slug})

	return updated, nil
}

// DeleteMetric removes a metric and drops its slug from dimension bindings
// and metric sets
func (r *Registry) DeleteMetric(slug string) error {
	r.mu.Lock()

	idx := r.findMetric(slug)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.NewNotFoundError(EntityMetric, slug)
	}

	r.state.Metrics = append(r.state.Metrics[:idx], r.state.Metrics[idx+1:]...)

	for i := range r.state.Dimensions {
		r.state.Dimensions[i].BoundMetricSlugs = catalog.RemoveString(r.state.Dimensions[i].BoundMetricSlugs, slug)
	}

	for i := range r.state.MetricSets {
		r.state.MetricSets[i].MetricSlugs = catalog.RemoveString(r.state.MetricSets[i].MetricSlugs, slug)
	}

	r.mu.Unlock()

	r.log.WithField("slug", slug).Info("Deleted metric")
	r.notify(ChangeDeleted, EntityMetric, slug)

	return nil
}

// DeriveMetric synthesizes a metric from the base and appends it. The slug is
// checked again at append time since the catalog may have changed while the
// derivation ran.
func (r *Registry) DeriveMetric(baseSlug string, spec derive.Spec) (catalog.Metric, error) {
	metric, err := r.deriveMetric(baseSlug, spec)

	mode := "unknown"
	if spec != nil {
		mode = string(spec.Mode())
	}

	observability.RecordDerivation(mode, derivationResult(err))

	return metric, err
}

func derivationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, catalog.ErrValidation):
		return "invalid"
	case errors.Is(err, catalog.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (r *Registry) deriveMetric(baseSlug string, spec derive.Spec) (catalog.Metric, error) {
	r.mu.RLock()
	idx := r.findMetric(baseSlug)

	if idx < 0 {
		r.mu.RUnlock()

		return catalog.Metric{}, catalog.NewNotFoundError(EntityMetric, baseSlug)
	}

	base := r.state.Metrics[idx].Clone()
	snapshot := derive.Snapshot{Metrics: r.metricsLocked()}
	r.mu.RUnlock()

	metric, err := r.synth.Synthesize(base, snapshot, spec)
	if err != nil {
		return catalog.Metric{}, err
	}

	r.mu.Lock()

	if r.findMetric(metric.Slug) >= 0 {
		r.mu.Unlock()

		return catalog.Metric{}, catalog.NewFieldValidationError(catalog.ReasonSlugCollision, "slug")
	}

	r.state.Metrics = append(r.state.Metrics, metric.Clone())
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"slug": metric.Slug,
		"base": baseSlug,
		"mode": spec.Mode(),
	}).Info("Derived metric")
	r.notify(ChangeCreated, EntityMetric, metric.Slug)

	return metric, nil
}

// metricsLocked copies the metric list; the caller holds the lock
func (r *Registry) metricsLocked() []catalog.Metric {
	out := make([]catalog.Metric, len(r.state.Metrics))
	for i := range r.state.Metrics {
		out[i] = r.state.Metrics[i].Clone()
	}

	return out
}
