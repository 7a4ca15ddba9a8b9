package registry

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/sirupsen/logrus"
)

const (
	defaultDimensionDomain  = "General"
	defaultDimensionVersion = "v1"
	defaultDimensionType    = "enum"
)

// DomainPayload creates a domain
type DomainPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SourceType  string `json:"sourceType"`
	SourceLink  string `json:"sourceLink"`
}

// CategoryPayload creates a root category
type CategoryPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DimensionPayload creates or edits a dimension
type DimensionPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	SourceLink  string `json:"sourceLink"`
}

// BindingStatus is the outcome of a binding check
type BindingStatus string

const (
	// BindingValid means the metric declares the dimension
	BindingValid BindingStatus = "valid"
	// BindingMissing means the metric does not reference the dimension
	BindingMissing BindingStatus = "missing"
)

// BindingResult reports whether a metric is bound to a dimension
type BindingResult struct {
	DimensionSlug string        `json:"dimensionSlug"`
	MetricSlug    string        `json:"metricSlug"`
	Status        BindingStatus `json:"status"`
	Message       string        `json:"message"`
}

func requireIDAndName(id, name string) (string, string, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	if id == "" {
		return "", "", catalog.NewFieldValidationError(catalog.ReasonMissingField, "id")
	}

	if name == "" {
		return "", "", catalog.NewFieldValidationError(catalog.ReasonMissingField, "name")
	}

	return id, name, nil
}

// CreateDomain appends a permitted domain
func (r *Registry) CreateDomain(payload DomainPayload) (catalog.Domain, error) {
	id, name, err := requireIDAndName(payload.ID, payload.Name)
	if err != nil {
		return catalog.Domain{}, err
	}

	r.mu.Lock()

	for i := range r.state.Domains {
		if r.state.Domains[i].ID == id {
			r.mu.Unlock()

			return catalog.Domain{}, catalog.NewFieldValidationError(catalog.ReasonIDCollision, "id")
		}
	}

	permitted := true
	domain := catalog.Domain{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(payload.Description),
		SourceType:  strings.TrimSpace(payload.SourceType),
		SourceLink:  strings.TrimSpace(payload.SourceLink),
		Permitted:   &permitted,
	}

	r.state.Domains = append(r.state.Domains, domain)
	r.mu.Unlock()

	r.log.WithField("domain", id).Info("Created domain")
	r.notify(ChangeCreated, EntityDomain, id)

	return domain.Clone(), nil
}

func categoryIDExists(nodes []catalog.CategoryNode, id string) bool {
	for i := range nodes {
		if nodes[i].ID == id || categoryIDExists(nodes[i].Children, id) {
			return true
		}
	}

	return false
}

// CreateCategory appends a root category
func (r *Registry) CreateCategory(payload CategoryPayload) (catalog.CategoryNode, error) {
	id, name, err := requireIDAndName(payload.ID, payload.Name)
	if err != nil {
		return catalog.CategoryNode{}, err
	}

	r.mu.Lock()

	if categoryIDExists(r.state.Categories, id) {
		r.mu.Unlock()

		return catalog.CategoryNode{}, catalog.NewFieldValidationError(catalog.ReasonIDCollision, "id")
	}

	node := catalog.CategoryNode{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(payload.Description),
	}

	r.state.Categories = append(r.state.Categories, node)
	r.mu.Unlock()

	r.log.WithField("category", id).Info("Created category")
	r.notify(ChangeCreated, EntityCategory, id)

	return node, nil
}

func (r *Registry) findDimension(id string) int {
	for i := range r.state.Dimensions {
		if r.state.Dimensions[i].ID == id {
			return i
		}
	}

	return -1
}

func (r *Registry) findDimensionBySlug(slug string) int {
	for i := range r.state.Dimensions {
		if r.state.Dimensions[i].Slug == slug {
			return i
		}
	}

	return -1
}

// Dimension returns a copy of the dimension with the given id
func (r *Registry) Dimension(id string) (catalog.Dimension, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.findDimension(id)
	if idx < 0 {
		return catalog.Dimension{}, catalog.NewNotFoundError(EntityDimension, id)
	}

	return r.state.Dimensions[idx].Clone(), nil
}

// CreateDimension appends a dimension whose slug is its id
func (r *Registry) CreateDimension(payload DimensionPayload) (catalog.Dimension, error) {
	id, name, err := requireIDAndName(payload.ID, payload.Name)
	if err != nil {
		return catalog.Dimension{}, err
	}

	r.mu.Lock()

	if r.findDimension(id) >= 0 || r.findDimensionBySlug(id) >= 0 {
		r.mu.Unlock()

		return catalog.Dimension{}, catalog.NewFieldValidationError(catalog.ReasonIDCollision, "id")
	}

	now := r.timestamp()
	dim := catalog.Dimension{
		ID:               id,
		Name:             name,
		Slug:             id,
		Aliases:          []string{},
		Description:      strings.TrimSpace(payload.Description),
		Domain:           defaultDimensionDomain,
		Version:          defaultDimensionVersion,
		Scope:            []string{},
		Type:             defaultDimensionType,
		Values:           []catalog.DimensionValue{},
		BoundMetricSlugs: []string{},
		Category:         strings.TrimSpace(payload.Category),
		SourceLink:       strings.TrimSpace(payload.SourceLink),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	r.state.Dimensions = append(r.state.Dimensions, dim)
	r.mu.Unlock()

	r.log.WithField("dimension", id).Info("Created dimension")
	r.notify(ChangeCreated, EntityDimension, id)

	return dim.Clone(), nil
}

// UpdateDimension edits the descriptive fields of a dimension
func (r *Registry) UpdateDimension(id string, payload DimensionPayload) (catalog.Dimension, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return catalog.Dimension{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "name")
	}

	r.mu.Lock()

	idx := r.findDimension(id)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.Dimension{}, catalog.NewNotFoundError(EntityDimension, id)
	}

	d := &r.state.Dimensions[idx]
	d.Name = name
	d.Description = strings.TrimSpace(payload.Description)
	d.Category = strings.TrimSpace(payload.Category)
	d.SourceLink = strings.TrimSpace(payload.SourceLink)
	d.UpdatedAt = r.timestamp()

	updated := d.Clone()
	r.mu.Unlock()

	r.log.WithField("dimension", id).Info("Updated dimension")
	r.notify(ChangeUpdated, EntityDimension, id)

	return updated, nil
}

// DeleteDimension removes a dimension. Metrics keep their bound slugs.
func (r *Registry) DeleteDimension(id string) error {
	r.mu.Lock()

	idx := r.findDimension(id)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.NewNotFoundError(EntityDimension, id)
	}

	r.state.Dimensions = append(r.state.Dimensions[:idx], r.state.Dimensions[idx+1:]...)
	r.mu.Unlock()

	r.log.WithField("dimension", id).Info("Deleted dimension")
	r.notify(ChangeDeleted, EntityDimension, id)

	return nil
}

// ValidateBinding checks whether the dimension declares the metric among its
// bound metrics
func (r *Registry) ValidateBinding(dimensionSlug, metricSlug string) (BindingResult, error) {
	dimensionSlug = strings.TrimSpace(dimensionSlug)
	metricSlug = strings.TrimSpace(metricSlug)

	if dimensionSlug == "" {
		return BindingResult{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "dimensionSlug")
	}

	if metricSlug == "" {
		return BindingResult{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "metricSlug")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	dimIdx := r.findDimensionBySlug(dimensionSlug)
	if dimIdx < 0 {
		return BindingResult{}, catalog.NewNotFoundError(EntityDimension, dimensionSlug)
	}

	if r.findMetric(metricSlug) < 0 {
		return BindingResult{}, catalog.NewNotFoundError(EntityMetric, metricSlug)
	}

	result := BindingResult{DimensionSlug: dimensionSlug, MetricSlug: metricSlug}

	if catalog.ContainsString(r.state.Dimensions[dimIdx].BoundMetricSlugs, metricSlug) {
		result.Status = BindingValid
		result.Message = fmt.Sprintf("metric %q is declared to use dimension %q", metricSlug, dimensionSlug)
	} else {
		result.Status = BindingMissing
		result.Message = fmt.Sprintf("metric %q does not reference dimension %q", metricSlug, dimensionSlug)
	}

	r.log.WithFields(logrus.Fields{
		"dimension": dimensionSlug,
		"metric":    metricSlug,
		"status":    result.Status,
	}).Debug("Validated binding")

	return result, nil
}
