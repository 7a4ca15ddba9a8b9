package registry

import (
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/sirupsen/logrus"
)

const defaultSetDomain = "Custom"

// MetricSetPayload creates or edits a metric set
type MetricSetPayload struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Scope       string             `json:"scope"`
	Visibility  catalog.Visibility `json:"visibility"`
	Domain      string             `json:"domain"`
	MetricSlugs []string           `json:"metricSlugs"`
	Tags        []string           `json:"tags"`
}

func (p *MetricSetPayload) apply(set *catalog.MetricSet) {
	set.Description = strings.TrimSpace(p.Description)
	set.Scope = strings.TrimSpace(p.Scope)

	set.Visibility = p.Visibility
	if set.Visibility == "" {
		set.Visibility = catalog.VisibilityTeam
	}

	set.Domain = strings.TrimSpace(p.Domain)
	if set.Domain == "" {
		set.Domain = defaultSetDomain
	}

	set.MetricSlugs = catalog.UnionStrings(p.MetricSlugs)
	set.Tags = catalog.UnionStrings(p.Tags)
}

func (r *Registry) findMetricSet(id string) int {
	for i := range r.state.MetricSets {
		if r.state.MetricSets[i].ID == id {
			return i
		}
	}

	return -1
}

func (r *Registry) setNameTaken(name, exceptID string) bool {
	for i := range r.state.MetricSets {
		if r.state.MetricSets[i].Name == name && r.state.MetricSets[i].ID != exceptID {
			return true
		}
	}

	return false
}

// MetricSet returns a copy of the metric set with the given id
func (r *Registry) MetricSet(id string) (catalog.MetricSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.findMetricSet(id)
	if idx < 0 {
		return catalog.MetricSet{}, catalog.NewNotFoundError(EntityMetricSet, id)
	}

	return r.state.MetricSets[idx].Clone(), nil
}

// CreateMetricSet appends a metric set with a unique name
func (r *Registry) CreateMetricSet(payload MetricSetPayload) (catalog.MetricSet, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return catalog.MetricSet{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "name")
	}

	r.mu.Lock()

	if r.setNameTaken(name, "") {
		r.mu.Unlock()

		return catalog.MetricSet{}, catalog.NewFieldValidationError(catalog.ReasonNameCollision, "name")
	}

	now := r.timestamp()
	set := catalog.MetricSet{
		ID:        "a-" + r.newID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	payload.apply(&set)

	r.state.MetricSets = append(r.state.MetricSets, set)
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"id": set.ID, "name": name}).Info("Created metric set")
	r.notify(ChangeCreated, EntityMetricSet, set.ID)

	return set.Clone(), nil
}

// UpdateMetricSet replaces the editable fields of a metric set
func (r *Registry) UpdateMetricSet(id string, payload MetricSetPayload) (catalog.MetricSet, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return catalog.MetricSet{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "name")
	}

	r.mu.Lock()

	idx := r.findMetricSet(id)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.MetricSet{}, catalog.NewNotFoundError(EntityMetricSet, id)
	}

	if r.setNameTaken(name, id) {
		r.mu.Unlock()

		return catalog.MetricSet{}, catalog.NewFieldValidationError(catalog.ReasonNameCollision, "name")
	}

	set := &r.state.MetricSets[idx]
	set.Name = name
	payload.apply(set)
	set.UpdatedAt = r.timestamp()

	updated := set.Clone()
	r.mu.Unlock()

	r.log.WithField("id", id).Info("Updated metric set")
	r.notify(ChangeUpdated, EntityMetricSet, id)

	return updated, nil
}

// AddMetricsToSet merges slugs into a metric set, keeping existing order
func (r *Registry) AddMetricsToSet(id string, slugs []string) (catalog.MetricSet, error) {
	if len(slugs) == 0 {
		return catalog.MetricSet{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "metricSlugs")
	}

	r.mu.Lock()

	idx := r.findMetricSet(id)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.MetricSet{}, catalog.NewNotFoundError(EntityMetricSet, id)
	}

	set := &r.state.MetricSets[idx]
	set.MetricSlugs = catalog.UnionStrings(set.MetricSlugs, slugs)
	set.UpdatedAt = r.timestamp()

	updated := set.Clone()
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"id": id, "added": len(slugs)}).Info("Added metrics to set")
	r.notify(ChangeUpdated, EntityMetricSet, id)

	return updated, nil
}

// DeleteMetricSet removes a metric set
func (r *Registry) DeleteMetricSet(id string) error {
	r.mu.Lock()

	idx := r.findMetricSet(id)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.NewNotFoundError(EntityMetricSet, id)
	}

	r.state.MetricSets = append(r.state.MetricSets[:idx], r.state.MetricSets[idx+1:]...)
	r.mu.Unlock()

	r.log.WithField("id", id).Info("Deleted metric set")
	r.notify(ChangeDeleted, EntityMetricSet, id)

	return nil
}

func (r *Registry) findTag(id string) int {
	for i := range r.tags {
		if r.tags[i].ID == id {
			return i
		}
	}

	return -1
}

func (r *Registry) tagNameTaken(name, exceptID string) bool {
	for i := range r.tags {
		if r.tags[i].ID != exceptID && strings.EqualFold(strings.TrimSpace(r.tags[i].Name), name) {
			return true
		}
	}

	return false
}

// CreateTag adds a tag whose name is unique ignoring case
func (r *Registry) CreateTag(name string) (catalog.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Tag{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "name")
	}

	r.mu.Lock()

	if r.tagNameTaken(name, "") {
		r.mu.Unlock()

		return catalog.Tag{}, catalog.NewFieldValidationError(catalog.ReasonNameCollision, "name")
	}

	tag := catalog.Tag{ID: "tag-" + r.newID(), Name: name}
	r.tags = append(r.tags, tag)
	r.mu.Unlock()

	r.log.WithField("tag", name).Info("Created tag")
	r.notify(ChangeCreated, EntityTag, tag.ID)

	return tag, nil
}

// RenameTag changes a tag name, keeping names unique ignoring case
func (r *Registry) RenameTag(id, name string) (catalog.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Tag{}, catalog.NewFieldValidationError(catalog.ReasonMissingField, "name")
	}

	r.mu.Lock()

	idx := r.findTag(id)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.Tag{}, catalog.NewNotFoundError(EntityTag, id)
	}

	if r.tagNameTaken(name, id) {
		r.mu.Unlock()

		return catalog.Tag{}, catalog.NewFieldValidationError(catalog.ReasonNameCollision, "name")
	}

	r.tags[idx].Name = name
	tag := r.tags[idx]
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{"tag": id, "name": name}).Info("Renamed tag")
	r.notify(ChangeUpdated, EntityTag, id)

	return tag, nil
}

// DeleteTag removes a tag and strips it from every metric set
func (r *Registry) DeleteTag(id string) error {
	r.mu.Lock()

	idx := r.findTag(id)
	if idx < 0 {
		r.mu.Unlock()

		return catalog.NewNotFoundError(EntityTag, id)
	}

	r.tags = append(r.tags[:idx], r.tags[idx+1:]...)

	for i := range r.state.MetricSets {
		r.state.MetricSets[i].Tags = catalog.RemoveString(r.state.MetricSets[i].Tags, id)
	}

	r.mu.Unlock()

	r.log.WithField("tag", id).Info("Deleted tag")
	r.notify(ChangeDeleted, EntityTag, id)

	return nil
}
