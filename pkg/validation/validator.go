// Package validation checks the referential integrity of a catalog
package validation

import (
	"fmt"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/lineage"
	"github.com/ethpandaops/datasage/pkg/tree"
	"github.com/sirupsen/logrus"
)

// Issue is a single integrity problem
type Issue struct {
	Entity string
	Key    string
	Err    error
}

// Error implements error
func (i Issue) Error() string {
	return fmt.Sprintf("%s %s: %s", i.Entity, i.Key, i.Err)
}

// Unwrap exposes the sentinel
func (i Issue) Unwrap() error {
	return i.Err
}

// Result contains the outcome of a catalog validation
type Result struct {
	Metrics int
	Issues  []Issue
}

// Valid reports whether no issue was found
func (r *Result) Valid() bool {
	return len(r.Issues) == 0
}

// Err returns ErrValidationFailed with the issue count, nil when valid
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}

	return fmt.Errorf("%w: %d issues", ErrValidationFailed, len(r.Issues))
}

func (r *Result) add(entity, key string, err error) {
	r.Issues = append(r.Issues, Issue{Entity: entity, Key: key, Err: err})
}

// Validator checks catalog snapshots
type Validator struct {
	log logrus.FieldLogger
}

// NewValidator creates a validator
func NewValidator(log logrus.FieldLogger) *Validator {
	return &Validator{log: log.WithField("component", "validation")}
}

func slugSet(n int, slug func(i int) string) map[string]struct{} {
	out := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		out[slug(i)] = struct{}{}
	}

	return out
}

// Validate checks that every reference in state resolves. Tag references of
// metric sets are checked against tags; a nil tags list skips that check.
func (v *Validator) Validate(state *catalog.DataState, tags []catalog.Tag) Result {
	result := Result{Metrics: len(state.Metrics)}

	domains := slugSet(len(state.Domains), func(i int) string { return state.Domains[i].ID })
	dimensions := slugSet(len(state.Dimensions), func(i int) string { return state.Dimensions[i].Slug })
	metrics := make(map[string]struct{}, len(state.Metrics))

	for i := range state.Metrics {
		m := &state.Metrics[i]

		if _, dup := metrics[m.Slug]; dup {
			result.add("metric", m.Slug, ErrDuplicateSlug)
			continue
		}

		metrics[m.Slug] = struct{}{}

		if _, ok := domains[m.Domain]; !ok && len(domains) > 0 {
			result.add("metric", m.Slug, fmt.Errorf("%w: %s", ErrUnknownDomain, m.Domain))
		}

		for _, slug := range m.BoundDimensionSlugs {
			if _, ok := dimensions[slug]; !ok {
				result.add("metric", m.Slug, fmt.Errorf("%w: %s", ErrUnknownDimension, slug))
			}
		}

		for _, q := range m.QueryDefinitions {
			if len(lineage.SourceTokens(q.Source)) == 0 {
				result.add("metric", m.Slug, fmt.Errorf("%w: %s", ErrMissingQuerySource, q.ID))
			}
		}
	}

	for i := range state.Dimensions {
		d := &state.Dimensions[i]
		for _, slug := range d.BoundMetricSlugs {
			if _, ok := metrics[slug]; !ok {
				result.add("dimension", d.Slug, fmt.Errorf("%w: %s", ErrUnknownMetric, slug))
			}
		}
	}

	var tagIDs map[string]struct{}
	if tags != nil {
		tagIDs = slugSet(len(tags), func(i int) string { return tags[i].ID })
	}

	for i := range state.MetricSets {
		set := &state.MetricSets[i]

		for _, slug := range set.MetricSlugs {
			if _, ok := metrics[slug]; !ok {
				result.add("metric set", set.ID, fmt.Errorf("%w: %s", ErrUnknownMetric, slug))
			}
		}

		if tagIDs == nil {
			continue
		}

		for _, id := range set.Tags {
			if _, ok := tagIDs[id]; !ok {
				result.add("metric set", set.ID, fmt.Errorf("%w: %s", ErrUnknownTag, id))
			}
		}
	}

	for i := range state.DimensionTree {
		node := &state.DimensionTree[i]
		for _, slug := range tree.CollectSlugs(node) {
			if _, ok := dimensions[slug]; !ok {
				result.add("dimension tree", node.ID, fmt.Errorf("%w: %s", ErrUnknownDimension, slug))
			}
		}
	}

	// The lineage graph needs unique slugs; duplicates are reported above
	if len(metrics) == len(state.Metrics) {
		if rejected, err := lineage.NewGraph().Build(state.Metrics); err == nil {
			for _, edge := range rejected {
				result.add("metric", edge.To, fmt.Errorf("%w: %s -> %s", ErrLineageCycle, edge.From, edge.To))
			}
		}
	}

	v.log.WithFields(logrus.Fields{
		"metrics": result.Metrics,
		"issues":  len(result.Issues),
	}).Debug("Validated catalog")

	return result
}
