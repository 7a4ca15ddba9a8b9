package registry

import (
	"errors"
	"testing"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMetricSet(t *testing.T) {
	r, rec := newTestRegistry(t)

	set, err := r.CreateMetricSet(MetricSetPayload{
		Name:        " Weekly ",
		MetricSlugs: []string{"rev", "rev", "cost"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a-1", set.ID)
	assert.Equal(t, "Weekly", set.Name)
	assert.Equal(t, "Custom", set.Domain)
	assert.Equal(t, catalog.VisibilityTeam, set.Visibility)
	assert.Equal(t, []string{"rev", "cost"}, set.MetricSlugs)
	assert.Equal(t, []string{}, set.Tags)
	assert.Equal(t, ChangeCreated, rec.last().Kind)

	_, err = r.CreateMetricSet(MetricSetPayload{Name: "Weekly"})
	assertValidation(t, err, catalog.ReasonNameCollision)

	_, err = r.CreateMetricSet(MetricSetPayload{Name: "  "})
	assertValidation(t, err, catalog.ReasonMissingField)
}

func TestUpdateMetricSet(t *testing.T) {
	r, _ := newTestRegistry(t)

	other, err := r.CreateMetricSet(MetricSetPayload{Name: "Other"})
	require.NoError(t, err)

	updated, err := r.UpdateMetricSet("a-review", MetricSetPayload{
		Name:       "Review",
		Domain:     "Monetization",
		Visibility: catalog.VisibilityPrivate,
		Tags:       []string{"tag-apac"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Monetization", updated.Domain)
	assert.Equal(t, catalog.VisibilityPrivate, updated.Visibility)
	assert.Equal(t, []string{"tag-apac"}, updated.Tags)

	_, err = r.UpdateMetricSet(other.ID, MetricSetPayload{Name: "Review"})
	assertValidation(t, err, catalog.ReasonNameCollision)

	_, err = r.UpdateMetricSet("a-missing", MetricSetPayload{Name: "x"})
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestAddMetricsToSet(t *testing.T) {
	r, _ := newTestRegistry(t)

	set, err := r.AddMetricsToSet("a-review", []string{"cost", "dau"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rev", "cost", "dau"}, set.MetricSlugs)

	_, err = r.AddMetricsToSet("a-review", nil)
	assertValidation(t, err, catalog.ReasonMissingField)
}

func TestDeleteMetricSet(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.DeleteMetricSet("a-review"))
	assert.Empty(t, r.Snapshot().MetricSets)
	assert.True(t, errors.Is(r.DeleteMetricSet("a-review"), catalog.ErrNotFound))
}

func TestTags(t *testing.T) {
	r, _ := newTestRegistry(t)

	tag, err := r.CreateTag(" LATAM ")
	require.NoError(t, err)
	assert.Equal(t, catalog.Tag{ID: "tag-1", Name: "LATAM"}, tag)

	_, err = r.CreateTag("latam")
	assertValidation(t, err, catalog.ReasonNameCollision)

	_, err = r.RenameTag("tag-us", "eu")
	assertValidation(t, err, catalog.ReasonNameCollision)

	renamed, err := r.RenameTag("tag-us", "us")
	require.NoError(t, err)
	assert.Equal(t, "us", renamed.Name)

	_, err = r.RenameTag("tag-missing", "x")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestDeleteTag_Cascades(t *testing.T) {
	r, rec := newTestRegistry(t)

	require.NoError(t, r.DeleteTag("tag-us"))

	assert.Len(t, r.Tags(), 3)
	assert.Equal(t, []string{"tag-eu"}, r.Snapshot().MetricSets[0].Tags)
	assert.Equal(t, ChangeEvent{Kind: ChangeDeleted, Entity: EntityTag, Key: "tag-us", At: testNow}, rec.last())

	assert.True(t, errors.Is(r.DeleteTag("tag-us"), catalog.ErrNotFound))
}
