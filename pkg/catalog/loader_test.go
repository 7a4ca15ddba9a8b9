package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	return dir
}

func minimalFixtures() map[string]string {
	return map[string]string{
		MetricsFile:       `{"metrics":[{"id":"m-1","slug":"rev","businessName":"Revenue","domain":"Monetization","queryDefinitions":[{"id":"q-1","source":"t"}]}]}`,
		DimensionsFile:    `{"dimensions":[{"id":"region","slug":"region","name":"Region","domain":"Monetization"}]}`,
		MetricSetsFile:    `{"metricSets":[{"id":"a-1","name":"Review","metricSlugs":["rev"]}]}`,
		CategoriesFile:    `{"categories":[{"id":"c-1","name":"Monetization"}]}`,
		DomainsFile:       `{"domains":[{"id":"Monetization","name":"Monetization"}]}`,
		DimensionTreeFile: `{"dimensionTree":[{"id":"t-1","name":"Geo","count":1,"dimensionSlugs":["region"]}]}`,
	}
}

func TestLoader_Load(t *testing.T) {
	dir := writeFixtures(t, minimalFixtures())

	state, err := NewLoader(&Config{Path: dir}).Load()
	require.NoError(t, err)

	require.Len(t, state.Metrics, 1)
	assert.Equal(t, "rev", state.Metrics[0].Slug)
	assert.Equal(t, []string{}, state.Metrics[0].BoundDimensionSlugs)
	assert.Equal(t, []string{}, state.Metrics[0].QueryDefinitions[0].Filters)
	assert.Equal(t, []string{}, state.Dimensions[0].BoundMetricSlugs)

	// A set without tags gets an empty list
	require.Len(t, state.MetricSets, 1)
	assert.Equal(t, []string{}, state.MetricSets[0].Tags)

	// dimensionTree is accepted when nodes is absent
	require.Len(t, state.DimensionTree, 1)
	assert.Equal(t, "t-1", state.DimensionTree[0].ID)
}

func TestLoader_PrefersNodes(t *testing.T) {
	files := minimalFixtures()
	files[DimensionTreeFile] = `{"nodes":[{"id":"n-1","name":"A"}],"dimensionTree":[{"id":"t-1","name":"B"}]}`

	state, err := NewLoader(&Config{Path: writeFixtures(t, files)}).Load()
	require.NoError(t, err)

	require.Len(t, state.DimensionTree, 1)
	assert.Equal(t, "n-1", state.DimensionTree[0].ID)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		file   string
	}{
		{
			name:   "missing file",
			mutate: func(f map[string]string) { delete(f, DomainsFile) },
			file:   DomainsFile,
		},
		{
			name:   "malformed json",
			mutate: func(f map[string]string) { f[MetricsFile] = `{"metrics":[` },
			file:   MetricsFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := minimalFixtures()
			tt.mutate(files)

			_, err := NewLoader(&Config{Path: writeFixtures(t, files)}).Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFixtureLoad))
			assert.Contains(t, err.Error(), tt.file)
		})
	}
}

func TestLoader_RepositoryFixtures(t *testing.T) {
	state, err := NewLoader(&Config{Path: filepath.Join("..", "..", "fixtures")}).Load()
	require.NoError(t, err)

	assert.True(t, state.HasMetricSlug("gross_revenue"))
	assert.True(t, state.HasMetricSlug("gross_margin"))
	assert.NotEmpty(t, state.Dimensions)
	assert.NotEmpty(t, state.Categories)
	assert.Len(t, state.Domains, 3)
	assert.Equal(t, "t-core", state.DimensionTree[0].ID)

	for _, set := range state.MetricSets {
		assert.NotNil(t, set.Tags, set.ID)
	}
}

func TestConfig(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrFixturesPathRequired)

	cfg.SetDefaults()
	assert.Equal(t, "fixtures", cfg.Path)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "fixtures", NewLoader(nil).Dir())
}
