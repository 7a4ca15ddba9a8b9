package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethpandaops/datasage/pkg/catalog"
)

// WriteFixtures writes state as a fixture directory in the layout the
// catalog loader reads and returns its path
func WriteFixtures(t *testing.T, state catalog.DataState) string {
	t.Helper()

	dir := t.TempDir()

	files := map[string]interface{}{
		catalog.MetricsFile:       map[string]interface{}{"metrics": state.Metrics},
		catalog.DimensionsFile:    map[string]interface{}{"dimensions": state.Dimensions},
		catalog.MetricSetsFile:    map[string]interface{}{"metricSets": state.MetricSets},
		catalog.CategoriesFile:    map[string]interface{}{"categories": state.Categories},
		catalog.DomainsFile:       map[string]interface{}{"domains": state.Domains},
		catalog.DimensionTreeFile: map[string]interface{}{"nodes": state.DimensionTree},
	}

	for name, body := range files {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode fixture %s: %v", name, err)
		}

		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}

	return dir
}
