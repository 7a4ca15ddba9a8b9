package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Fixture file names inside the fixtures directory
const (
	MetricsFile       = "metrics.json"
	DimensionsFile    = "dimensions.json"
	MetricSetsFile    = "metricSets.json"
	CategoriesFile    = "categories.json"
	DomainsFile       = "domains.json"
	DimensionTreeFile = "dimensionsTree.json"
)

var (
	// ErrFixtureLoad is returned when any fixture file cannot be read or parsed
	ErrFixtureLoad = errors.New("failed to load catalog fixtures")
)

type metricsFile struct {
	Metrics []Metric `json:"metrics"`
}

type dimensionsFile struct {
	Dimensions []Dimension `json:"dimensions"`
}

type metricSetsFile struct {
	MetricSets []MetricSet `json:"metricSets"`
}

type categoriesFile struct {
	Categories []CategoryNode `json:"categories"`
}

type domainsFile struct {
	Domains []Domain `json:"domains"`
}

type dimensionTreeFile struct {
	Nodes         []DimensionTreeNode `json:"nodes"`
	DimensionTree []DimensionTreeNode `json:"dimensionTree"`
}

// Loader reads the six catalog fixture files from a directory
type Loader struct {
	dir string
}

// NewLoader creates a loader for the configured fixtures directory
func NewLoader(cfg *Config) *Loader {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()

	return &Loader{dir: cfg.Path}
}

// Dir returns the fixtures directory
func (l *Loader) Dir() string {
	return l.dir
}

// Load reads every fixture file. All files must exist.
func (l *Loader) Load() (DataState, error) {
	var (
		metrics    metricsFile
		dimensions dimensionsFile
		sets       metricSetsFile
		categories categoriesFile
		domains    domainsFile
		tree       dimensionTreeFile
	)

	files := []struct {
		name string
		dest interface{}
	}{
		{MetricsFile, &metrics},
		{DimensionsFile, &dimensions},
		{MetricSetsFile, &sets},
		{CategoriesFile, &categories},
		{DomainsFile, &domains},
		{DimensionTreeFile, &tree},
	}

	for _, f := range files {
		if err := l.readJSON(f.name, f.dest); err != nil {
			return DataState{}, err
		}
	}

	nodes := tree.Nodes
	if nodes == nil {
		nodes = tree.DimensionTree
	}

	state := DataState{
		Metrics:       metrics.Metrics,
		Dimensions:    dimensions.Dimensions,
		MetricSets:    sets.MetricSets,
		Categories:    categories.Categories,
		Domains:       domains.Domains,
		DimensionTree: nodes,
	}

	Normalize(&state)

	return state, nil
}

func (l *Loader) readJSON(name string, dest interface{}) error {
	path := filepath.Join(l.dir, name)

	data, err := os.ReadFile(path) //nolint:gosec // fixture directory comes from configuration
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFixtureLoad, name, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFixtureLoad, name, err)
	}

	return nil
}

// Normalize replaces nil collections with empty ones so the state serializes
// with [] instead of null.
func Normalize(state *DataState) {
	if state.Metrics == nil {
		state.Metrics = []Metric{}
	}
	if state.Dimensions == nil {
		state.Dimensions = []Dimension{}
	}
	if state.MetricSets == nil {
		state.MetricSets = []MetricSet{}
	}
	if state.Categories == nil {
		state.Categories = []CategoryNode{}
	}
	if state.Domains == nil {
		state.Domains = []Domain{}
	}
	if state.DimensionTree == nil {
		state.DimensionTree = []DimensionTreeNode{}
	}

	for i := range state.Metrics {
		m := &state.Metrics[i]
		if m.CategoryPath == nil {
			m.CategoryPath = []string{}
		}
		if m.QueryDefinitions == nil {
			m.QueryDefinitions = []QueryDefinition{}
		}
		if m.BoundDimensionSlugs == nil {
			m.BoundDimensionSlugs = []string{}
		}
		if m.Trend30d == nil {
			m.Trend30d = []TrendPoint{}
		}
		if m.TopDimensions == nil {
			m.TopDimensions = []TopDimensionPoint{}
		}
		for j := range m.QueryDefinitions {
			q := &m.QueryDefinitions[j]
			if q.Filters == nil {
				q.Filters = []string{}
			}
			if q.AnalysisDimensions == nil {
				q.AnalysisDimensions = []string{}
			}
		}
	}

	for i := range state.Dimensions {
		if state.Dimensions[i].BoundMetricSlugs == nil {
			state.Dimensions[i].BoundMetricSlugs = []string{}
		}
		if state.Dimensions[i].Scope == nil {
			state.Dimensions[i].Scope = []string{}
		}
	}

	for i := range state.MetricSets {
		if state.MetricSets[i].Tags == nil {
			state.MetricSets[i].Tags = []string{}
		}
		if state.MetricSets[i].MetricSlugs == nil {
			state.MetricSets[i].MetricSlugs = []string{}
		}
	}
}
