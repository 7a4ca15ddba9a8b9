package lineage

import (
	"github.com/ethpandaops/datasage/pkg/catalog"
)

// MetricLineage is the neighbourhood of one metric
type MetricLineage struct {
	Metric        string   `json:"metric"`
	Upstream      []string `json:"upstream"`
	Downstream    []string `json:"downstream"`
	AllUpstream   []string `json:"allUpstream"`
	AllDownstream []string `json:"allDownstream"`
}

// Lineage returns the lineage of a metric vertex
func (g *Graph) Lineage(slug string) (MetricLineage, error) {
	node, err := g.Node(slug)
	if err != nil || node.Type != NodeTypeMetric {
		return MetricLineage{}, catalog.NewNotFoundError("metric", slug)
	}

	return MetricLineage{
		Metric:        slug,
		Upstream:      emptyIfNil(g.Upstream(slug)),
		Downstream:    emptyIfNil(g.Downstream(slug)),
		AllUpstream:   emptyIfNil(g.AllUpstream(slug)),
		AllDownstream: emptyIfNil(g.AllDownstream(slug)),
	}, nil
}

// Info summarizes the whole graph
type Info struct {
	Levels     map[int][]string `json:"levels"`
	MaxLevel   int              `json:"maxLevel"`
	Roots      []string         `json:"roots"`
	TotalNodes int              `json:"totalNodes"`
	Rejected   []RejectedEdge   `json:"rejected"`
}

// Info returns the level layout and roots of the graph
func (g *Graph) Info() *Info {
	levels := g.Levels()

	maxLevel := 0
	total := 0

	for level, ids := range levels {
		if level > maxLevel {
			maxLevel = level
		}

		total += len(ids)
	}

	return &Info{
		Levels:     levels,
		MaxLevel:   maxLevel,
		Roots:      g.Roots(),
		TotalNodes: total,
		Rejected:   g.Rejected(),
	}
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}

	return in
}
