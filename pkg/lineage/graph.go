// Package lineage builds the upstream graph of metrics from their query sources
package lineage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/heimdalr/dag"
)

var (
	// ErrDuplicateMetric is returned when two metrics share a slug
	ErrDuplicateMetric = errors.New("duplicate metric slug in lineage graph")
	// ErrInvalidNodeType is returned when a vertex holds an unexpected value
	ErrInvalidNodeType = errors.New("invalid node type")
)

// NodeType distinguishes catalog metrics from raw datasets
type NodeType string

const (
	// NodeTypeMetric is a metric registered in the catalog
	NodeTypeMetric NodeType = "metric"
	// NodeTypeDataset is a source that is not a catalog metric
	NodeTypeDataset NodeType = "dataset"
)

// Node is a vertex of the lineage graph
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
}

// RejectedEdge is an upstream reference that would have introduced a cycle
type RejectedEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Reader provides read-only access to the lineage graph
type Reader interface {
	// Node returns a vertex by id
	Node(id string) (Node, error)

	// Upstream returns the direct sources of a node
	Upstream(id string) []string

	// Downstream returns the nodes directly built from a node
	Downstream(id string) []string

	// AllUpstream returns every transitive source
	AllUpstream(id string) []string

	// AllDownstream returns every transitive consumer
	AllDownstream(id string) []string

	// Levels groups nodes by their distance from the roots
	Levels() map[int][]string

	// Roots returns nodes without upstream
	Roots() []string

	// DOT renders the graph in graphviz format
	DOT() string
}

// Graph is the metric lineage DAG. Edges point from an upstream source to
// the metric that reads it.
type Graph struct {
	dag      *dag.DAG
	mutex    sync.RWMutex
	nodes    map[string]Node
	upstream map[string][]string
	rejected []RejectedEdge
}

// NewGraph creates an empty lineage graph
func NewGraph() *Graph {
	return &Graph{
		dag:      dag.NewDAG(),
		nodes:    make(map[string]Node),
		upstream: make(map[string][]string),
	}
}

// SourceTokens splits a query source into its comma separated references
func SourceTokens(source string) []string {
	return catalog.NormalizeDimensions(source)
}

// Build replaces the graph with the lineage of metrics. Upstream references
// that would close a cycle are skipped and returned.
func (g *Graph) Build(metrics []catalog.Metric) ([]RejectedEdge, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.dag = dag.NewDAG()
	g.nodes = make(map[string]Node)
	g.upstream = make(map[string][]string)
	g.rejected = nil

	for i := range metrics {
		slug := metrics[i].Slug
		if _, exists := g.nodes[slug]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMetric, slug)
		}

		if err := g.addVertex(Node{ID: slug, Type: NodeTypeMetric}); err != nil {
			return nil, err
		}
	}

	for i := range metrics {
		if err := g.addSources(&metrics[i]); err != nil {
			return nil, err
		}
	}

	rejected := make([]RejectedEdge, len(g.rejected))
	copy(rejected, g.rejected)

	return rejected, nil
}

func (g *Graph) addVertex(node Node) error {
	if err := g.dag.AddVertexByID(node.ID, node); err != nil {
		return fmt.Errorf("failed to add vertex %s: %w", node.ID, err)
	}

	g.nodes[node.ID] = node

	return nil
}

func (g *Graph) addSources(m *catalog.Metric) error {
	var lists [][]string
	for _, q := range m.QueryDefinitions {
		lists = append(lists, SourceTokens(q.Source))
	}

	for _, source := range catalog.UnionStrings(lists...) {
		if _, exists := g.nodes[source]; !exists {
			if err := g.addVertex(Node{ID: source, Type: NodeTypeDataset}); err != nil {
				return err
			}
		}

		// AddEdge refuses self loops and edges that would close a cycle
		if err := g.dag.AddEdge(source, m.Slug); err != nil {
			g.rejected = append(g.rejected, RejectedEdge{From: source, To: m.Slug, Reason: err.Error()})
			continue
		}

		g.upstream[m.Slug] = append(g.upstream[m.Slug], source)
	}

	return nil
}

// Rejected returns the upstream references skipped by the last Build
func (g *Graph) Rejected() []RejectedEdge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]RejectedEdge, len(g.rejected))
	copy(out, g.rejected)

	return out
}

// Node returns a vertex by id
func (g *Graph) Node(id string) (Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	vertex, err := g.dag.GetVertex(id)
	if err != nil {
		return Node{}, err
	}

	node, ok := vertex.(Node)
	if !ok {
		return Node{}, fmt.Errorf("%w for %s", ErrInvalidNodeType, id)
	}

	return node, nil
}

func sortedIDs(m map[string]interface{}, err error) []string {
	if err != nil {
		return nil
	}

	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Upstream returns the direct sources of a node
func (g *Graph) Upstream(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return sortedIDs(g.dag.GetParents(id))
}

// Downstream returns the nodes directly built from a node
func (g *Graph) Downstream(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return sortedIDs(g.dag.GetChildren(id))
}

// AllUpstream returns every transitive source of a node
func (g *Graph) AllUpstream(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return sortedIDs(g.dag.GetAncestors(id))
}

// AllDownstream returns every transitive consumer of a node
func (g *Graph) AllDownstream(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return sortedIDs(g.dag.GetDescendants(id))
}

// Levels groups nodes by the length of their longest upstream chain
func (g *Graph) Levels() map[int][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	levels := g.calculateLevels()

	groups := make(map[int][]string)
	for id, level := range levels {
		groups[level] = append(groups[level], id)
	}

	for level := range groups {
		sort.Strings(groups[level])
	}

	return groups
}

// calculateLevels relaxes levels until stable; the graph is acyclic so this
// terminates
func (g *Graph) calculateLevels() map[string]int {
	levels := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		levels[id] = 0
	}

	changed := true
	for changed {
		changed = false

		for id, deps := range g.upstream {
			for _, dep := range deps {
				if levels[dep]+1 > levels[id] {
					levels[id] = levels[dep] + 1
					changed = true
				}
			}
		}
	}

	return levels
}

// Roots returns nodes without upstream, sorted
func (g *Graph) Roots() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	roots := []string{}
	for id := range g.nodes {
		if len(g.upstream[id]) == 0 {
			roots = append(roots, id)
		}
	}

	sort.Strings(roots)

	return roots
}

// DOT renders the graph in graphviz format with datasets drawn as boxes
func (g *Graph) DOT() string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	var sb strings.Builder
	sb.WriteString("digraph metrics {\n")
	sb.WriteString("  rankdir=LR;\n")

	for _, id := range ids {
		if g.nodes[id].Type == NodeTypeDataset {
			fmt.Fprintf(&sb, "  %q [shape=box, style=filled, fillcolor=lightblue];\n", id)
		} else {
			fmt.Fprintf(&sb, "  %q;\n", id)
		}

		for _, dep := range g.upstream[id] {
			fmt.Fprintf(&sb, "  %q -> %q;\n", dep, id)
		}
	}

	sb.WriteString("}")

	return sb.String()
}

// Ensure Graph implements Reader
var _ Reader = (*Graph)(nil)
