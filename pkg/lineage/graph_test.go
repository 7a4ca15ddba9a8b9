package lineage

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metric(slug string, sources ...string) catalog.Metric {
	queries := make([]catalog.QueryDefinition, 0, len(sources))
	for _, s := range sources {
		queries = append(queries, catalog.QueryDefinition{Source: s})
	}

	return catalog.Metric{Slug: slug, QueryDefinitions: queries}
}

func testCatalog() []catalog.Metric {
	return []catalog.Metric{
		metric("gross_revenue", "billing.invoices"),
		metric("infra_cost", "finops.daily_cost"),
		metric("gross_margin", "gross_revenue, infra_cost"),
		metric("margin_pct", "gross_margin,gross_revenue"),
		metric("signups"),
	}
}

func TestBuild(t *testing.T) {
	g := NewGraph()

	rejected, err := g.Build(testCatalog())
	require.NoError(t, err)
	assert.Empty(t, rejected)

	node, err := g.Node("billing.invoices")
	require.NoError(t, err)
	assert.Equal(t, NodeTypeDataset, node.Type)

	node, err = g.Node("gross_margin")
	require.NoError(t, err)
	assert.Equal(t, NodeTypeMetric, node.Type)

	assert.Equal(t, []string{"gross_revenue", "infra_cost"}, g.Upstream("gross_margin"))
	assert.Equal(t, []string{"gross_margin", "margin_pct"}, g.Downstream("gross_revenue"))
	assert.Equal(t,
		[]string{"billing.invoices", "finops.daily_cost", "gross_margin", "gross_revenue", "infra_cost"},
		g.AllUpstream("margin_pct"))
	assert.Equal(t, []string{"gross_margin", "gross_revenue", "margin_pct"}, g.AllDownstream("billing.invoices"))
	assert.Nil(t, g.Upstream("missing"))
}

func TestBuild_RejectsCycles(t *testing.T) {
	g := NewGraph()

	rejected, err := g.Build([]catalog.Metric{
		metric("a", "b"),
		metric("b", "a"),
		metric("c", "c"),
	})
	require.NoError(t, err)

	require.Len(t, rejected, 2)
	assert.Equal(t, "a", rejected[0].From)
	assert.Equal(t, "b", rejected[0].To)
	assert.Equal(t, "c", rejected[1].From)
	assert.Equal(t, "c", rejected[1].To)
	assert.NotEmpty(t, rejected[0].Reason)

	assert.Equal(t, []string{"b"}, g.Upstream("a"))
	assert.Empty(t, g.Upstream("b"))
	assert.Equal(t, rejected, g.Rejected())
}

func TestBuild_DuplicateSlug(t *testing.T) {
	_, err := NewGraph().Build([]catalog.Metric{metric("a"), metric("a")})
	assert.True(t, errors.Is(err, ErrDuplicateMetric))
}

func TestBuild_Resets(t *testing.T) {
	g := NewGraph()

	_, err := g.Build(testCatalog())
	require.NoError(t, err)

	_, err = g.Build([]catalog.Metric{metric("solo", "raw.table")})
	require.NoError(t, err)

	_, err = g.Node("gross_revenue")
	assert.Error(t, err)
	assert.Equal(t, []string{"raw.table"}, g.Roots())
}

func TestLevelsAndRoots(t *testing.T) {
	g := NewGraph()
	_, err := g.Build(testCatalog())
	require.NoError(t, err)

	levels := g.Levels()
	assert.Equal(t, []string{"billing.invoices", "finops.daily_cost", "signups"}, levels[0])
	assert.Equal(t, []string{"gross_revenue", "infra_cost"}, levels[1])
	assert.Equal(t, []string{"gross_margin"}, levels[2])
	assert.Equal(t, []string{"margin_pct"}, levels[3])

	assert.Equal(t, []string{"billing.invoices", "finops.daily_cost", "signups"}, g.Roots())

	info := g.Info()
	assert.Equal(t, 3, info.MaxLevel)
	assert.Equal(t, 7, info.TotalNodes)
}

func TestLineage(t *testing.T) {
	g := NewGraph()
	_, err := g.Build(testCatalog())
	require.NoError(t, err)

	l, err := g.Lineage("gross_margin")
	require.NoError(t, err)
	assert.Equal(t, []string{"gross_revenue", "infra_cost"}, l.Upstream)
	assert.Equal(t, []string{"margin_pct"}, l.Downstream)

	l, err = g.Lineage("signups")
	require.NoError(t, err)
	assert.Equal(t, []string{}, l.Upstream)

	_, err = g.Lineage("billing.invoices")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	_, err = g.Lineage("nope")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestDOT(t *testing.T) {
	g := NewGraph()
	_, err := g.Build(testCatalog())
	require.NoError(t, err)

	dot := g.DOT()

	assert.True(t, strings.HasPrefix(dot, "digraph metrics {\n  rankdir=LR;\n"))
	assert.True(t, strings.HasSuffix(dot, "}"))
	assert.Contains(t, dot, `"billing.invoices" [shape=box, style=filled, fillcolor=lightblue];`)
	assert.Contains(t, dot, `"gross_revenue" -> "gross_margin";`)
	assert.Contains(t, dot, `"infra_cost" -> "gross_margin";`)
	assert.Contains(t, dot, `"signups";`)
}

func TestSourceTokens(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SourceTokens(" a ,, b "))
	assert.Equal(t, []string{}, SourceTokens(""))
}
