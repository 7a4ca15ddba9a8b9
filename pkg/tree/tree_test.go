package tree

import (
	"testing"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForest() []catalog.DimensionTreeNode {
	return []catalog.DimensionTreeNode{
		{
			ID:             "t-core",
			Name:           "Core user attributes",
			Count:          3,
			DimensionSlugs: []string{"platform"},
			Children: []catalog.DimensionTreeNode{
				{ID: "t-geo", Name: "Geography", Count: 2, DimensionSlugs: []string{"region", "country", "platform"}},
			},
		},
		{
			ID:             "t-system",
			Name:           "System metadata",
			Count:          1,
			DimensionSlugs: []string{"cloud_provider"},
		},
	}
}

func TestCountFields(t *testing.T) {
	forest := testForest()

	assert.Equal(t, 4, CountFields(&forest[0]))
	assert.Equal(t, 1, CountFields(&forest[1]))
}

func TestFindNode(t *testing.T) {
	forest := testForest()

	node, ok := FindNode(forest, "t-geo")
	require.True(t, ok)
	assert.Equal(t, "Geography", node.Name)

	_, ok = FindNode(forest, "t-none")
	assert.False(t, ok)
}

func TestCollectSlugs(t *testing.T) {
	forest := testForest()

	assert.Equal(t, []string{"platform", "region", "country"}, CollectSlugs(&forest[0]))
}

func TestFilterByDimensions(t *testing.T) {
	forest := testForest()

	got := FilterByDimensions(forest, map[string]struct{}{"region": {}, "country": {}})

	require.Len(t, got, 1)
	assert.Equal(t, "t-core", got[0].ID)
	assert.Equal(t, 2, got[0].Count)
	assert.Nil(t, got[0].DimensionSlugs)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, []string{"region", "country"}, got[0].Children[0].DimensionSlugs)
	assert.Equal(t, 2, got[0].Children[0].Count)

	// The input is untouched
	assert.Equal(t, 3, forest[0].Count)
	assert.Len(t, forest[0].Children[0].DimensionSlugs, 3)

	assert.Empty(t, FilterByDimensions(forest, map[string]struct{}{}))
	assert.Len(t, FilterByDimensions(forest, nil), 2)
}

func TestSummaries(t *testing.T) {
	summaries := Summaries(testForest())

	require.Len(t, summaries, 2)
	assert.Equal(t, BadgeCore, summaries[0].Badge)
	assert.Equal(t, 4, summaries[0].TotalFields)
	assert.Equal(t, BadgeSystem, summaries[1].Badge)
	assert.Equal(t, "System-level metadata, timestamps, and version control info.", summaries[1].Description)
}

func TestBadgeFor(t *testing.T) {
	tests := map[string]Badge{
		"Core user attributes": BadgeCore,
		"Payments":             BadgeFinancial,
		"Finance":              BadgeFinancial,
		"Metadata":             BadgeSystem,
		"Analytics":            BadgeReporting,
		"Marketing":            BadgeBusiness,
		"User payments":        BadgeCore,
	}

	for name, want := range tests {
		assert.Equal(t, want, BadgeFor(name), name)
	}
}

func TestFlattenCategories(t *testing.T) {
	nodes := []catalog.CategoryNode{
		{ID: "m", Name: "Monetization", Children: []catalog.CategoryNode{
			{ID: "r", Name: "Revenue"},
			{ID: "c", Name: "Cost"},
		}},
		{ID: "g", Name: "Growth"},
	}

	assert.Equal(t, [][]string{
		{"Monetization", "Revenue"},
		{"Monetization", "Cost"},
		{"Growth"},
	}, FlattenCategories(nodes))

	assert.True(t, CategoryPathExists(nodes, []string{"Monetization", "Cost"}))
	assert.False(t, CategoryPathExists(nodes, []string{"Monetization"}))
	assert.Equal(t, [][]string{}, FlattenCategories(nil))
}
