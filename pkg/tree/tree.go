// Package tree provides traversal helpers for the dimension and category trees
package tree

import (
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
)

// Badge classifies a top-level dimension group
type Badge string

// Badges assigned from keywords in the group name
const (
	BadgeCore      Badge = "Core"
	BadgeFinancial Badge = "Financial"
	BadgeSystem    Badge = "System"
	BadgeReporting Badge = "Reporting"
	BadgeBusiness  Badge = "Business"
)

// CountFields counts the dimension slugs of node and all of its descendants
func CountFields(node *catalog.DimensionTreeNode) int {
	count := len(node.DimensionSlugs)
	for i := range node.Children {
		count += CountFields(&node.Children[i])
	}

	return count
}

// FindNode returns the first node with the given id in depth-first order
func FindNode(nodes []catalog.DimensionTreeNode, id string) (*catalog.DimensionTreeNode, bool) {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i], true
		}

		if found, ok := FindNode(nodes[i].Children, id); ok {
			return found, true
		}
	}

	return nil, false
}

// CollectSlugs returns the distinct dimension slugs under node, parents before
// children
func CollectSlugs(node *catalog.DimensionTreeNode) []string {
	var lists [][]string

	var walk func(n *catalog.DimensionTreeNode)
	walk = func(n *catalog.DimensionTreeNode) {
		lists = append(lists, n.DimensionSlugs)
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}

	walk(node)

	return catalog.UnionStrings(lists...)
}

// FilterByDimensions prunes the forest to the allowed slugs. Counts are
// recomputed from what survives and nodes left empty are dropped. A nil
// allowed set keeps the forest as is.
func FilterByDimensions(nodes []catalog.DimensionTreeNode, allowed map[string]struct{}) []catalog.DimensionTreeNode {
	out := make([]catalog.DimensionTreeNode, 0, len(nodes))

	if allowed == nil {
		for i := range nodes {
			out = append(out, nodes[i].Clone())
		}

		return out
	}

	for i := range nodes {
		if node, ok := filterNode(&nodes[i], allowed); ok {
			out = append(out, node)
		}
	}

	return out
}

func filterNode(node *catalog.DimensionTreeNode, allowed map[string]struct{}) (catalog.DimensionTreeNode, bool) {
	var children []catalog.DimensionTreeNode

	childCount := 0

	for i := range node.Children {
		if child, ok := filterNode(&node.Children[i], allowed); ok {
			children = append(children, child)
			childCount += child.Count
		}
	}

	var own []string

	for _, slug := range node.DimensionSlugs {
		if _, ok := allowed[slug]; ok {
			own = append(own, slug)
		}
	}

	total := len(own) + childCount
	if total == 0 {
		return catalog.DimensionTreeNode{}, false
	}

	return catalog.DimensionTreeNode{
		ID:             node.ID,
		Name:           node.Name,
		Count:          total,
		Children:       children,
		DimensionSlugs: own,
	}, true
}

// BadgeFor classifies a group by keywords in its name
func BadgeFor(name string) Badge {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "user") || strings.Contains(lower, "core"):
		return BadgeCore
	case strings.Contains(lower, "finance") || strings.Contains(lower, "pay"):
		return BadgeFinancial
	case strings.Contains(lower, "meta") || strings.Contains(lower, "system"):
		return BadgeSystem
	case strings.Contains(lower, "analytic"):
		return BadgeReporting
	default:
		return BadgeBusiness
	}
}

// DescribeGroup returns the blurb shown for a group
func DescribeGroup(name string) string {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "user"):
		return "Fields related to user information, profiles, and account settings."
	case strings.Contains(lower, "product"):
		return "Product catalog, inventory status, and SKU details."
	case strings.Contains(lower, "order"):
		return "Order processing, shipping tracking, and fulfillment data."
	case strings.Contains(lower, "pay"):
		return "Payment methods, transaction history, and billing records."
	case strings.Contains(lower, "analytic"):
		return "Key performance indicators, usage metrics, and analytics tracking."
	case strings.Contains(lower, "meta"):
		return "System-level metadata, timestamps, and version control info."
	default:
		return "General data fields and dimensions for this category."
	}
}

// Summary describes one top-level dimension group
type Summary struct {
	Node        catalog.DimensionTreeNode `json:"node"`
	TotalFields int                       `json:"totalFields"`
	Badge       Badge                     `json:"badge"`
	Description string                    `json:"description"`
}

// Summaries summarizes each root of the forest
func Summaries(nodes []catalog.DimensionTreeNode) []Summary {
	out := make([]Summary, 0, len(nodes))

	for i := range nodes {
		out = append(out, Summary{
			Node:        nodes[i].Clone(),
			TotalFields: CountFields(&nodes[i]),
			Badge:       BadgeFor(nodes[i].Name),
			Description: DescribeGroup(nodes[i].Name),
		})
	}

	return out
}

// FlattenCategories returns every root-to-leaf path of the category forest in
// depth-first order
func FlattenCategories(nodes []catalog.CategoryNode) [][]string {
	var out [][]string

	var walk func(nodes []catalog.CategoryNode, prefix []string)
	walk = func(nodes []catalog.CategoryNode, prefix []string) {
		for i := range nodes {
			path := make([]string, len(prefix)+1)
			copy(path, prefix)
			path[len(prefix)] = nodes[i].Name

			if len(nodes[i].Children) > 0 {
				walk(nodes[i].Children, path)
				continue
			}

			out = append(out, path)
		}
	}

	walk(nodes, nil)

	if out == nil {
		return [][]string{}
	}

	return out
}

// CategoryPathExists reports whether path is a root-to-leaf path of the forest
func CategoryPathExists(nodes []catalog.CategoryNode, path []string) bool {
	want := catalog.JoinCategoryPath(path)

	for _, p := range FlattenCategories(nodes) {
		if catalog.JoinCategoryPath(p) == want {
			return true
		}
	}

	return false
}
