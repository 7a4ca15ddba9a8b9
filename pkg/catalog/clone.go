package catalog

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}

	out := make([]string, len(in))
	copy(out, in)

	return out
}

// Clone returns a deep copy of the query definition
func (q QueryDefinition) Clone() QueryDefinition {
	q.Filters = cloneStrings(q.Filters)
	q.AnalysisDimensions = cloneStrings(q.AnalysisDimensions)

	return q
}

// Clone returns a deep copy of the metric
func (m Metric) Clone() Metric {
	m.CategoryPath = cloneStrings(m.CategoryPath)
	m.BoundDimensionSlugs = cloneStrings(m.BoundDimensionSlugs)

	if m.QueryDefinitions != nil {
		queries := make([]QueryDefinition, len(m.QueryDefinitions))
		for i, q := range m.QueryDefinitions {
			queries[i] = q.Clone()
		}
		m.QueryDefinitions = queries
	}

	if m.Trend30d != nil {
		m.Trend30d = append([]TrendPoint(nil), m.Trend30d...)
	}

	if m.TopDimensions != nil {
		m.TopDimensions = append([]TopDimensionPoint(nil), m.TopDimensions...)
	}

	return m
}

// Clone returns a deep copy of the dimension
func (d Dimension) Clone() Dimension {
	d.Aliases = cloneStrings(d.Aliases)
	d.Scope = cloneStrings(d.Scope)
	d.BoundMetricSlugs = cloneStrings(d.BoundMetricSlugs)

	if d.Values != nil {
		d.Values = append([]DimensionValue(nil), d.Values...)
	}

	return d
}

// Clone returns a deep copy of the metric set
func (s MetricSet) Clone() MetricSet {
	s.MetricSlugs = cloneStrings(s.MetricSlugs)
	s.Tags = cloneStrings(s.Tags)

	return s
}

// Clone returns a deep copy of the category subtree
func (n CategoryNode) Clone() CategoryNode {
	n.MetricSlugs = cloneStrings(n.MetricSlugs)

	if n.Children != nil {
		children := make([]CategoryNode, len(n.Children))
		for i, c := range n.Children {
			children[i] = c.Clone()
		}
		n.Children = children
	}

	return n
}

// Clone returns a deep copy of the dimension subtree
func (n DimensionTreeNode) Clone() DimensionTreeNode {
	n.DimensionSlugs = cloneStrings(n.DimensionSlugs)

	if n.Children != nil {
		children := make([]DimensionTreeNode, len(n.Children))
		for i, c := range n.Children {
			children[i] = c.Clone()
		}
		n.Children = children
	}

	return n
}

// Clone returns a deep copy of the domain
func (d Domain) Clone() Domain {
	if d.Permitted != nil {
		permitted := *d.Permitted
		d.Permitted = &permitted
	}

	return d
}

// Clone returns a deep copy of the whole state
func (s *DataState) Clone() DataState {
	out := DataState{
		Metrics:       make([]Metric, len(s.Metrics)),
		Dimensions:    make([]Dimension, len(s.Dimensions)),
		MetricSets:    make([]MetricSet, len(s.MetricSets)),
		Categories:    make([]CategoryNode, len(s.Categories)),
		Domains:       make([]Domain, len(s.Domains)),
		DimensionTree: make([]DimensionTreeNode, len(s.DimensionTree)),
	}

	for i := range s.Metrics {
		out.Metrics[i] = s.Metrics[i].Clone()
	}
	for i := range s.Dimensions {
		out.Dimensions[i] = s.Dimensions[i].Clone()
	}
	for i := range s.MetricSets {
		out.MetricSets[i] = s.MetricSets[i].Clone()
	}
	for i := range s.Categories {
		out.Categories[i] = s.Categories[i].Clone()
	}
	for i := range s.Domains {
		out.Domains[i] = s.Domains[i].Clone()
	}
	for i := range s.DimensionTree {
		out.DimensionTree[i] = s.DimensionTree[i].Clone()
	}

	return out
}
