// Package profile renders a metric profile as text with Sprig template functions
package profile

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/ethpandaops/datasage/pkg/catalog"
)

// DefaultTemplate is the layout used by the CLI and the profile endpoint
const DefaultTemplate = `{{ .name }} ({{ .slug }})
{{ repeat (len .header) "=" }}
Status:      {{ .status }}
Domain:      {{ .domain }}
Category:    {{ .categoryPath | join " › " | default "-" }}
Owners:      {{ .owners.business | default "-" }} (business), {{ .owners.tech | default "-" }} (tech)
Heat:        {{ .heat }}
{{- with .larkSheetLink }}
Sheet:       {{ . }}
{{- end }}
{{- with .createdAt }}
Created:     {{ . }}
{{- end }}
{{- with .updatedAt }}
Updated:     {{ . }}
{{- end }}

Business definition
{{ .businessDefinition | default "-" | indent 2 }}

Technical definition
{{ .technicalDefinition | default "-" | indent 2 }}

Query definitions ({{ len .queries }})
{{- range $i, $q := .queries }}
  [{{ add1 $i }}] {{ $q.id }} {{ $q.type | default "-" }} from {{ $q.source | default "-" }}
      aggregate: {{ $q.aggregate | default "-" }}{{ with $q.originField }} of {{ . }}{{ end }}
      {{- with $q.businessDate }}
      business date: {{ . }}
      {{- end }}
      {{- if $q.filters }}
      filters: {{ $q.filters | join " AND " }}
      {{- end }}
      {{- if $q.analysisDimensions }}
      analysis dimensions: {{ $q.analysisDimensions | join ", " }}
      {{- end }}
{{- else }}
  none
{{- end }}

Bound dimensions: {{ .boundDimensions | join ", " | default "none" }}
{{- if .trend.points }}
Trend ({{ .trend.points }} points): min {{ .trend.min }}, max {{ .trend.max }}, last {{ .trend.last }}
{{- end }}
`

// TemplateEngine provides template rendering with Sprig functions
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a new template engine with Sprig functions
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: sprig.TxtFuncMap(),
	}
}

// Render renders a template with the given variables
func (t *TemplateEngine) Render(content string, variables map[string]interface{}) (string, error) {
	tmpl, err := template.New("profile").Funcs(t.funcMap).Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// TrendSummary condenses the display series
type TrendSummary struct {
	Points int
	Min    string
	Max    string
	Last   string
}

// SummarizeTrend returns min, max and last value of the series
func SummarizeTrend(points []catalog.TrendPoint) TrendSummary {
	if len(points) == 0 {
		return TrendSummary{}
	}

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		if p.Value < lo {
			lo = p.Value
		}

		if p.Value > hi {
			hi = p.Value
		}
	}

	return TrendSummary{
		Points: len(points),
		Min:    catalog.FormatNumber(lo),
		Max:    catalog.FormatNumber(hi),
		Last:   catalog.FormatNumber(points[len(points)-1].Value),
	}
}

// BuildVariables exposes a metric to the profile template
func BuildVariables(m *catalog.Metric) map[string]interface{} {
	queries := make([]map[string]interface{}, 0, len(m.QueryDefinitions))
	for _, q := range m.QueryDefinitions {
		queries = append(queries, map[string]interface{}{
			"id":                 q.ID,
			"type":               q.Type,
			"source":             q.Source,
			"originField":        q.OriginField,
			"aggregate":          q.Aggregate,
			"businessDate":       q.BusinessDate,
			"filters":            q.Filters,
			"analysisDimensions": q.AnalysisDimensions,
		})
	}

	trend := SummarizeTrend(m.Trend30d)

	return map[string]interface{}{
		"name":                m.BusinessName,
		"slug":                m.Slug,
		"header":              fmt.Sprintf("%s (%s)", m.BusinessName, m.Slug),
		"status":              string(m.Status),
		"domain":              m.Domain,
		"categoryPath":        m.CategoryPath,
		"businessDefinition":  m.BusinessDefinition,
		"technicalDefinition": m.TechnicalDefinition,
		"larkSheetLink":       m.LarkSheetLink,
		"createdAt":           m.CreatedAt,
		"updatedAt":           m.UpdatedAt,
		"heat":                m.Heat,
		"owners": map[string]interface{}{
			"business": m.Owners.BusinessOwner,
			"tech":     m.Owners.TechOwner,
		},
		"queries":         queries,
		"boundDimensions": m.BoundDimensionSlugs,
		"trend": map[string]interface{}{
			"points": trend.Points,
			"min":    trend.Min,
			"max":    trend.Max,
			"last":   trend.Last,
		},
	}
}

// Renderer renders metric profiles with a fixed template
type Renderer struct {
	engine   *TemplateEngine
	template string
}

// NewRenderer creates a renderer. An empty template selects DefaultTemplate.
func NewRenderer(tmpl string) *Renderer {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	return &Renderer{
		engine:   NewTemplateEngine(),
		template: tmpl,
	}
}

// Render renders the profile of m
func (r *Renderer) Render(m *catalog.Metric) (string, error) {
	return r.engine.Render(r.template, BuildVariables(m))
}
