package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethpandaops/datasage/internal/testutil"
	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cliState() catalog.DataState {
	return catalog.DataState{
		Metrics: []catalog.Metric{
			{
				ID:                  "m-rev",
				BusinessName:        "Revenue",
				Slug:                "rev",
				Domain:              "Monetization",
				Status:              catalog.StatusActive,
				TechnicalDefinition: "SELECT SUM(amount) FROM invoices",
				QueryDefinitions:    []catalog.QueryDefinition{{ID: "q-rev", Source: "invoices"}},
				UpdatedAt:           "2025-06-01T00:00:00.000Z",
			},
			{
				ID:           "m-cost",
				BusinessName: "Cost",
				Slug:         "cost",
				Domain:       "Monetization",
				Status:       catalog.StatusDraft,
			},
		},
		Dimensions: []catalog.Dimension{{ID: "region", Slug: "region", Name: "Region", Domain: "Monetization"}},
		Domains:    []catalog.Domain{{ID: "Monetization", Name: "Monetization"}},
	}
}

func resetFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(metricsCmd, metricsListCmd, metricsDeriveCmd, metricsLineageCmd, versionCmd)

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--no-color", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))

	err := rootCmd.Execute()

	return out.String(), err
}

func TestMetricsList(t *testing.T) {
	dir := testutil.WriteFixtures(t, cliState())

	out, err := runCLI(t, "metrics", "list", "--fixtures", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue")
	assert.Contains(t, out, "Cost")
	assert.Contains(t, out, "(2 metrics)")

	out, err = runCLI(t, "metrics", "list", "--fixtures", dir, "--status", "Draft")
	require.NoError(t, err)
	assert.NotContains(t, out, "Revenue")
	assert.Contains(t, out, "(1 metrics)")

	_, err = runCLI(t, "metrics", "list", "--fixtures", dir, "--sort", "bogus")
	assert.ErrorIs(t, err, catalog.ErrValidation)
}

func TestMetricsShow(t *testing.T) {
	dir := testutil.WriteFixtures(t, cliState())

	out, err := runCLI(t, "metrics", "show", "rev", "--fixtures", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue (rev)")

	_, err = runCLI(t, "metrics", "show", "nope", "--fixtures", dir)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestMetricsDerive(t *testing.T) {
	dir := testutil.WriteFixtures(t, cliState())

	spec := `{"mode":"filter","businessName":"Revenue US","slug":"rev_us","dimensionFilters":[{"dimensionSlug":"region","values":"US"}]}`

	out, err := runCLI(t, "metrics", "derive", "rev", "--fixtures", dir, "--spec", spec)
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue US (rev_us)")
	assert.Contains(t, out, "WHERE region IN (US)")
	assert.Contains(t, out, "Preview only")

	specFile := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, os.WriteFile(specFile, []byte(`{"mode":"arithmetic","businessName":"Net","slug":"net","otherMetricSlug":"cost","operator":"sub"}`), 0o600))

	out, err = runCLI(t, "metrics", "derive", "rev", "--fixtures", dir, "--spec", "@"+specFile)
	require.NoError(t, err)
	assert.Contains(t, out, "rev - cost AS net;")

	_, err = runCLI(t, "metrics", "derive", "rev", "--fixtures", dir, "--spec", `{"mode":"filter","businessName":"x","slug":"cost","dimensionFilters":[{"dimensionSlug":"region","values":"US"}]}`)
	assert.ErrorIs(t, err, catalog.ErrValidation)
}

func TestMetricsLineage(t *testing.T) {
	dir := testutil.WriteFixtures(t, cliState())

	out, err := runCLI(t, "metrics", "lineage", "--fixtures", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Level 0:")
	assert.Contains(t, out, "• rev (metric) ← invoices")
	assert.Contains(t, out, "Total nodes: 3")

	out, err = runCLI(t, "metrics", "lineage", "--fixtures", dir, "--dot")
	require.NoError(t, err)
	assert.Contains(t, out, `"invoices" -> "rev";`)

	out, err = runCLI(t, "metrics", "lineage", "rev", "--fixtures", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"invoices"`)
}

func TestMetricsValidate(t *testing.T) {
	out, err := runCLI(t, "metrics", "validate", "--fixtures", testutil.WriteFixtures(t, cliState()))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 metrics, no issues")

	broken := cliState()
	broken.Metrics[1].BoundDimensionSlugs = []string{"platform"}

	out, err = runCLI(t, "metrics", "validate", "--fixtures", testutil.WriteFixtures(t, broken))
	assert.ErrorIs(t, err, validation.ErrValidationFailed)
	assert.Contains(t, out, "✗ metric cost: dimension not found: platform")
}

func TestMetricsMissingFixtures(t *testing.T) {
	_, err := runCLI(t, "metrics", "list", "--fixtures", filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, catalog.ErrFixtureLoad)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "datasage dev (none)")
}
