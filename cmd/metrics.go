package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/derive"
	"github.com/ethpandaops/datasage/pkg/lineage"
	"github.com/ethpandaops/datasage/pkg/profile"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/ethpandaops/datasage/pkg/search"
	"github.com/ethpandaops/datasage/pkg/validation"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// metricsCmd represents the metrics command group
//
//nolint:gochecknoglobals // Cobra commands are typically global
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Inspect the fixture catalog offline",
	Long:  `Commands for listing, profiling, deriving and validating metrics straight from the fixture files.`,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var metricsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List metrics",
	Long:  `List metrics with the same filters and sort options as the API.`,
	RunE:  runMetricsList,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var metricsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Print the profile of a metric",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetricsShow,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var metricsDeriveCmd = &cobra.Command{
	Use:   "derive <base-slug>",
	Short: "Preview a derived metric",
	Long: `Derives a metric from the base and prints its profile. The derivation is JSON,
e.g. {"mode":"filter","businessName":"Revenue US","slug":"rev_us",
"dimensionFilters":[{"dimensionSlug":"region","values":"US"}]}. Prefix a
path with @ to read it from a file. Nothing is written back.`,
	Args: cobra.ExactArgs(1),
	RunE: runMetricsDerive,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var metricsLineageCmd = &cobra.Command{
	Use:   "lineage [slug]",
	Short: "Show metric lineage",
	Long:  `Without a slug the whole lineage graph is printed by level.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMetricsLineage,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var metricsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the fixture catalog for broken references",
	RunE:  runMetricsValidate,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.AddCommand(metricsListCmd)
	metricsCmd.AddCommand(metricsShowCmd)
	metricsCmd.AddCommand(metricsDeriveCmd)
	metricsCmd.AddCommand(metricsLineageCmd)
	metricsCmd.AddCommand(metricsValidateCmd)

	metricsCmd.PersistentFlags().String("fixtures", "", "fixtures directory (overrides catalog.path)")

	metricsListCmd.Flags().String("domain", "", "only metrics of this domain")
	metricsListCmd.Flags().String("q", "", "keyword in name, slug or business definition")
	metricsListCmd.Flags().String("status", "", "only metrics with this status")
	metricsListCmd.Flags().String("sort", "", "createdAt, updatedAt, heat or name")
	metricsListCmd.Flags().String("direction", "", "asc or desc")

	metricsDeriveCmd.Flags().String("spec", "", "derived metric spec as JSON, or @file")
	_ = metricsDeriveCmd.MarkFlagRequired("spec")

	metricsLineageCmd.Flags().Bool("dot", false, "Output in DOT format for graphviz")
}

// loadCatalog reads the fixtures named by --fixtures or the config file
func loadCatalog(cmd *cobra.Command) (*CLIConfig, catalog.DataState, error) {
	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return nil, catalog.DataState{}, err
	}

	// Keep the output clean unless explicitly set via --log-level
	if !cmd.Flags().Changed("log-level") {
		level, parseErr := logrus.ParseLevel(cfg.Logging)
		if parseErr != nil {
			level = logrus.ErrorLevel
		}
		logger.SetLevel(level)
	}

	if dir, _ := cmd.Flags().GetString("fixtures"); dir != "" {
		cfg.Catalog.Path = dir
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, catalog.DataState{}, validationErr
	}

	state, err := catalog.NewLoader(&cfg.Catalog).Load()
	if err != nil {
		return nil, catalog.DataState{}, err
	}

	return cfg, state, nil
}

func statusColor(status catalog.Status) string {
	switch status {
	case catalog.StatusActive:
		return color.GreenString(string(status))
	case catalog.StatusDraft:
		return color.YellowString(string(status))
	default:
		return color.HiBlackString(string(status))
	}
}

func runMetricsList(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	_, state, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	var q search.MetricQuery
	q.Domain, _ = cmd.Flags().GetString("domain")
	q.Query, _ = cmd.Flags().GetString("q")

	status, _ := cmd.Flags().GetString("status")
	sortField, _ := cmd.Flags().GetString("sort")
	direction, _ := cmd.Flags().GetString("direction")

	q.Status = catalog.Status(status)
	q.SortField = search.SortField(sortField)
	q.SortDirection = search.SortDirection(direction)

	if validationErr := q.Validate(); validationErr != nil {
		return validationErr
	}

	metrics := search.FilterMetrics(state.Metrics, state.MetricSets, q)

	w := cmd.OutOrStdout()
	if len(metrics) == 0 {
		_, _ = fmt.Fprintln(w, "(0 metrics)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Slug", "Name", "Domain", "Status", "Heat", "Queries"})

	for i := range metrics {
		m := &metrics[i]
		t.AppendRow(table.Row{m.Slug, m.BusinessName, m.Domain, statusColor(m.Status), m.Heat, len(m.QueryDefinitions)})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d metrics)\n", len(metrics))

	return nil
}

func runMetricsShow(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cfg, state, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	metric, err := registry.New(logger, state).Metric(args[0])
	if err != nil {
		return err
	}

	text, err := profile.NewRenderer(cfg.API.ProfileTemplate).Render(&metric)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), text)

	return nil
}

func readSpec(raw string) ([]byte, error) {
	if path, ok := strings.CutPrefix(raw, "@"); ok {
		return os.ReadFile(path) //nolint:gosec // User-provided spec file path
	}

	return []byte(raw), nil
}

func runMetricsDerive(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cfg, state, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetString("spec")

	data, err := readSpec(raw)
	if err != nil {
		return err
	}

	spec, err := derive.DecodeSpec(data)
	if err != nil {
		return err
	}

	metric, err := registry.New(logger, state).DeriveMetric(args[0], spec)
	if err != nil {
		return err
	}

	text, err := profile.NewRenderer(cfg.API.ProfileTemplate).Render(&metric)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprint(w, text)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, color.HiBlackString("Preview only, the fixtures were not modified."))

	return nil
}

func runMetricsLineage(cmd *cobra.Command, args []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	_, state, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	graph := lineage.NewGraph()

	rejected, err := graph.Build(state.Metrics)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if dotFlag, _ := cmd.Flags().GetBool("dot"); dotFlag {
		_, _ = fmt.Fprintln(w, graph.DOT())
		return nil
	}

	if len(args) == 1 {
		result, lineageErr := graph.Lineage(args[0])
		if lineageErr != nil {
			return lineageErr
		}

		printLineage(w, &result)

		return nil
	}

	info := graph.Info()

	_, _ = fmt.Fprintln(w, "Lineage Graph:")
	_, _ = fmt.Fprintln(w, "==============")

	for level := 0; level <= info.MaxLevel; level++ {
		nodes, exists := info.Levels[level]
		if !exists {
			continue
		}

		_, _ = fmt.Fprintf(w, "\nLevel %d:\n", level)
		for _, id := range nodes {
			node, _ := graph.Node(id)
			_, _ = fmt.Fprintf(w, "  • %s (%s)", id, node.Type)

			if upstream := graph.Upstream(id); len(upstream) > 0 {
				_, _ = fmt.Fprintf(w, " ← %s", strings.Join(upstream, ", "))
			}

			_, _ = fmt.Fprintln(w)
		}
	}

	_, _ = fmt.Fprintln(w, "\nStatistics:")
	_, _ = fmt.Fprintln(w, "===========")
	_, _ = fmt.Fprintf(w, "Roots: %d\n", len(info.Roots))
	_, _ = fmt.Fprintf(w, "Total nodes: %d\n", info.TotalNodes)
	_, _ = fmt.Fprintf(w, "Max depth: %d\n", info.MaxLevel)

	for _, edge := range rejected {
		_, _ = fmt.Fprintln(w, color.YellowString("Skipped cyclic edge %s -> %s", edge.From, edge.To))
	}

	return nil
}

func printLineage(w io.Writer, l *lineage.MetricLineage) {
	data, _ := json.MarshalIndent(l, "", "  ")
	_, _ = fmt.Fprintln(w, string(data))
}

func runMetricsValidate(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	_, state, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	result := validation.NewValidator(logger).Validate(&state, registry.InitialTags())

	w := cmd.OutOrStdout()
	for _, issue := range result.Issues {
		_, _ = fmt.Fprintf(w, "%s %s\n", color.RedString("✗"), issue.Error())
	}

	if result.Valid() {
		_, _ = fmt.Fprintf(w, "%s %d metrics, no issues\n", color.GreenString("✓"), result.Metrics)
		return nil
	}

	_, _ = fmt.Fprintf(w, "\n%d metrics, %d issues\n", result.Metrics, len(result.Issues))

	return result.Err()
}
