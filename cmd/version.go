package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, overridden with -ldflags -X at release time
//
//nolint:gochecknoglobals // Build-time variables for version info
var (
	Release   = "dev"
	GitCommit = "none"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the datasage version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if short, _ := cmd.Flags().GetBool("short"); short {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Release)
			return nil
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "print only the release")
}

func versionString() string {
	commit := GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}

	return fmt.Sprintf("datasage %s (%s) %s/%s", Release, commit, runtime.GOOS, runtime.GOARCH)
}
