// Package cli implements matchctl, an offline tool that runs the matching
// engine against a JSON file of profiles.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionInfo is set from build flags in main.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	profilesPath string
	configPath   string
	output       string
}

// NewRootCommand builds the matchctl command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "matchctl",
		Short: "Run the datamatch engine from the command line",
		Long: `matchctl ranks and suggests candidates from a JSON file of profiles
using the same engine as the datamatch API.

Examples:
  matchctl rank --profiles people.json --user usr_alice
  matchctl rank --profiles people.json --user usr_alice --query jazz -o json
  matchctl suggest --profiles people.json --user usr_alice --count 3
  matchctl token --user usr_alice`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.profilesPath, "profiles", "p", "profiles.json",
		"JSON file holding an array of profiles")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"service config file (default: ./datamatch.yaml if present)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table",
		"output format (table, json)")

	root.AddCommand(
		newRankCommand(opts),
		newSuggestCommand(opts),
		newTokenCommand(opts),
		newVersionCommand(info),
	)
	return root
}

func newVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "matchctl %s\n", info.Version)
			fmt.Fprintf(w, "  commit: %s\n", info.Commit)
			fmt.Fprintf(w, "  built:  %s\n", info.BuildTime)
		},
	}
}
