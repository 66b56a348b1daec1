package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datamatch/datamatch/internal/match"
)

type suggestOptions struct {
	*globalOptions

	user        string
	weightsPath string
	count       int
	minScore    int
}

// suggestToggles carries the --min-score flag into the match service.
type suggestToggles struct {
	minScore int
}

func (suggestToggles) PrioritizeAvailabilityByDefault(context.Context) bool { return false }
func (suggestToggles) IsNicheInterestsDisabled(context.Context) bool        { return false }
func (suggestToggles) IsNearbySearchDisabled(context.Context) bool          { return false }
func (t suggestToggles) SuggestionMinScore(context.Context) int             { return t.minScore }

func newSuggestCommand(global *globalOptions) *cobra.Command {
	opts := &suggestOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Build suggestion lists for a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSuggest(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.user, "user", "u", "", "profile id of the member (required)")
	f.StringVarP(&opts.weightsPath, "weights", "w", "", "TOML file overriding the scoring weights")
	f.IntVarP(&opts.count, "count", "n", match.DefaultSuggestionCount,
		fmt.Sprintf("entries per list (1-%d)", match.MaxSuggestionCount))
	f.IntVar(&opts.minScore, "min-score", match.DefaultSuggestionMinScore,
		"composite score a top match must exceed")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runSuggest(cmd *cobra.Command, opts *suggestOptions) error {
	if err := checkFormat(opts.output); err != nil {
		return err
	}
	if opts.count < 1 || opts.count > match.MaxSuggestionCount {
		return fmt.Errorf("--count must be between 1 and %d", match.MaxSuggestionCount)
	}
	if opts.minScore < 1 || opts.minScore > 100 {
		return errors.New("--min-score must be between 1 and 100")
	}

	svc, err := newMatcher(cmd, opts.profilesPath, opts.weightsPath, suggestToggles{minScore: opts.minScore})
	if err != nil {
		return err
	}

	suggestions, err := svc.Suggest(cmd.Context(), opts.user, opts.count)
	if err != nil {
		return fmt.Errorf("suggesting for %s: %w", opts.user, err)
	}
	return writeSuggestions(cmd.OutOrStdout(), opts.output, suggestions)
}
