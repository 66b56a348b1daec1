package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/datamatch/datamatch/internal/match"
)

type rankOptions struct {
	*globalOptions

	user        string
	weightsPath string
	limit       int

	query                  string
	category               string
	distance               float64
	minScore               int
	prioritizeAvailability bool
	noNiche                bool

	gender      string
	minAge      int
	maxAge      int
	hasLocation bool
}

func newRankCommand(global *globalOptions) *cobra.Command {
	opts := &rankOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank candidates for a member",
		Long: `Rank every other profile in the file for one member.

With --query the candidates are scored on how well their interests,
profession and niche interests match the text. Without it they are
scored on overall compatibility.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRank(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.user, "user", "u", "", "profile id of the member searching (required)")
	f.StringVarP(&opts.weightsPath, "weights", "w", "", "TOML file overriding the scoring weights")
	f.IntVarP(&opts.limit, "limit", "n", 20, "maximum number of results (0 for all)")
	f.StringVarP(&opts.query, "query", "q", "", "free-text query")
	f.StringVar(&opts.category, "category", "", "narrow the query to interests, profession or location")
	f.Float64Var(&opts.distance, "distance", 0, "maximum distance in miles (default: member preference)")
	f.IntVar(&opts.minScore, "min-score", 0, "drop candidates scoring below this")
	f.BoolVar(&opts.prioritizeAvailability, "prioritize-availability", false, "use the availability weight set")
	f.BoolVar(&opts.noNiche, "no-niche", false, "leave niche interests out of the score")
	f.StringVar(&opts.gender, "gender", "", "only candidates of this gender")
	f.IntVar(&opts.minAge, "min-age", 0, "minimum candidate age")
	f.IntVar(&opts.maxAge, "max-age", 0, "maximum candidate age")
	f.BoolVar(&opts.hasLocation, "has-location", false, "only candidates with a location")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (o *rankOptions) matchOptions() (match.Options, error) {
	if o.minScore < 0 || o.minScore > 100 {
		return match.Options{}, errors.New("--min-score must be between 0 and 100")
	}
	if o.distance < 0 {
		return match.Options{}, errors.New("--distance must not be negative")
	}

	mo := match.Options{
		Query:                  o.query,
		Category:               o.category,
		Distance:               o.distance,
		MinCompatibility:       o.minScore,
		PrioritizeAvailability: o.prioritizeAvailability,
		SkipNicheInterests:     o.noNiche,
		Filter: match.Filter{
			Gender:      o.gender,
			HasLocation: o.hasLocation,
		},
	}
	if o.minAge > 0 {
		mo.Filter.MinAge = &o.minAge
	}
	if o.maxAge > 0 {
		mo.Filter.MaxAge = &o.maxAge
	}
	if mo.Filter.MinAge != nil && mo.Filter.MaxAge != nil && o.minAge > o.maxAge {
		return match.Options{}, errors.New("--min-age must not exceed --max-age")
	}
	return mo, nil
}

func runRank(cmd *cobra.Command, opts *rankOptions) error {
	if err := checkFormat(opts.output); err != nil {
		return err
	}
	mo, err := opts.matchOptions()
	if err != nil {
		return err
	}

	svc, err := newMatcher(cmd, opts.profilesPath, opts.weightsPath, nil)
	if err != nil {
		return err
	}

	results, err := svc.Search(cmd.Context(), opts.user, mo)
	if err != nil {
		return fmt.Errorf("ranking for %s: %w", opts.user, err)
	}
	if opts.limit > 0 && len(results) > opts.limit {
		results = results[:opts.limit]
	}
	return writeResults(cmd.OutOrStdout(), opts.output, results)
}

// newMatcher loads the profiles file and builds a match service over it.
// toggles may be nil.
func newMatcher(cmd *cobra.Command, profilesPath, weightsPath string, toggles match.Toggles) (*match.Service, error) {
	engineCfg, err := loadEngineConfig(weightsPath)
	if err != nil {
		return nil, err
	}
	repo, err := loadProfiles(cmd.Context(), profilesPath)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger()

	return match.NewService(match.ServiceConfig{
		Engine:   match.NewEngine(engineCfg),
		Profiles: repo,
		Toggles:  toggles,
		Logger:   logger,
	}), nil
}
