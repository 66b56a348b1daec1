package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datamatch/datamatch/internal/auth"
	"github.com/datamatch/datamatch/internal/config"
)

func newTokenCommand(global *globalOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token for a profile in the file",
		Long: `Mint an access token signed with the auth settings from the service
config, for calling a local API by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(global.output); err != nil {
				return err
			}

			cfg, err := config.Load(global.configPath)
			if err != nil {
				return err
			}
			repo, err := loadProfiles(cmd.Context(), global.profilesPath)
			if err != nil {
				return err
			}

			svc := auth.NewService(auth.ServiceConfig{
				JWTService: auth.NewJWTService(auth.JWTConfig{
					SigningKey: cfg.Auth.SigningKey,
					Issuer:     cfg.Auth.Issuer,
					Audience:   cfg.Auth.Audience,
					TTL:        cfg.Auth.AccessTokenTTL,
				}),
				Profiles: repo,
			})
			token, err := svc.IssueToken(cmd.Context(), user)
			if err != nil {
				return fmt.Errorf("issuing token for %s: %w", user, err)
			}

			if global.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), token)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "profile id to mint the token for (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
