package commands

import (
	"errors"
	"fmt"
	"time"

	"funda-scraper/internal/pkg/jwt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the /scrape endpoints",
	Long: `Token signs a client token with API_JWT_SECRET. The server only checks
tokens when that secret is set.`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	flags := tokenCmd.Flags()
	flags.String("client", "", "client name embedded in the token (required)")
	flags.Duration("ttl", 0, "token lifetime (default API_TOKEN_TTL)")

	_ = tokenCmd.MarkFlagRequired("client")
	_ = viper.BindPFlag("client", flags.Lookup("client"))
	_ = viper.BindPFlag("ttl", flags.Lookup("ttl"))
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return jwt.ErrNoSecret
	}
	ttl := viper.GetDuration("ttl")
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, exp, err := jwt.NewHMACService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ttl).IssueToken(viper.GetString("client"))
	if err != nil {
		if errors.Is(err, jwt.ErrNoSecret) {
			return fmt.Errorf("set API_JWT_SECRET: %w", err)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	logInfo("expires %s", exp.UTC().Format(time.RFC3339))
	return nil
}
