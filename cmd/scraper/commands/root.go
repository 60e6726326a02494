// Package commands implements the funda-scraper CLI.
package commands

import (
	"fmt"
	"os"

	"funda-scraper/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "funda-scraper",
	Short: "Scrape funda.nl search results into structured listing records",
	Long: `funda-scraper walks funda.nl search result pages and extracts one record
per listing card: link, address, locality, price and agent.

Settings come from the environment (and an optional .env file); flags
override them for a single invocation.

Examples:
  # Scrape three pages into funda_basic_data.json
  funda-scraper run --pages 3

  # Static fetch against a mirror, YAML to stdout
  funda-scraper run --mode static --format yaml --out -

  # Mint an API token for the HTTP server
  funda-scraper token --client ci`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to preload")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("env_file", rootCmd.PersistentFlags().Lookup("env-file"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	viper.SetEnvPrefix("FUNDA")
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(viper.GetString("env_file")); err != nil {
		return config.Config{}, fmt.Errorf("read env file: %w", err)
	}
	return config.Load()
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
