package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"funda-scraper/internal/app"
	"funda-scraper/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultOutput = "funda_basic_data.json"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scrape and write the records to a file",
	Long: `Run opens one session, walks up to --pages result pages and writes every
extracted record. A run that hits a bot challenge stops early and still
writes what it collected.`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.IntP("pages", "p", 0, "result pages to visit (default SCRAPER_DEFAULT_PAGES)")
	flags.StringP("out", "o", defaultOutput, "output file, - for stdout")
	flags.String("format", formatJSON, "output format: json, yaml")
	flags.String("mode", "", "fetch mode: dynamic, static (default SCRAPER_FETCH_MODE)")
	flags.Bool("headless", true, "run the browser headless")

	_ = viper.BindPFlag("pages", flags.Lookup("pages"))
	_ = viper.BindPFlag("out", flags.Lookup("out"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("headless", flags.Lookup("headless"))
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scfg, pages, err := applyRunFlags(cfg.Scraper, cmd.Flags().Changed("headless"))
	if err != nil {
		return err
	}
	format := viper.GetString("format")
	if !validFormat(format) {
		return fmt.Errorf("unknown format %q", format)
	}

	logger := app.NewLogger()
	if viper.GetBool("quiet") {
		logger = log.New(io.Discard, "", 0)
	}
	runner, err := app.NewRunner(scfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logInfo("scraping %d page(s) mode=%s", pages, scfg.FetchMode)
	res, runErr := runner.Run(ctx, pages)
	if runErr != nil && len(res.Records) == 0 {
		return runErr
	}
	if runErr != nil {
		logError("run ended early: %v", runErr)
	}

	out := viper.GetString("out")
	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := writeRecords(w, res.Records, format); err != nil {
		return err
	}

	logInfo("Scraped %d listings (pages=%d stop=%s blocked=%t)", len(res.Records), res.PagesVisited, res.StopReason, res.Blocked)
	if out != "-" {
		logInfo("wrote %s", out)
	}
	return nil
}

// applyRunFlags overlays CLI flags on the environment settings.
func applyRunFlags(cfg config.ScraperConfig, headlessSet bool) (config.ScraperConfig, int, error) {
	pages := viper.GetInt("pages")
	if pages == 0 {
		pages = cfg.DefaultPages
	}
	if pages < 1 || pages > cfg.MaxPages {
		return cfg, 0, fmt.Errorf("pages must be between 1 and %d", cfg.MaxPages)
	}
	if mode := viper.GetString("mode"); mode != "" {
		cfg.FetchMode = mode
	}
	if headlessSet {
		cfg.Headless = viper.GetBool("headless")
	}
	return cfg, pages, nil
}
