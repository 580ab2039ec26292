package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [site]",
	Short: "Run the ingestion pipeline for one site or all of them",
	Long: `Scrape a configured site, filter and enrich its postings, and upsert the
results into the opportunity store. Each run is tracked as a session.

With --all, every configured site is scraped sequentially with a polite
delay in between; a failure on one site never aborts the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()
	flags.Bool("all", false, "scrape every configured site")
	flags.Duration("site-delay", 5*time.Second, "pause between sites with --all")
}

func runScrape(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return cmd.Help()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg, err := loadRegistry()
	if err != nil {
		logError("%v", err)
		return err
	}

	st, err := openStore()
	if err != nil {
		logError("%v", err)
		return err
	}
	defer st.Close()

	siteDelay, _ := cmd.Flags().GetDuration("site-delay")
	orch := pipeline.New(reg, st, pipeline.WithSiteDelay(siteDelay))

	if all {
		summaries := orch.ScrapeAll(ctx)
		failed := 0
		for _, summary := range summaries {
			printSummary(summary)
			if !summary.Success {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sites failed", failed, len(summaries))
		}
		return nil
	}

	summary, err := orch.ScrapeSite(ctx, args[0])
	printSummary(summary)
	return err
}

func printSummary(summary domain.RunSummary) {
	if summary.Success {
		fmt.Fprintf(os.Stdout, "%-16s ok    found=%d new=%d updated=%d duplicate=%d filtered=%d\n",
			summary.SiteKey, summary.Counts.Found, summary.Counts.New,
			summary.Counts.Updated, summary.Counts.Duplicate, summary.Counts.Filtered)
		return
	}
	fmt.Fprintf(os.Stdout, "%-16s FAIL  %s\n", summary.SiteKey, summary.Error)
}
