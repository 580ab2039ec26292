package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanversoccho/EchoTrace/internal/output"
	"github.com/tanversoccho/EchoTrace/internal/pipeline"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan all sites for relevant postings without persisting anything",
	Long: `Sweep every configured site and report the postings that match the
relevance criteria. Nothing is written to the opportunity store; this is
the ad-hoc reporting view.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	flags := scanCmd.Flags()
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.StringP("output", "o", "", "output file (default: stdout)")
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg, err := loadRegistry()
	if err != nil {
		logError("%v", err)
		return err
	}

	// The scan is filter-only; no store is opened.
	orch := pipeline.New(reg, nil)
	hits, err := orch.ScanRelevant(ctx, pipeline.NewSeenLinks())
	if err != nil {
		logError("%v", err)
		return err
	}

	dest := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			logError("failed to create output file: %v", err)
			return err
		}
		defer f.Close()
		dest = f
	}

	format, _ := cmd.Flags().GetString("format")
	w, err := output.NewWriter(dest, output.Format(format))
	if err != nil {
		logError("%v", err)
		return err
	}
	for _, hit := range hits {
		if err := w.Write(hit); err != nil {
			return err
		}
	}
	return w.Flush()
}
