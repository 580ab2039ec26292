package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive opportunities with long-expired deadlines",
	Long: `Soft-delete opportunities whose deadline passed more than the given
number of days ago. Archived rows are excluded from listings but never
removed from the store.`,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().Int("days", 90, "age threshold in days past the deadline")
}

func runArchive(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		logError("%v", err)
		return err
	}
	defer st.Close()

	days, _ := cmd.Flags().GetInt("days")
	count, err := st.ArchiveOlderThan(context.Background(), days)
	if err != nil {
		logError("%v", err)
		return err
	}

	fmt.Fprintf(os.Stdout, "archived %d opportunities\n", count)
	return nil
}
