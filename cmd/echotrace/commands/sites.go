package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the configured sites",
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(_ *cobra.Command, _ []string) error {
	reg, err := loadRegistry()
	if err != nil {
		logError("%v", err)
		return err
	}

	for _, site := range reg.All() {
		fmt.Fprintf(os.Stdout, "%-16s %-8s %-32s %s\n",
			site.Key, site.Strategy, site.Name, site.TargetURL())
	}
	return nil
}
