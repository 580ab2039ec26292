// Package commands implements the CLI commands for echotrace.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tanversoccho/EchoTrace/internal/logger"
	"github.com/tanversoccho/EchoTrace/internal/registry"
	"github.com/tanversoccho/EchoTrace/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "echotrace",
	Short: "Monitor procurement portals for Bangladesh consulting opportunities",
	Long: `EchoTrace scrapes a fixed set of job boards, UN/MDB procurement portals,
and tender sites for consulting-opportunity postings relevant to Bangladesh,
de-duplicates them against previously seen items, scores their relevance,
and stores them for later querying.

Examples:
  # Scrape a single configured site
  echotrace scrape bdjobs

  # Scrape every configured site
  echotrace scrape --all

  # Ad-hoc relevance scan without persisting anything
  echotrace scan --format jsonl -o hits.jsonl

  # Archive opportunities whose deadline passed more than 90 days ago
  echotrace archive --days 90`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.echotrace.yaml)")
	rootCmd.PersistentFlags().String("db", "echotrace.db", "path to the SQLite database")
	rootCmd.PersistentFlags().String("sites", "", "site registry YAML (default: built-in catalogue)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("sites", rootCmd.PersistentFlags().Lookup("sites"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".echotrace")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ECHOTRACE")
	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()

	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})
}

// loadRegistry returns the configured site catalogue: a YAML file when one
// is given, the built-in defaults otherwise.
func loadRegistry() (*registry.Registry, error) {
	if path := viper.GetString("sites"); path != "" {
		return registry.LoadFile(path)
	}
	return registry.Default(), nil
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("db"))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
