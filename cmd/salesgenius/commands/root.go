// Package commands implements the SalesGenius CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "salesgenius",
	Short: "SalesGenius - catalog and knowledge management CLI",
	Long: `The SalesGenius CLI manages merchant accounts, knowledge sources and
product catalogs directly against the database. It is meant for local
development and operational tasks; the dashboard API covers the same
operations for end users.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Init(noColor)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
