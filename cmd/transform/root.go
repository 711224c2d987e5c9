package main

import (
	"go-transform-pipeline/internal/config"
	"go-transform-pipeline/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "transform",
	Short: "Turn messy JSON into flat tables",
	Long: `transform discovers the record set inside arbitrary JSON, builds or
accepts a transformation plan, executes it and exports the result as CSV.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; explicit config files are not.
		godotenv.Load()
		logging.Init(debug)

		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
