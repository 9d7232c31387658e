// Package cmd holds the police-investigations command line: the HTTP
// server, one-off document exports and the orphan credential sweep.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linesmerrill/police-investigations-api/api/handlers"
	"github.com/linesmerrill/police-investigations-api/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "police-investigations",
	Short: "Case management API for police investigations",
	Long: "police-investigations serves the investigations API, exports cases as\n" +
		"Word documents and removes credentials whose sign up never finished.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if configFile != "" {
			return os.Setenv("CONFIG_FILE", configFile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "yaml file filling settings the environment leaves empty")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.Version = version
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp loads the config and connects every store and service
func newApp(ctx context.Context) (*handlers.App, error) {
	a := &handlers.App{}
	a.Config = *config.New()
	if err := a.Initialize(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}
