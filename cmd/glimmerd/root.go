package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glimmerdev/glimmerd/internal/constants"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "glimmerd",
	Short: "Keyboard LED scripting daemon",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigFile, "path to config file")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command, exiting the process with a non-zero
// status on a CLI-level error (flag parsing, unknown subcommand). A
// failure inside serve itself exits with its own more specific code
// before returning here.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
