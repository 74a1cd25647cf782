// Command dispatchctl runs and inspects technician matching from a shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "dispatchctl",
	Short:         "Technician dispatch operator tool",
	Long:          "dispatchctl runs a match for a maintenance request, dry-runs scoring against a technician file and maintains the activity registry.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML (default: configs/config.yaml with env overrides)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
