package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"technician-dispatch/internal/app"
	"technician-dispatch/internal/common/config"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <request-id>",
	Short: "Assign a technician to a maintenance request",
	Long:  "Runs the full dispatch pipeline for one request against the configured stores: the winner is committed and the shortlist is notified.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

var matchVerbose bool

func init() {
	matchCmd.Flags().BoolVarP(&matchVerbose, "verbose", "v", false, "Log at debug level to stderr")
	rootCmd.AddCommand(matchCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := "warn"
	if matchVerbose {
		level = "debug"
	}
	zapLog := logger.New(level, "console")
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.CLIOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Engine.Match(ctx, args[0])
	if err != nil {
		std := dispatch.ToStandardError(err, args[0])
		return fmt.Errorf("%s: %s (%s)", std.Code, std.Message, std.Details)
	}
	return printJSON(cmd, result)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
