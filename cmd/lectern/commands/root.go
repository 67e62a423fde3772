package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var debug *bool
var configPath *string

func init() {
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging.")
	configPath = rootCmd.PersistentFlags().String("config", "lectern.json5", "Path to the config file.")
}

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "lectern downloads video transcripts, e-book chapters and live-event captions from a learning site.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(*debug)
	},
}

func initSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
