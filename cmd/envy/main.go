package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tsukumogami/envy/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var globalCtx context.Context
var globalCancel context.CancelFunc

var rootCmd = &cobra.Command{
	Use:   "envy",
	Short: "A freeform, cache-oriented recipe and package build engine",
	Long: `envy resolves a graph of scripted recipes and drives each one through
its fetch/stage/build/install/deploy pipeline, sharing a content-addressed
cache across runs.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "show errors only")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "show verbose output (info level)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "show debug output, including phase transitions and lock events")
	rootCmd.PersistentPreRun = initLogger

	rootCmd.AddCommand(runCmd)
}

// initLogger wires the global internal/log default from verbosity flags and
// ENVY_DEBUG/ENVY_VERBOSE/ENVY_QUIET environment variables, flags taking
// precedence; every phase transition, lock event, and settlement step logs
// through this default once it is set.
func initLogger(cmd *cobra.Command, args []string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: determineLogLevel()})
	log.SetDefault(log.New(handler))
}

func determineLogLevel() slog.Level {
	if debugFlag {
		return slog.LevelDebug
	}
	if verboseFlag {
		return slog.LevelInfo
	}
	if quietFlag {
		return slog.LevelError
	}

	if isTruthy(os.Getenv("ENVY_DEBUG")) {
		return slog.LevelDebug
	}
	if isTruthy(os.Getenv("ENVY_VERBOSE")) {
		return slog.LevelInfo
	}
	if isTruthy(os.Getenv("ENVY_QUIET")) {
		return slog.LevelError
	}

	return slog.LevelWarn
}

func isTruthy(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

func main() {
	globalCtx, globalCancel = context.WithCancel(context.Background())
	defer globalCancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nreceived interrupt, cancelling run...")
		globalCancel()
		<-sigChan
		fmt.Fprintln(os.Stderr, "forced exit")
		exitWithCode(ExitCancelled)
	}()

	if err := rootCmd.Execute(); err != nil {
		if globalCtx.Err() == context.Canceled {
			exitWithCode(ExitCancelled)
		}
		fmt.Fprintln(os.Stderr, err)
		exitWithCode(ExitGeneral)
	}
}
