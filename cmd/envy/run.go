package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tsukumogami/envy/internal/cache"
	"github.com/tsukumogami/envy/internal/config"
	"github.com/tsukumogami/envy/internal/engine"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/fetchio"
	"golang.org/x/term"
)

// isTerminalFunc is overridden in tests; matches the teacher's pattern of
// making TTY detection swappable rather than calling term.IsTerminal inline.
var isTerminalFunc = term.IsTerminal

var runDryRun bool
var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run <manifest.toml>",
	Short: "Resolve and build every root recipe declared in a manifest",
	Long: `run reads a TOML manifest listing one or more root recipes, resolves
the full dependency graph (including weak-fallback settlement), and then
drives every recipe through its pipeline to completion.

With --dry-run, only graph resolution runs: no fetch/build/install/deploy
script bodies execute, and the resolved graph is reported as-is.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		manifest, err := config.LoadManifest(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, errmsg.Format(err))
			exitWithCode(ExitUsage)
		}

		root := config.DefaultCacheRoot()
		store, err := cache.New(filepath.Join(root, "assets"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to open cache:", err)
			exitWithCode(ExitGeneral)
		}

		eng, err := engine.New(store, fetchio.NewHTTPFetcher(&http.Client{Timeout: config.GetAPITimeout()}))
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to start engine:", err)
			exitWithCode(ExitGeneral)
		}

		if runDryRun {
			if err := eng.ResolveGraph(globalCtx, manifest.Roots); err != nil {
				fmt.Fprintln(os.Stderr, errmsg.Format(err))
				exitWithCode(graphExitCode(err))
			}
			printResult(eng.Snapshot())
			return
		}

		result, err := eng.RunFull(globalCtx, manifest.Roots)
		if result != nil {
			printResult(result)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, errmsg.Format(err))
			exitWithCode(graphExitCode(err))
		}
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "resolve the dependency graph without running any phase bodies")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON instead of a summary table")
}

func graphExitCode(err error) int {
	var graphErr *errmsg.GraphError
	if errors.As(err, &graphErr) {
		return ExitGraphFailed
	}
	var multiErr *errmsg.MultiError
	if errors.As(err, &multiErr) {
		return ExitRecipeFailed
	}
	return ExitGeneral
}

func printResult(result *engine.Result) {
	if runJSON {
		doc, err := result.JSON()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to render result:", err)
			return
		}
		fmt.Println(doc)
		return
	}
	// Asset sizes are a cosmetic extra: skip them when stdout isn't a
	// terminal so piped/redirected output stays stable for scripts.
	showSize := isTerminalFunc(int(os.Stdout.Fd()))
	for _, rec := range result.Recipes {
		status := "ok"
		if rec.Failed {
			status = "FAILED: " + rec.Error
		}
		if showSize && rec.AssetPath != "" {
			if n, err := cache.DirSize(rec.AssetPath); err == nil {
				status += " (" + humanize.Bytes(uint64(n)) + ")"
			}
		}
		fmt.Printf("%-12s %-10s %s\n", rec.Phase, status, rec.Identity)
	}
}
