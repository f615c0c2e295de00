// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"castor-cli/internal/config"
	"castor-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every command.
type rootFlagValues struct {
	root       string
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	root := &cobra.Command{
		Use:   "castor",
		Short: "Discover the tasks of a castor project",
		Long: TitleStyle.Render("castor") + SubtitleStyle.Render(" - task discovery for Lua task files") + `

castor loads castor.lua and every module under castor/, then reports the
tasks, contexts, context generators, listeners and Symfony console tasks
they declare.

` + SubtitleStyle.Render("Examples:") + `
  castor list                 List everything that was discovered
  castor list --watch         Re-list whenever a module changes
  castor show db:migrate      Describe one task
  castor files                Show the modules that were loaded
  castor cache clear          Forget cached console listings`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.root, "root", "d", "", "project directory (default from config, then \".\")")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is <user config dir>/castor/config.cue)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newListCommand(app, flags),
		newShowCommand(app, flags),
		newFilesCommand(app, flags),
		newCacheCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return root
}

// loadConfig loads the configuration, applies flag overrides and installs
// the process logger.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	wd, _ := os.Getwd()
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, WorkDir: wd})
	if err != nil {
		return nil, err
	}
	if flags.root != "" {
		cfg.RootDir = flags.root
	}
	if flags.verbose {
		cfg.LogLevel = config.LogLevelDebug
	}
	slog.SetDefault(newLogger(a.stderr, cfg.LogLevel))
	return cfg, nil
}

// newLogger returns a slog.Logger backed by a charmbracelet/log handler.
func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		Level:  lvl,
		Prefix: "castor",
	}))
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process on failure.
func Execute() {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return
	}

	renderIssue(app.stderr, err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	os.Exit(ExitFailure)
}

// renderIssue writes the catalog guidance linked to err, if any.
func renderIssue(w io.Writer, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}
	if ae.HasSuggestions() {
		fmt.Fprintln(w, ae.Format(false))
	}
	is := issue.Get(ae.Issue)
	if is == nil {
		return
	}
	if rendered, rerr := is.Render(""); rerr == nil {
		fmt.Fprint(w, rendered)
	}
}
