// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"castor-cli/internal/config"
	"castor-cli/internal/descriptor"
	"castor-cli/internal/discovery"
	"castor-cli/internal/watch"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type listFlagValues struct {
	format string
	kind   string
	watch  bool
	strict bool
}

// listing is the machine-readable output of `castor list`.
type listing struct {
	Root        string                 `json:"root" yaml:"root"`
	Descriptors []descriptor.Summary   `json:"descriptors" yaml:"descriptors"`
	Diagnostics []discovery.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func newListCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &listFlagValues{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tasks, contexts and listeners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			switch flags.format {
			case formatTable, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q (want table, json or yaml)", flags.format)
			}
			if flags.watch {
				return runListWatch(cmd.Context(), app, cfg, flags)
			}
			return runList(cmd.Context(), app, cfg, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatTable, "output format: table, json or yaml")
	cmd.Flags().StringVarP(&flags.kind, "kind", "k", "", "only list one kind (task, symfony_task, context, context_generator, listener)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "list again whenever a module changes")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit with status 3 when discovery reports warnings")
	return cmd
}

func runList(ctx context.Context, app *App, cfg *config.Config, flags *listFlagValues) error {
	res, err := app.Discovery.Discover(ctx, cfg)
	if err != nil {
		return err
	}

	descs := res.Descriptors
	if flags.kind != "" {
		descs = res.OfKind(descriptor.Kind(flags.kind))
	}
	root, _ := filepath.Abs(cfg.RootDir)

	switch flags.format {
	case formatJSON:
		err = writeJSON(app.stdout, newListing(root, descs, res.Diagnostics))
	case formatYAML:
		err = writeYAML(app.stdout, newListing(root, descs, res.Diagnostics))
	default:
		fmt.Fprintln(app.stdout, renderTable(root, descs))
		renderDiagnostics(app.stderr, res.Diagnostics)
	}
	if err != nil {
		return err
	}

	if flags.strict && len(res.Diagnostics) > 0 {
		return &ExitError{Code: ExitDiagnostics, Err: fmt.Errorf("discovery reported %d warning(s)", len(res.Diagnostics))}
	}
	return nil
}

func runListWatch(ctx context.Context, app *App, cfg *config.Config, flags *listFlagValues) error {
	relist := func(ctx context.Context) {
		if err := runList(ctx, app, cfg, flags); err != nil {
			fmt.Fprintln(app.stderr, WarningStyle.Render("!")+" "+err.Error())
		}
	}

	relist(ctx)
	fmt.Fprintf(app.stderr, "\n%s Watching for module changes (Ctrl+C to stop)...\n", CmdStyle.Render("→"))

	w, err := watch.New(watch.Config{
		Root:     cfg.RootDir,
		Patterns: watch.ModulePatterns(cfg.EntryFile, cfg.ExtensionDir, cfg.ModuleSuffix),
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stderr, "%s %d module(s) changed: %s\n",
				CmdStyle.Render("→"), len(changed), strings.Join(changed, ", "))
			relist(ctx)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(ctx)
}

func newListing(root string, descs []descriptor.Descriptor, diags []discovery.Diagnostic) listing {
	out := listing{Root: root, Descriptors: make([]descriptor.Summary, 0, len(descs)), Diagnostics: diags}
	for _, d := range descs {
		out.Descriptors = append(out.Descriptors, descriptor.Summarize(d))
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// renderTable lays descriptors out in discovery order with module paths
// relative to root.
func renderTable(root string, descs []descriptor.Descriptor) string {
	if len(descs) == 0 {
		return SubtitleStyle.Render("Nothing discovered.")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("KIND", "NAME", "DESCRIPTION", "MODULE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})

	for _, d := range descs {
		s := descriptor.Summarize(d)
		kind := string(s.Kind)
		if style, ok := kindStyles[s.Kind]; ok {
			kind = style.Render(kind)
		}
		t.Row(kind, s.Name, describe(s), relativeTo(root, s.Module))
	}
	return t.Render()
}

// describe picks the most useful one-line detail of a summary.
func describe(s descriptor.Summary) string {
	switch s.Kind {
	case descriptor.KindListener:
		return fmt.Sprintf("on %s (priority %d)", s.Event, s.Priority)
	case descriptor.KindContext:
		if s.Default {
			return "default context"
		}
	case descriptor.KindContextGenerator:
		return strings.Join(s.Generators, ", ")
	case descriptor.KindSymfonyTask:
		if s.Description == "" {
			return s.Command
		}
	}
	return s.Description
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func renderDiagnostics(w io.Writer, diags []discovery.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render(string(d.Severity)+":"), d.Message)
	}
}
