// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"castor-cli/internal/descriptor"
	"castor-cli/internal/discovery"
	"castor-cli/internal/introspect"
	"castor-cli/internal/issue"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

type showFlagValues struct {
	raw   bool
	style string
}

func newShowCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &showFlagValues{}
	cmd := &cobra.Command{
		Use:   "show <task>",
		Short: "Describe a task or Symfony task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			res, err := app.Discovery.Discover(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			d, ok := findTask(res, args[0])
			if !ok {
				return issue.NewErrorContext().
					WithIssue(issue.TaskNotFoundId).
					WithOperation("show task").
					WithResource(args[0]).
					WithSuggestion("Run 'castor list --kind task' to see the available names").
					BuildError()
			}

			md := taskMarkdown(d)
			if flags.raw {
				_, err = fmt.Fprint(app.stdout, md)
				return err
			}
			out, err := glamour.Render(md, flags.style)
			if err != nil {
				return fmt.Errorf("render task: %w", err)
			}
			_, err = fmt.Fprint(app.stdout, out)
			return err
		},
	}
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "print Markdown without rendering it")
	cmd.Flags().StringVar(&flags.style, "style", "dark", "glamour style: dark, light, notty or a JSON style path")
	return cmd
}

// findTask matches a full task name first, then an alias.
func findTask(res *discovery.Result, name string) (descriptor.Descriptor, bool) {
	tasks := res.Tasks()
	if d, ok := tasks[name]; ok {
		return d, true
	}
	for _, d := range res.OfKind(descriptor.KindTask) {
		if slices.Contains(d.(*descriptor.TaskDescriptor).Aliases, name) {
			return d, true
		}
	}
	return nil, false
}

// taskMarkdown documents a task or symfony task.
func taskMarkdown(d descriptor.Descriptor) string {
	var b strings.Builder
	s := descriptor.Summarize(d)

	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	if s.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", s.Description)
	}

	b.WriteString("| Property | Value |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", k, strings.ReplaceAll(v, "|", `\|`))
		}
	}
	row("Kind", string(s.Kind))
	row("Declared by", "`"+s.Declaration+"`")
	row("Module", s.Module)

	switch t := d.(type) {
	case *descriptor.TaskDescriptor:
		row("Aliases", strings.Join(t.Aliases, ", "))
		row("Enabled", fmt.Sprint(t.Enabled))
		row("Allow failure", fmt.Sprint(t.AllowFailure))
		row("PTY", fmt.Sprint(t.PTY))
		row("Working directory", t.WorkingDirectory)
		row("Signal handlers", strings.Join(t.Signals(), ", "))
	case *descriptor.SymfonyTaskDescriptor:
		row("Command", "`"+s.Command+"`")
		for _, u := range t.Definition.Usage {
			row("Usage", "`"+u+"`")
		}
		writeDefinition(&b, t.Definition)
	}
	return b.String()
}

func writeDefinition(b *strings.Builder, def introspect.CommandDefinition) {
	if len(def.Arguments) > 0 {
		b.WriteString("\n## Arguments\n\n| Name | Required | Description |\n|---|---|---|\n")
		for _, a := range def.Arguments {
			fmt.Fprintf(b, "| %s | %v | %s |\n", a.Name, a.Required, a.Description)
		}
	}
	if len(def.Options) > 0 {
		b.WriteString("\n## Options\n\n| Name | Shortcut | Value | Description |\n|---|---|---|---|\n")
		for _, o := range def.Options {
			value := "none"
			switch {
			case o.IsValueRequired:
				value = "required"
			case o.AcceptValue:
				value = "optional"
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", o.Name, o.Shortcut, value, o.Description)
		}
	}
	if def.Help != "" {
		fmt.Fprintf(b, "\n## Help\n\n%s\n", def.Help)
	}
}
