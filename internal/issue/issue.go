// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalogued failure class.
type Id int

const (
	EntryModuleNotFoundId Id = iota + 1
	ModuleLoadFailedId
	FunctionConfigurationId
	ConsoleIntrospectionFailedId
	ConfigLoadFailedId
	CacheUnavailableId
	TaskNotFoundId
)

type (
	MarkdownMsg string

	HttpLink string

	// Issue is the Markdown guidance shown for a failure class.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render returns the guidance rendered for a terminal. An empty stylePath
// selects the dark style.
func (i *Issue) Render(stylePath string) (string, error) {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			b.WriteString("\n- <" + string(link) + ">")
		}
	}
	if stylePath == "" {
		stylePath = "dark"
	}
	return render(b.String(), stylePath)
}

var (
	render = glamour.Render

	issues = map[Id]*Issue{
		EntryModuleNotFoundId: {
			id: EntryModuleNotFoundId,
			mdMsg: `
# No castor.lua found

Discovery starts from the entry module at the project root and stops when it is missing.

## Things you can try
- Create the entry module:
~~~lua
local castor = require("castor")

function hello()
  print("Hello from castor")
end
castor.task(hello, { description = "Say hello" })
~~~
- Point castor at another directory with ` + "`--root`" + ` or ` + "`root_dir`" + ` in config.cue.`,
			docLinks: []HttpLink{"https://castor.jolicode.com/getting-started/"},
		},
		ModuleLoadFailedId: {
			id: ModuleLoadFailedId,
			mdMsg: `
# A module failed to load

A Lua module raised an error or did not compile while it was being executed.

## Things you can try
- Check the file and line reported in the error.
- Run ` + "`castor files`" + ` to see which modules loaded before the failure.`,
		},
		FunctionConfigurationId: {
			id: FunctionConfigurationId,
			mdMsg: `
# A declaration is not properly configured

A ` + "`castor.*`" + ` tag was attached with options that cannot be used.

## Common causes
- A context generator declared with parameters, or one returning entries that are not functions.
- An ` + "`on_signals`" + ` handler that is not callable.
- A Symfony task whose command name is empty or unknown to the console.`,
		},
		ConsoleIntrospectionFailedId: {
			id: ConsoleIntrospectionFailedId,
			mdMsg: `
# The Symfony console could not be introspected

castor runs ` + "`<console> list --format=json`" + ` in the project root to learn the command definitions.

## Things you can try
- Run the console by hand and check it exits with status 0.
- Set ` + "`console`" + ` on the symfony task to the right command.
- Clear stale definitions with ` + "`castor cache clear`" + `.`,
		},
		ConfigLoadFailedId: {
			id: ConfigLoadFailedId,
			mdMsg: `
# Configuration could not be loaded

The configuration file is CUE and must satisfy the built-in schema.

## Things you can try
- Run ` + "`castor config show`" + ` with a valid file to see every field and its default.
- Check the reported path for typos or wrong value types.`,
		},
		CacheUnavailableId: {
			id: CacheUnavailableId,
			mdMsg: `
# The definition cache is unavailable

The SQLite cache could not be opened.

## Things you can try
- Check that the cache directory is writable.
- Set ` + "`cache: backend: \"memory\"`" + ` in config.cue to skip the on-disk cache.`,
		},
		TaskNotFoundId: {
			id: TaskNotFoundId,
			mdMsg: `
# Task not found

No discovered task or Symfony task has that name.

## Things you can try
- Run ` + "`castor list`" + ` to see every task with its namespace.
- Use the full name, ` + "`namespace:name`" + `.`,
		},
	}
)

// Values returns every catalogued issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, id := range slices.Sorted(maps.Keys(issues)) {
		out = append(out, issues[id])
	}
	return out
}

// Get returns nil for an unknown id.
func Get(id Id) *Issue {
	return issues[id]
}
