// SPDX-License-Identifier: MPL-2.0

// Package luahost implements host.Runtime on top of gopher-lua.
//
// Extension modules are Lua files. Loading a module executes its top-level code
// once. Every global function or table the module introduces becomes a
// declaration, recorded in introduction order through a __newindex hook on the
// globals table. Metadata is attached with the castor API available both as the
// global "castor" and through require("castor"):
//
//	function build() end
//	castor.task(build, { description = "Build the project" })
//
//	function on_start() end
//	castor.listener(on_start, { event = "castor.before_execute" })
//	castor.listener(on_start, { event = "castor.after_execute" })
//
//	DbMigrate = castor.symfony_task({}, { console = { "php", "bin/console" } })
//	castor.command(DbMigrate, { name = "doctrine:migrations:migrate" })
//
// A module may place its declarations in an explicit namespace with
// castor.namespace("app/docker"); otherwise the namespace path chosen by the
// loader (the module's directory) applies.
package luahost
