// SPDX-License-Identifier: MPL-2.0

package introspect

// sampleListing mirrors the shape printed by a Symfony console application,
// including the [] encoding of empty argument and option sets.
const sampleListing = `{
  "application": {"name": "Demo", "version": "1.0"},
  "commands": [
    {
      "name": "list",
      "description": "List commands",
      "usage": ["list [--format FORMAT] [--] [<namespace>]"],
      "help": "",
      "hidden": false,
      "definition": {
        "arguments": {
          "namespace": {"name": "namespace", "is_required": false, "is_array": false, "description": "The namespace name", "default": null}
        },
        "options": {
          "format": {"name": "--format", "shortcut": "", "accept_value": true, "is_value_required": true, "is_multiple": false, "description": "The output format", "default": "txt"}
        }
      }
    },
    {
      "name": "cache:clear",
      "description": "Clear the cache",
      "usage": ["cache:clear"],
      "definition": {"arguments": [], "options": []}
    }
  ],
  "namespaces": [{"id": "cache", "commands": ["cache:clear"]}]
}`
