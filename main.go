// SPDX-License-Identifier: MPL-2.0

package main

import cmd "castor-cli/cmd/castor"

func main() {
	cmd.Execute()
}
