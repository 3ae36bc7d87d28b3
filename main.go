// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/loadgraph/loadgraph/cmd/loadgraph"

func main() {
	cmd.Execute()
}
