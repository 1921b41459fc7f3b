// memsim simulates a single memory region partitioned by first, best or worst fit.
// All commands live in package cmd.
package main

import (
	"github.com/inference-sim/memsim/cmd"
)

func main() {
	cmd.Execute()
}
