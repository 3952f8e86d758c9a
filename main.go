// The main package for the newsdigest executable.
package main

import (
	"github.com/smartcampus/newsdigest/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
