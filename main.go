// The main package for the novelbind executable.
package main

import (
	"novelbind/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
