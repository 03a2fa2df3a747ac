// Command modopt runs whole-program optimization pipelines over linked
// modules.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/modopt/internal/cli"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps its error to an exit code.
// Commands report their own errors; anything else (flag parsing, bad
// arguments) is printed here.
func run() int {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return cli.ExitSuccess
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return cli.ExitCommandError
}
