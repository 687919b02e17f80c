// Command recall schedules spaced-repetition review with the FSRS-6 model.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/recall/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "recall:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
