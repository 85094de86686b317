// Command hymnctl runs schema migrations, admin and trust maintenance, and
// demo seeding against the hymnbook database.
package main

import (
	"fmt"
	"os"

	"hymnbook/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
