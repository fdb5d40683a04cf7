// Command payrecon reconciles card-gateway payments against the ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/payrecon/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
