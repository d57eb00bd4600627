package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BrandonDHaskell/gatelog/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "gatelog:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
