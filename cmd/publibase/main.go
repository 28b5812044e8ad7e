package main

import (
	"context"
	"os"

	cmdutil "github.com/publibase/publibase/cmd"
	"github.com/publibase/publibase/internal/cli"
)

func main() {
	// Configure ^C to terminate program
	ctx, cancel := cmdutil.CatchCtrlC(context.Background())
	defer cancel()

	if err := cli.NewCLI().Run(ctx, os.Args[1:], os.Stdout); err != nil {
		cmdutil.PrintError(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
