// Package main provides the entry point for netverify-cli.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yndnr/netverify-go/internal/cli/command"
	"github.com/yndnr/netverify-go/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.WithSignals(context.Background())
	err := command.Run(ctx, os.Args)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
