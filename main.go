// nodekit - a small node runtime assembled from a pool, a peer network
// and a payload service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nodekit/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "nodekit: %v\n", err)
		os.Exit(1)
	}
}
