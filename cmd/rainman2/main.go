// rainman2 is the experiment client: it drives Q-learning against a
// cellular network environment. For --env_type Dev the simulated
// network (rainman2-server) must be started first.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/att-innovate/rainman2/internal/cli"
	"github.com/att-innovate/rainman2/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rainman2: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.New(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rainman2: %v\n", err)
		os.Exit(1)
	}
}
