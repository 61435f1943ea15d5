// rainman2-server runs the simulated cellular network the Dev
// environment talks to. Start it before any rainman2 experiment with
// --env_type Dev.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/att-innovate/rainman2/internal/cellular"
	"github.com/att-innovate/rainman2/internal/cellular/simsrv"
	"github.com/att-innovate/rainman2/internal/config"
	"github.com/att-innovate/rainman2/internal/logging"
)

func main() {
	params := cellular.DefaultNetworkParams
	var verbose bool

	cmd := &cobra.Command{
		Use:           "rainman2-server",
		Short:         "Simulated cellular network for the Dev environment",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.Setup(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			network, err := cellular.NewStaticNetwork(params, logger)
			if err != nil {
				return err
			}
			addr := fmt.Sprintf("%s:%d", cfg.Cellular.Server, cfg.Cellular.Port)
			return simsrv.New(network, logger).Run(cmd.Context(), addr)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&params.NumUEs, "num_ues", params.NumUEs,
		"number of UEs in the simulated network")
	flags.IntVar(&params.NumAPs, "num_aps", params.NumAPs,
		"number of APs in the simulated network (a square number)")
	flags.Float64Var(&params.Scale, "scale", params.Scale,
		"scale of each grid cell")
	flags.IntVar(&params.ExploreRadius, "explore_radius", params.ExploreRadius,
		"neighborhood radius for handoff candidates")
	flags.Int64Var(&params.Seed, "seed", 0,
		"RNG seed, 0 derives one from the clock")
	flags.BoolVar(&verbose, "verbose", false,
		"show verbose output for debugging")

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rainman2-server: %v\n", err)
		os.Exit(1)
	}
}
